package analysis

// Standard race distances in meters
const (
	Distance1Mile    = 1609.34
	Distance5K       = 5000
	Distance10K      = 10000
	DistanceHalfMara = 21097.5
	DistanceMarathon = 42195
)

const (
	MetersPerKm   = 1000.0
	MetersPerMile = Distance1Mile
)
