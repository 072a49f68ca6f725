package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"runcoach/internal/analysis"
	"runcoach/internal/auth"
	"runcoach/internal/config"
	"runcoach/internal/llm"
	"runcoach/internal/logging"
	"runcoach/internal/service"
	"runcoach/internal/store"
	"runcoach/internal/strava"
	"runcoach/internal/tui"
	"runcoach/internal/web"
)

const usage = `runcoach - training paces and plans from your Strava runs

Usage:
  runcoach                      launch the terminal UI
  runcoach serve [-addr host:port]
                                start the JSON API
  runcoach connect              connect a Strava account
  runcoach disconnect           forget the stored Strava tokens
  runcoach paces [-json] <event> <time>
                                print training zones for a race result

Events: %s ("half-marathon" is accepted for half)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "runcoach: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "paces":
		return runPaces(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return nil
	case "tui", "serve", "connect", "disconnect":
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closer, err := setupLogging(cfg, cmd == "serve")
	if err != nil {
		return err
	}
	defer closer.Close()

	d, err := openDeps(cfg, cmd == "serve")
	if err != nil {
		return err
	}
	defer d.db.Close()

	switch cmd {
	case "serve":
		return runServe(cfg, d, args)
	case "connect":
		return runConnect(d)
	case "disconnect":
		return runDisconnect(d)
	default:
		return runTUI(cfg, d)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, usage, fmt.Sprint(analysis.Events))
}

// loadConfig reads config.json, falling back to environment variables when
// the file is missing. A missing file is replaced with an example to edit.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("No config file found. An example was written to:\n  %s/config.json\n\n", configDir)
		fmt.Println("Add your Strava API credentials from https://www.strava.com/settings/api")
		fmt.Println("or set STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET.")
		fmt.Println()

		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ValidateSettings(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("invalid config (%s/config.json): %w", configDir, err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, toStdout bool) (io.Closer, error) {
	logFile, err := config.ResolvePath(cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("resolving log file: %w", err)
	}

	return logging.Setup(logging.LoggerSetupParams{
		LogFileName:   logFile,
		LogToStdout:   toStdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	}), nil
}

type deps struct {
	db        *store.DB
	profile   *service.ProfileService
	query     *service.QueryService
	paces     *service.PaceService
	plans     *service.PlanService
	connector *service.StravaConnector // nil without Strava credentials
}

// openDeps opens the database and builds the services. When webCallback is set
// the connector redirects to the configured web callback instead of the
// local terminal one.
func openDeps(cfg *config.Config, webCallback bool) (*deps, error) {
	dataDir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	profile := service.NewProfileService(db)
	if err := profile.Seed(cfg.Athlete, cfg.Display); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding profile: %w", err)
	}

	llmCfg := llm.Config{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
	if cfg.HasLLM() {
		llmCfg.APIKey = cfg.LLM.APIKey
	}

	generator := llm.New(llmCfg)
	if generator.Configured() {
		log.WithField("model", generator.Model()).Debug("plan generation enabled")
	}

	d := &deps{
		db:      db,
		profile: profile,
		query:   service.NewQueryService(db),
		paces:   service.NewPaceService(db),
		plans:   service.NewPlanService(db, generator),
	}

	if err := cfg.ValidateStrava(); err != nil {
		log.WithError(err).Warn("strava disabled")
		return d, nil
	}

	redirect := auth.LocalRedirectURL
	if webCallback && cfg.Strava.RedirectURL != "" {
		redirect = cfg.Strava.RedirectURL
	}
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  redirect,
	})
	d.connector = service.NewStravaConnector(oauthCfg, db, strava.WithRateLimiter(strava.NewRateLimiter()))

	return d, nil
}

func runTUI(cfg *config.Config, d *deps) error {
	app := tui.NewApp(tui.Services{
		Query:  d.query,
		Paces:  d.paces,
		Plans:  d.plans,
		Strava: d.connector,
	}, cfg.Display)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runServe(cfg *config.Config, d *deps, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if d.connector == nil {
		return fmt.Errorf("serve needs Strava credentials: %w", cfg.ValidateStrava())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(*addr, web.Services{
		Paces:   d.paces,
		Profile: d.profile,
		Query:   d.query,
		Plans:   d.plans,
		Strava:  d.connector,
	})
	return server.Serve(ctx)
}

func runConnect(d *deps) error {
	if d.connector == nil {
		return errors.New("strava.client_id and strava.client_secret must be set before connecting")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := auth.Authenticate(ctx, d.connector.OAuthConfig(), os.Stdout)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	if _, err := d.connector.SaveResult(result); err != nil {
		return err
	}

	name := fmt.Sprintf("athlete %d", result.AthleteID)
	if client, err := d.connector.Client(); err == nil {
		if athlete, err := client.GetAthlete(ctx); err == nil && athlete.DisplayName() != "" {
			name = athlete.DisplayName()
		}
	}

	fmt.Println()
	fmt.Printf("Successfully connected as %s!\n", name)
	return nil
}

func runDisconnect(d *deps) error {
	disconnect := d.db.DeleteAuth
	if d.connector != nil {
		disconnect = d.connector.Disconnect
	}
	if err := disconnect(); err != nil {
		return fmt.Errorf("removing tokens: %w", err)
	}
	fmt.Println("Strava tokens removed.")
	return nil
}

func runPaces(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("paces", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		printUsage(os.Stderr)
		return errors.New("paces needs an event and a finish time, e.g. runcoach paces 10k 45:00")
	}

	// Calculate does not touch the store
	report, err := service.NewPaceService(nil).Calculate(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	return printPaces(out, report)
}

func printPaces(out io.Writer, report *service.PaceReport) error {
	fmt.Fprintf(out, "%s in %s\n", analysis.GetEventLabel(report.Input.Event), report.Input.TimeHMS)
	fmt.Fprintf(out, "Threshold: %s (%s)\n", report.Threshold.PerKm, report.Threshold.PerMile)
	fmt.Fprintf(out, "%s\n\n", report.Notes)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tPER KM\tPER MILE")
	for _, z := range report.Zones {
		fmt.Fprintf(tw, "%s\t%s - %s\t%s - %s\n", z.Name, z.MinPerKm, z.MaxPerKm, z.MinPerMile, z.MaxPerMile)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "RACE\tTIME\tPACE")
	for _, eq := range report.Equivalents {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", eq.Label, eq.PredictedTime, eq.PacePerKm)
	}
	return tw.Flush()
}
