package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/calendar"
	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/fetcher"
	"github.com/pfrederiksen/grappling-events/internal/filter"
	"github.com/pfrederiksen/grappling-events/internal/jsonld"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagBaseURL      string
	flagEventsPath   string
	flagEventPattern string
	flagMonths       int
	flagMonthParam   string
	flagMaxEvents    int
	flagDelay        time.Duration
	flagTimeout      time.Duration
	flagWorkers      int
	flagPastDays     int
	flagFutureDays   int
	flagRender       bool
	flagChromePath   string
	flagOutput       string
	flagDuration     time.Duration
	flagInclude      []string
	flagExclude      []string
	flagLocations    []string
	flagWeekends     bool
	flagFormat       string
	flagLogLevel     string
	flagVerbose      bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grappling-events",
		Short: "Build a calendar feed of upcoming grappling events",
		Long: `Scrapes the events site for upcoming tournaments and writes them to an
iCalendar (.ics) feed that calendar apps can subscribe to.

Every flag can also be set with a GRAPPLING_EVENTS_<FLAG> environment
variable, e.g. GRAPPLING_EVENTS_MAX_EVENTS=40.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScrape,
	}

	f := cmd.Flags()
	f.StringVar(&flagBaseURL, "base-url", envString("base-url", scraper.DefaultBaseURL), "Site origin that event URLs are resolved against")
	f.StringVar(&flagEventsPath, "events-path", envString("events-path", scraper.DefaultEventsPath), "Path of the events listing")
	f.StringVar(&flagEventPattern, "event-pattern", envString("event-pattern", scraper.DefaultEventPattern), "Regexp matching event page paths")
	f.IntVar(&flagMonths, "months", envInt("months", scraper.DefaultMonths), "Monthly listing pages to visit, starting this month (0 = listing only)")
	f.StringVar(&flagMonthParam, "month-param", envString("month-param", scraper.DefaultMonthParam), "Query parameter that selects a listing month")
	f.IntVar(&flagMaxEvents, "max-events", envInt("max-events", scraper.DefaultMaxEvents), "Maximum number of event pages to scrape")
	f.DurationVar(&flagDelay, "delay", envDuration("delay", scraper.DefaultDelay), "Minimum delay between requests to the site")
	f.DurationVar(&flagTimeout, "timeout", envDuration("timeout", fetcher.Timeout), "Timeout for each page fetch")
	f.IntVar(&flagWorkers, "workers", envInt("workers", scraper.DefaultWorkers), "Event pages scraped concurrently")
	f.IntVar(&flagPastDays, "past-days", envInt("past-days", event.DefaultPastDays), "Keep events that started up to this many days ago")
	f.IntVar(&flagFutureDays, "future-days", envInt("future-days", event.DefaultFutureDays), "Keep events starting up to this many days ahead")
	f.BoolVar(&flagRender, "render", envBool("render", false), "Render pages in headless Chrome before parsing")
	f.StringVar(&flagChromePath, "chrome-path", envString("chrome-path", ""), "Chrome binary used with --render")
	f.StringVarP(&flagOutput, "output", "o", envString("output", "grappling-events.ics"), "Path of the calendar file to write")
	f.DurationVar(&flagDuration, "duration", envDuration("duration", calendar.DefaultDuration), "Length of each calendar entry")
	f.StringSliceVar(&flagInclude, "include", envList("include"), "Only keep events whose name or location contains one of these keywords")
	f.StringSliceVar(&flagExclude, "exclude", envList("exclude"), "Drop events whose name contains one of these keywords")
	f.StringSliceVar(&flagLocations, "location", envList("location"), "Only keep events whose location contains one of these")
	f.BoolVar(&flagWeekends, "weekends-only", envBool("weekends-only", false), "Only keep events starting on a weekend")
	f.StringVar(&flagFormat, "format", envString("format", "text"), "Summary format: text or json")
	f.StringVar(&flagLogLevel, "log-level", envString("log-level", "info"), "Log level: debug, info, warn or error")
	f.BoolVarP(&flagVerbose, "verbose", "v", envBool("verbose", false), "Enable debug logging and detailed summary")

	return cmd
}

// buildConfig turns flag values into a scraper configuration
func buildConfig() (scraper.Config, error) {
	if flagPastDays < 0 || flagFutureDays < 0 {
		return scraper.Config{}, fmt.Errorf("--past-days and --future-days must not be negative")
	}
	if flagMonths < 0 {
		return scraper.Config{}, fmt.Errorf("--months must not be negative")
	}

	cfg := scraper.DefaultConfig()
	cfg.BaseURL = flagBaseURL
	cfg.EventsPath = flagEventsPath
	cfg.EventPattern = flagEventPattern
	cfg.Months = flagMonths
	cfg.MonthParam = flagMonthParam
	cfg.MaxEvents = flagMaxEvents
	cfg.Delay = flagDelay
	cfg.Workers = flagWorkers
	// headroom over the client timeout so rendering can finish
	cfg.Timeout = flagTimeout + 10*time.Second
	cfg.Window = event.NewWindow(flagPastDays, flagFutureDays)
	return cfg, nil
}

func newFetcher() fetcher.Fetcher {
	if flagRender {
		return fetcher.NewBrowser(fetcher.BrowserOptions{
			ExecPath:     flagChromePath,
			WaitSelector: jsonld.Selector,
			Timeout:      flagTimeout,
		})
	}
	return fetcher.NewHTTP(flagTimeout)
}

// runScrape is the main command logic
func runScrape(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	prev := logger.Default()
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	defer logger.SetDefault(prev)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	sc, err := scraper.New(newFetcher(), cfg)
	if err != nil {
		return fmt.Errorf("initializing scraper: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	startedAt := time.Now().UTC()
	logger.Info("Starting scrape", logger.Fields{
		"base_url": cfg.BaseURL,
		"render":   flagRender,
		"months":   cfg.Months,
		"workers":  cfg.Workers,
	})

	records, err := sc.Run(ctx)
	if err != nil {
		return fmt.Errorf("scraping events: %w", err)
	}

	records = filter.NewFilter(flagInclude, flagExclude, flagLocations, flagWeekends).Apply(records)

	opts := calendar.Options{Duration: flagDuration, GeneratedAt: startedAt}
	if err := calendar.WriteFile(flagOutput, records, opts); err != nil {
		return err
	}
	logger.Info("Wrote calendar feed", logger.Fields{
		"path":   flagOutput,
		"events": len(records),
	})

	result := &OutputResult{
		GeneratedAt: startedAt,
		Output:      flagOutput,
		Events:      records,
		EventCount:  len(records),
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("Run metrics", logger.MetricsSnapshot())
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("Run failed", nil, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
