package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/cache"
	"github.com/fortuna/tradedesk/internal/config"
	"github.com/fortuna/tradedesk/internal/ingest/ratings"
	"github.com/fortuna/tradedesk/internal/ratingsync"
	"github.com/fortuna/tradedesk/internal/service"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/store/repository"
	"github.com/fortuna/tradedesk/internal/teams"
)

const (
	appName    = "tradedesk-ratingsync"
	appVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		dsn      = flag.String("dsn", cfg.DatabaseURL, "PostgreSQL DSN")
		baseURL  = flag.String("ratings-url", cfg.Ratings.BaseURL, "Ratings site base URL")
		teamList = flag.String("teams", strings.Join(cfg.Ratings.Teams, ","), "Comma separated teams (default: every franchise)")
		floor    = flag.Int("floor", cfg.RatingFloor, "Lowest rating written back")
		headless = flag.Bool("headless", cfg.Ratings.Headless, "Render pages in headless Chrome")
		rps      = flag.Float64("rps", cfg.Ratings.RequestsPerSecond, "Requests per second against the ratings site")
		dryRun   = flag.Bool("dry-run", false, "Dry run (do not write to DB)")
		verbose  = flag.Bool("v", false, "Print every change")
	)
	flag.Parse()

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to build logger: %v", err)
	}
	logger.Infof("=== %s v%s ===", appName, appVersion)

	if *floor < 0 || *floor > 99 {
		logger.Fatalf("--floor must be within 0-99, got %d", *floor)
	}

	var raw []string
	for _, t := range strings.Split(*teamList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			raw = append(raw, t)
		}
	}
	selected, err := ratingsync.ResolveTeams(raw)
	if err != nil {
		logger.Fatalf("build spec: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDatabase(ctx, *dsn, logger)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	players := repository.NewPlayerRepository(db)
	roster := service.NewRosterService(
		players,
		repository.NewTeamAliasRepository(db),
		repository.NewPlayerAliasRepository(db),
		cache.NewMemory(),
		cfg.RosterCacheTTL,
		logger,
	)

	client := ratings.NewClient(ratings.Config{
		BaseURL:           *baseURL,
		Headless:          *headless,
		RequestsPerSecond: *rps,
	}, logger)
	defer client.Close()

	runner := ratingsync.NewRunner(client, roster, players, logger)
	spec := ratingsync.Spec{Teams: selected, Floor: *floor, DryRun: *dryRun}

	summary, err := runner.Run(ctx, spec, &consoleReporter{logger: logger, dryRun: *dryRun})
	if err != nil {
		logger.Fatalf("rating sync failed: %v", err)
	}

	if *verbose {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			logger.WithError(err).Warn("failed to print summary")
		}
	}

	logger.Info("✓ Rating sync completed successfully")
}

type consoleReporter struct {
	logger logrus.FieldLogger
	dryRun bool
}

func (c *consoleReporter) OnRunStart(spec ratingsync.Spec) {
	scope := "every franchise"
	if len(spec.Teams) > 0 {
		scope = strings.Join(teamStrings(spec.Teams), ", ")
	}
	c.logger.Infof("Starting rating sync for %s (floor=%d, dry_run=%v)", scope, spec.Floor, c.dryRun)
}

func (c *consoleReporter) OnTeamStart(team teams.Name, index int, total int) {
	c.logger.Infof("[%d/%d] %s", index+1, total, team)
}

func (c *consoleReporter) OnTeamDone(team teams.Name, fetched int, changed int) {
	c.logger.Infof("  %s: %d ratings fetched, %d changed", team, fetched, changed)
}

func (c *consoleReporter) OnTeamError(team teams.Name, err error) {
	c.logger.Warnf("  %s: %v", team, err)
}

func (c *consoleReporter) OnRunComplete(s *ratingsync.Summary) {
	c.logger.WithFields(logrus.Fields{
		"teams":     s.Teams,
		"fetched":   s.Fetched,
		"exact":     s.Exact,
		"alias":     s.Alias,
		"fuzzy":     s.Fuzzy,
		"unmatched": s.Unmatched,
		"floored":   s.FloorApplied,
		"updated":   s.Updated,
	}).Info("Run complete")

	for _, name := range s.UnmatchedNames {
		c.logger.Infof("  unmatched: %s", name)
	}
}

func teamStrings(names []teams.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
