package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"notioncal/internal/config"
	"notioncal/internal/ics"
	appLog "notioncal/internal/log"
	"notioncal/internal/notion"
	"notioncal/internal/output"
	"notioncal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	outDir        string
	configPath    string
	listen        string
	check         bool
	skipMalformed bool
}

func main() {
	flags := parseFlags()

	// .env is optional; credentials may come from the real environment.
	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env file loaded", "err", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.skipMalformed {
		conf.SkipMalformed = true
	}

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid configuration", err)
		os.Exit(1)
	}

	client := notion.New(conf.Notion)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.check {
		if err := runCheck(ctx, client, conf); err != nil {
			appLog.Error("check failed", err)
			os.Exit(1)
		}
		return
	}

	if flags.outDir == "" {
		appLog.Error("missing required flag", errors.New("-out is required"))
		flag.Usage()
		os.Exit(2)
	}
	outPath := filepath.Join(flags.outDir, conf.Calendar.Filename)

	// Single-shot is the default; refresh and serve modes are opt-in.
	if conf.RefreshCron == "" && conf.Listen == "" {
		if err := generate(ctx, client, conf, outPath); err != nil {
			appLog.Error("calendar generation failed", err)
			os.Exit(1)
		}
		return
	}

	// The first cycle still fails the process: starting a serve or
	// refresh loop without ever producing a calendar helps nobody.
	if err := generate(ctx, client, conf, outPath); err != nil {
		appLog.Error("calendar generation failed", err)
		os.Exit(1)
	}

	if conf.RefreshCron != "" {
		c := cron.New()
		_, err := c.AddFunc(conf.RefreshCron, func() {
			if err := generate(ctx, client, conf, outPath); err != nil {
				// The previous complete file stays in place.
				appLog.Error("refresh cycle failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		appLog.Info("refresh schedule active", "refresh", conf.RefreshCron)
	}

	if conf.Listen != "" {
		srv := web.NewServer(conf, outPath)
		go func() {
			if err := srv.Start(); err != nil {
				appLog.Error("HTTP server failed", err, "listen", conf.Listen)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("notioncal exiting")
}

// generate runs one fetch -> transform -> serialize -> write cycle.
func generate(ctx context.Context, client *notion.Client, conf *config.Config, outPath string) error {
	records, err := client.QueryDataSource(ctx, conf.Notion.DataSourceID)
	if err != nil {
		return err
	}

	tr := ics.NewTransformer(conf.Properties)
	events := make([]ics.Event, 0, len(records))
	for _, rec := range records {
		ev, err := tr.Transform(rec)
		if err != nil {
			if conf.SkipMalformed {
				appLog.Warn("skipping malformed record", "err", err)
				continue
			}
			return err
		}
		events = append(events, ev)
	}

	doc := ics.Serialize(events, conf.Calendar.ProdID)
	if err := output.Write(outPath, doc); err != nil {
		return err
	}

	appLog.Info("calendar generated", "path", outPath, "event_count", len(events))
	return nil
}

// runCheck verifies the credential and database reachability without
// touching the filesystem.
func runCheck(ctx context.Context, client *notion.Client, conf *config.Config) error {
	users, err := client.CheckAuth(ctx)
	if err != nil {
		return err
	}
	appLog.Info("token accepted", "principal_count", len(users))

	db, err := client.Database(ctx, conf.Notion.DatabaseID)
	if err != nil {
		return err
	}
	appLog.Info("database reachable", "database_id", db.ID, "title", db.TitleText())
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.outDir, "out", "", "Output directory for the calendar file (required)")
	flag.StringVar(&cfg.configPath, "config", "", "Path to optional YAML config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address for serve mode (overrides config if set)")
	flag.BoolVar(&cfg.check, "check", false, "Verify credentials and database access, then exit")
	flag.BoolVar(&cfg.skipMalformed, "skip-malformed", false, "Skip records that fail to transform instead of aborting")

	flag.Parse()

	return cfg
}
