package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"glassplanner/internal/assistant"
	"glassplanner/internal/config"
	"glassplanner/internal/dashboard"
	"glassplanner/internal/ics"
	appLog "glassplanner/internal/log"
	"glassplanner/internal/scheduler"
	"glassplanner/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Starts the HTTP dashboard. Upload an .ics export in the browser, or
configure a feed URL to have it fetched on the refresh schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().String("feed", "", "calendar feed URL to subscribe to (overrides config)")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("feed", serveCmd.Flags().Lookup("feed"))
}

// loadConfig reads the config file and applies flag/env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("listen"); v != "" {
		cfg.Listen = v
	}
	if v := viper.GetString("feed"); v != "" {
		cfg.Feed = &config.FeedConfig{Name: "feed", URL: v}
	}
	if v := viper.GetString("api_key"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.Assistant.Model = v
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", cfgFile)
		return err
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := dashboard.NewBoard(loc)
	parser := ics.NewParser(nil)

	var svc *assistant.Service
	if cfg.Assistant.APIKey != "" {
		gen, err := assistant.NewGeminiGenerator(ctx, assistant.GeminiConfig{
			APIKey:  cfg.Assistant.APIKey,
			Model:   cfg.Assistant.Model,
			Timeout: cfg.AssistantTimeout(),
		})
		if err != nil {
			return err
		}
		svc = assistant.NewService(gen, cfg.SessionTTL())
		appLog.Info("assistant enabled", "generator", gen.Name())
	} else {
		appLog.Info("assistant disabled; set GEMINI_API_KEY to enable")
	}

	var sched *scheduler.Scheduler
	if cfg.Feed != nil {
		fetcher := ics.NewFetcher(cfg.CacheDir, 0)
		sched, err = scheduler.New(cfg.Refresh, ics.Source{Name: cfg.Feed.Name, URL: cfg.Feed.URL}, fetcher, parser, board)
		if err != nil {
			return err
		}
	}

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.Refresh,
		"feed_configured", cfg.Feed != nil,
		"assistant", svc.Enabled(),
	)

	srv := web.NewServer(cfg, web.Deps{
		Board:     board,
		Parser:    parser,
		Assistant: svc,
		Scheduler: sched,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}

	err = g.Wait()
	appLog.Info("glassplanner exiting")
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
