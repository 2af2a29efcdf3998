package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/coach"
	"github.com/pable/go-rl-coach/internal/collector"
	"github.com/pable/go-rl-coach/internal/web"
)

var serveAddr string

// serveCmd runs the web dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Long: `Starts the dashboard server: per-player stat trends, charts, on-demand
fetching, and coaching advice. Without a ballchasing API key the dashboard
still serves stored data but cannot fetch new matches.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var col *collector.Collector
	if apiKey, err := cfg.BallchasingKey(); err != nil {
		log.WithError(err).Warn("fetching disabled")
	} else {
		col = collector.New(db, ballchasing.NewClient(apiKey, cfg.APITimeout()),
			collector.Config{PageSize: cfg.Fetch.PageSize}, log)
	}

	var advisor *coach.Advisor
	if key := cfg.AnthropicKey(); key != "" {
		advisor = coach.NewAdvisor(key, cfg.API.Model)
	} else {
		log.Info("no Anthropic API key, coach pages fall back to quick tips")
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv, err := web.New(db, col, web.Options{
		Addr:         addr,
		RecentWindow: cfg.RecentWindow,
		Advisor:      advisor,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	return srv.Serve()
}
