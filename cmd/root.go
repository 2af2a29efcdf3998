package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/config"
	"github.com/pable/go-rl-coach/internal/logger"
	"github.com/pable/go-rl-coach/internal/storage"
)

var (
	cfgPath string
	dbPath  string
	verbose bool

	// cfg is loaded once by the root PersistentPreRunE and read by every
	// subcommand.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rlcoach",
	Short: "Rocket League performance tracker and coach",
	Long: `Pull your Rocket League match history from ballchasing.com into a local
SQLite store, then slice it into summaries, trends, charts, and AI coaching.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
		// An explicit --db wins over both the config file and RLCOACH_DB.
		if !cmd.Flags().Changed("db") && cfg.DBPath != "" {
			dbPath = cfg.DBPath
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".rlcoach", "rlcoach.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.rlcoach/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(playlistsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(chartsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openDB creates the database directory if needed and opens the store.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func newLogger() *logrus.Logger {
	return logger.New(verbose)
}
