package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
)

var (
	trendPlaylist string
	trendWindow   int
	trendLimit    int
)

var trendCmd = &cobra.Command{
	Use:   "trend <player>",
	Short: "Chronological per-game trend with rolling averages",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendPlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	trendCmd.Flags().IntVar(&trendWindow, "window", 5, "rolling average window in games")
	trendCmd.Flags().IntVar(&trendLimit, "limit", 0, "only use the N most recent matches (0 = all)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(args[0], model.ParsePlaylist(trendPlaylist), trendLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	report.PrintRollingTable(os.Stdout, matches, trendWindow)
	return nil
}
