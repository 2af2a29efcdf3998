package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
)

var (
	summaryPlaylist string
	summaryWindow   int
)

// summaryCmd is the cobra command for the per-stat rollup of one player.
var summaryCmd = &cobra.Command{
	Use:   "summary <player>",
	Short: "Per-stat averages and recent-vs-historical trends",
	Long: `Roll the player's stored matches into per-stat averages, compare the
recent window against the older history, and point out standout strengths
and weaknesses.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryPlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	summaryCmd.Flags().IntVar(&summaryWindow, "window", 0, "recent window size in games (default from config)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	player := args[0]
	playlist := model.ParsePlaylist(summaryPlaylist)

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(player, playlist, 0)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintf(os.Stdout, "No matches stored for %s yet. Run 'rlcoach fetch %s' to pull their history.\n", player, player)
		return nil
	}

	window := summaryWindow
	if window <= 0 {
		window = cfg.RecentWindow
	}

	sum := aggregator.Summarize(player, playlist, matches, window)
	report.PrintSummaryHeader(os.Stdout, sum)
	report.PrintStatTrendTable(os.Stdout, sum)

	assessment := aggregator.Assess(matches)
	if len(assessment.Strengths) > 0 {
		fmt.Fprintf(os.Stdout, "\nStrengths:  %s\n", strings.Join(assessment.Strengths, ", "))
	}
	if len(assessment.Weaknesses) > 0 {
		fmt.Fprintf(os.Stdout, "Needs work: %s\n", strings.Join(assessment.Weaknesses, ", "))
	}

	best := aggregator.BestGames(matches)
	fmt.Fprintf(os.Stdout, "\nSingle-game highs: %d goals, %d assists, %d saves, %d score\n",
		best.Goals, best.Assists, best.Saves, best.Score)

	// ListMatches returns newest first.
	fmt.Fprintf(os.Stdout, "Span: %s → %s\n",
		matches[len(matches)-1].PlayedAt.Format("2006-01-02"),
		matches[0].PlayedAt.Format("2006-01-02"))
	return nil
}
