package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/charts"
	"github.com/pable/go-rl-coach/internal/config"
	"github.com/pable/go-rl-coach/internal/model"
)

var (
	chartsPlaylist string
	chartsOut      string
	chartsN        int
)

// chartsCmd renders the player's record as standalone SVG files.
var chartsCmd = &cobra.Command{
	Use:   "charts <player>",
	Short: "Render performance charts as SVG files",
	Long: `Renders the player's record as standalone SVG files: a rolling-average
timeline, per-mode win rates, the score distribution, and (with enough
games) a first-vs-latest improvement chart.`,
	Args: cobra.ExactArgs(1),
	RunE: runCharts,
}

func init() {
	chartsCmd.Flags().StringVar(&chartsPlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	chartsCmd.Flags().StringVar(&chartsOut, "out", "", "output directory (default ~/.rlcoach/charts)")
	chartsCmd.Flags().IntVar(&chartsN, "n", 10, "window size for the improvement chart")
}

func runCharts(cmd *cobra.Command, args []string) error {
	player := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(player, model.ParsePlaylist(chartsPlaylist), 0)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	outDir := chartsOut
	if outDir == "" {
		dir, err := config.StateDir()
		if err != nil {
			return err
		}
		outDir = filepath.Join(dir, "charts")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	type chartFile struct{ name, svg string }
	files := []chartFile{
		{"timeline.svg", charts.Timeline(player, matches)},
		{"playlists.svg", charts.PlaylistBars(player, aggregator.PlaylistBreakdown(matches))},
		{"scores.svg", charts.ScoreHistogram(player, matches)},
	}
	if cmp, ok := aggregator.CompareEarlyRecent(matches, chartsN); ok {
		files = append(files, chartFile{"improvement.svg", charts.ImprovementBars(player, cmp)})
	} else {
		fmt.Fprintf(os.Stderr, "Skipping improvement chart: need %d games, have %d.\n", 2*chartsN, len(matches))
	}

	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := os.WriteFile(path, []byte(f.svg), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		fmt.Printf("  wrote %s\n", path)
	}
	return nil
}
