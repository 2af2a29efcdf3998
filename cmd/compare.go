package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
)

var (
	comparePlaylist string
	compareN        int
)

// compareCmd contrasts the start of the stored record with its latest games.
var compareCmd = &cobra.Command{
	Use:   "compare <player>",
	Short: "Compare the first N games against the latest N",
	Long: `Split the record into its first N and most recent N games and show how
the headline averages moved between them. Needs at least 2N stored games so
the windows do not overlap.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&comparePlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	compareCmd.Flags().IntVar(&compareN, "n", 10, "window size in games")
}

func runCompare(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(args[0], model.ParsePlaylist(comparePlaylist), 0)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	cmp, ok := aggregator.CompareEarlyRecent(matches, compareN)
	if !ok {
		fmt.Fprintf(os.Stdout, "Need at least %d games to compare (have %d). Lower --n or fetch more history.\n",
			2*compareN, len(matches))
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n%s — first %d vs latest %d games\n", args[0], cmp.N, cmp.N)
	report.PrintComparisonTable(os.Stdout, cmp)

	verdict := "Win rate unchanged between the two windows."
	switch {
	case cmp.Delta.WinRate > 0:
		verdict = fmt.Sprintf("Improving: win rate up %.1f points since the early window.", cmp.Delta.WinRate)
	case cmp.Delta.WinRate < 0:
		verdict = fmt.Sprintf("Declining: win rate down %.1f points since the early window.", -cmp.Delta.WinRate)
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", verdict)
	return nil
}
