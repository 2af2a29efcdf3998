package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
)

var (
	listPlaylist string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list [player]",
	Short: "List tracked players, or one player's stored matches",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listPlaylist, "playlist", "", "restrict matches to one playlist (1v1, 2v2, 3v3, other)")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "max matches to list (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		players, err := db.ListPlayers()
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		if len(players) == 0 {
			fmt.Fprintln(os.Stdout, "No players tracked yet. Run 'rlcoach fetch <player>' to add one.")
			return nil
		}
		report.PrintPlayersTable(os.Stdout, players)

		ov, err := db.GetOverview()
		if err != nil {
			return fmt.Errorf("get overview: %w", err)
		}
		fmt.Fprintf(os.Stdout, "\n%d matches from %d players", ov.Matches, ov.Players)
		if ov.Earliest != "" {
			fmt.Fprintf(os.Stdout, " (%s → %s)", ov.Earliest, ov.Latest)
		}
		fmt.Fprintln(os.Stdout)
		return nil
	}

	matches, err := db.ListMatches(args[0], model.ParsePlaylist(listPlaylist), listLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintf(os.Stdout, "No matches stored for %s yet. Run 'rlcoach fetch %s' to pull their history.\n", args[0], args[0])
		return nil
	}
	report.PrintMatchesTable(os.Stdout, matches)
	return nil
}
