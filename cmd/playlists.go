package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
)

var playlistsCmd = &cobra.Command{
	Use:   "playlists <player>",
	Short: "Win rate and averages split by game mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylists,
}

func runPlaylists(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(args[0], model.PlaylistAny, 0)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	report.PrintPlaylistTable(os.Stdout, aggregator.PlaylistBreakdown(matches))
	return nil
}
