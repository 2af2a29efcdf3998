package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes the match database, or one player's slice of it.
var dropCmd = &cobra.Command{
	Use:   "drop [player]",
	Short: "Delete the match database, or one player's rows",
	Long:  "Permanently delete the SQLite match database, or with a player name just that player's stored matches. Re-fetch afterwards to rebuild.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		player := args[0]
		if !dropForce {
			fmt.Fprintf(os.Stderr, "This will delete every stored match for %q from: %s\n", player, dbPath)
			fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
			return nil
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.DeletePlayer(player)
		if err != nil {
			return fmt.Errorf("delete player: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted %s: %d matches removed\n", player, n)
		return nil
	}

	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
