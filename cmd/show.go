package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <replay-id-prefix>",
	Short: "Show one stored match by replay id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match found with replay id prefix %q\n", prefix)
		return nil
	}

	report.PrintMatchDetail(os.Stdout, m)
	return nil
}
