package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/coach"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/report"
	"github.com/pable/go-rl-coach/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("rlcoach shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("rlcoach")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "players":
			shellPlayers(db)
		case "list":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: list <player> [playlist]")
				continue
			}
			shellList(db, args)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <replay-id-prefix>")
				continue
			}
			shellShow(db, args[0])
		case "summary":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: summary <player> [playlist]")
				continue
			}
			shellSummary(db, args)
		case "playlists":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: playlists <player>")
				continue
			}
			shellPlaylists(db, args[0])
		case "tips":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: tips <player>")
				continue
			}
			shellTips(db, args[0])
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q — type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"players", "list tracked players"},
		{"list <player> [playlist]", "list a player's stored matches"},
		{"show <replay-id-prefix>", "show one match's full stat line"},
		{"summary <player> [playlist]", "per-stat averages and trends"},
		{"playlists <player>", "win rate split by game mode"},
		{"tips <player>", "quick threshold-based coaching tips"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellPlayers(db *storage.DB) {
	players, err := db.ListPlayers()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(players) == 0 {
		cMuted.Println("No players tracked yet.")
		return
	}
	report.PrintPlayersTable(os.Stdout, players)
}

func shellList(db *storage.DB, args []string) {
	playlist := model.PlaylistAny
	if len(args) > 1 {
		playlist = model.ParsePlaylist(args[1])
	}
	matches, err := db.ListMatches(args[0], playlist, 20)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Printf("No matches stored for %s.\n", args[0])
		return
	}
	report.PrintMatchesTable(os.Stdout, matches)
}

func shellShow(db *storage.DB, prefix string) {
	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if m == nil {
		cMuted.Printf("No match found with replay id prefix %q.\n", prefix)
		return
	}
	report.PrintMatchDetail(os.Stdout, m)
}

func shellSummary(db *storage.DB, args []string) {
	playlist := model.PlaylistAny
	if len(args) > 1 {
		playlist = model.ParsePlaylist(args[1])
	}
	matches, err := db.ListMatches(args[0], playlist, 0)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Printf("No matches stored for %s.\n", args[0])
		return
	}
	sum := aggregator.Summarize(args[0], playlist, matches, cfg.RecentWindow)
	report.PrintSummaryHeader(os.Stdout, sum)
	report.PrintStatTrendTable(os.Stdout, sum)
}

func shellPlaylists(db *storage.DB, player string) {
	matches, err := db.ListMatches(player, model.PlaylistAny, 0)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Printf("No matches stored for %s.\n", player)
		return
	}
	report.PrintPlaylistTable(os.Stdout, aggregator.PlaylistBreakdown(matches))
}

func shellTips(db *storage.DB, player string) {
	matches, err := db.ListMatches(player, model.PlaylistAny, 0)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Printf("No matches stored for %s.\n", player)
		return
	}
	sum := aggregator.Summarize(player, model.PlaylistAny, matches, cfg.RecentWindow)
	tips := coach.QuickTips(&sum)
	if len(tips) == 0 {
		cMuted.Println("Nothing stands out — the record sits inside normal ranges.")
		return
	}
	for _, tip := range tips {
		fmt.Printf("  - %s\n", tip)
	}
}
