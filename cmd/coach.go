package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/coach"
	"github.com/pable/go-rl-coach/internal/model"
)

var (
	coachPlaylist string
	coachWindow   int
	coachQuick    bool
	coachRender   bool
	coachModel    string
	coachAPIKey   string
)

// coachCmd asks an Anthropic model for advice grounded in the stored record.
var coachCmd = &cobra.Command{
	Use:   "coach <player>",
	Short: "AI coaching advice from the stored record (requires ANTHROPIC_API_KEY)",
	Long: `Summarizes the player's record and asks an Anthropic model for coaching
advice grounded in those numbers. With --quick, skips the API entirely and
prints locally computed threshold tips.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoach,
}

func init() {
	coachCmd.Flags().StringVar(&coachPlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	coachCmd.Flags().IntVar(&coachWindow, "window", 0, "recent window size in games (default from config)")
	coachCmd.Flags().BoolVar(&coachQuick, "quick", false, "skip the API and print local threshold tips")
	coachCmd.Flags().BoolVar(&coachRender, "render", false, "render the advice as terminal markdown")
	coachCmd.Flags().StringVar(&coachModel, "model", coach.DefaultModel, "Anthropic model to use")
	coachCmd.Flags().StringVar(&coachAPIKey, "api-key", "", "Anthropic API key (falls back to config / $ANTHROPIC_API_KEY)")
}

func runCoach(cmd *cobra.Command, args []string) error {
	player := args[0]
	playlist := model.ParsePlaylist(coachPlaylist)

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

	window := coachWindow
	if window <= 0 {
		window = cfg.RecentWindow
	}
	sum := aggregator.Summarize(player, playlist, matches, window)

	if coachQuick {
		tips := coach.QuickTips(&sum)
		if len(tips) == 0 {
			fmt.Fprintln(os.Stdout, "Nothing stands out — the record sits inside normal ranges.")
			return nil
		}
		for _, tip := range tips {
			fmt.Fprintf(os.Stdout, "  - %s\n", tip)
		}
		return nil
	}

	apiKey := coachAPIKey
	if apiKey == "" {
		apiKey = cfg.AnthropicKey()
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key (or --quick for local tips)")
	}

	prompt := coach.BuildPrompt(coach.Input{
		Summary:    &sum,
		Form:       aggregator.RecentForm(matches, window),
		Assessment: aggregator.Assess(matches),
		Playlists:  aggregator.PlaylistBreakdown(matches),
	})
	advisor := coach.NewAdvisor(apiKey, coachModel)

	if coachRender {
		// Buffer the stream so the whole reply can be rendered as markdown.
		var buf strings.Builder
		if err := advisor.Stream(cmd.Context(), prompt, &buf); err != nil {
			return err
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("init renderer: %w", err)
		}
		out, err := r.Render(buf.String())
		if err != nil {
			return fmt.Errorf("render advice: %w", err)
		}
		fmt.Fprint(os.Stdout, out)
		return nil
	}

	fmt.Fprintln(os.Stdout, "\n─── Coaching Advice ─────────────────────────────────")
	err = advisor.Stream(cmd.Context(), prompt, os.Stdout)
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")
	return err
}
