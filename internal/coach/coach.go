// Package coach turns aggregated match data into training advice. The prompt
// builder and quick tips run locally; Advisor streams a full writeup from the
// Anthropic API.
package coach

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pable/go-rl-coach/internal/aggregator"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = "claude-haiku-4-5-20251001"

// requestTimeout caps one Messages call end to end, streamed body included.
// Generous for a 1024-token reply, but a wedged upstream connection cannot
// pin the caller past it.
const requestTimeout = 60 * time.Second

const systemPrompt = `You are an expert Rocket League coach. You are given aggregated match
statistics for one player and asked for training advice.

Rules:
- Ground every claim in the numbers provided. Never invent statistics.
- Be specific and actionable; name drills, habits, and in-game decisions.
- Be encouraging but honest about weaknesses.
- Focus on the 3-4 areas where improvement would matter most.
- Keep the response concise.

Stats glossary:
- Score: in-game points from goals, saves, shots, and clears. ~350/game is average.
- Shooting %: goals per shot. 25-40% is typical; <20% suggests low-quality shots.
- Boost/min: boost collected per minute. Starved play sits under ~350.
- Supersonic time: seconds at max speed. High values can mean boost burned on speed.
- Thirds: seconds spent in the defensive, middle, and offensive parts of the pitch.`

// Input bundles the rollups the prompt builder reads.
type Input struct {
	Summary    *aggregator.Summary
	Form       aggregator.Form
	Assessment aggregator.Assessment
	Playlists  []aggregator.PlaylistStats
}

// BuildPrompt renders the player's record as a structured text block for the
// model, ending with the questions to answer. Returns "" when there is no
// data to describe.
func BuildPrompt(in Input) string {
	s := in.Summary
	if s == nil || s.Matches == 0 {
		return ""
	}
	stat := func(name string) aggregator.StatTrend { return s.Stats[name] }

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this Rocket League player's record and give coaching advice.\n\n")
	fmt.Fprintf(&sb, "Player: %s\nPlaylist: %s\n\n", s.Player, s.Playlist)

	fmt.Fprintf(&sb, "OVERALL STATS (%d games):\n", s.Matches)
	fmt.Fprintf(&sb, "- Record: %dW/%dL (%.1f%% win rate)\n", s.Wins, s.Losses, s.WinRate())
	fmt.Fprintf(&sb, "- Avg goals: %.2f\n", stat("goals").Mean)
	fmt.Fprintf(&sb, "- Avg assists: %.2f\n", stat("assists").Mean)
	fmt.Fprintf(&sb, "- Avg saves: %.2f\n", stat("saves").Mean)
	fmt.Fprintf(&sb, "- Avg shots: %.2f\n", stat("shots").Mean)
	fmt.Fprintf(&sb, "- Shooting accuracy: %.1f%%\n", stat("shooting_pct").Mean)
	fmt.Fprintf(&sb, "- Avg score: %.0f\n\n", stat("score").Mean)

	fmt.Fprintf(&sb, "RECENT FORM (last %d games):\n", in.Form.Games)
	fmt.Fprintf(&sb, "- Win rate: %.1f%%\n", in.Form.WinRate)
	fmt.Fprintf(&sb, "- Avg goals: %.2f\n", stat("goals").RecentMean)
	fmt.Fprintf(&sb, "- Avg assists: %.2f\n", stat("assists").RecentMean)
	fmt.Fprintf(&sb, "- Avg saves: %.2f\n", stat("saves").RecentMean)
	fmt.Fprintf(&sb, "- Avg score: %.0f\n\n", stat("score").RecentMean)

	// Trend deltas exist only once the record outgrows the recent window.
	if stat("goals").TrendDelta != nil {
		fmt.Fprintf(&sb, "TRENDS (last %d games vs earlier):\n", s.RecentWindow)
		fmt.Fprintf(&sb, "- Goals: %+.2f\n", *stat("goals").TrendDelta)
		fmt.Fprintf(&sb, "- Assists: %+.2f\n", *stat("assists").TrendDelta)
		fmt.Fprintf(&sb, "- Saves: %+.2f\n", *stat("saves").TrendDelta)
		fmt.Fprintf(&sb, "- Shooting accuracy: %+.1f\n", *stat("shooting_pct").TrendDelta)
		fmt.Fprintf(&sb, "- Score: %+.0f\n\n", *stat("score").TrendDelta)
	}

	if len(in.Assessment.Strengths) > 0 || len(in.Assessment.Weaknesses) > 0 {
		fmt.Fprintf(&sb, "IDENTIFIED PATTERNS:\n")
		for _, st := range in.Assessment.Strengths {
			fmt.Fprintf(&sb, "- Strength: %s\n", st)
		}
		for _, wk := range in.Assessment.Weaknesses {
			fmt.Fprintf(&sb, "- Needs work: %s\n", wk)
		}
		sb.WriteString("\n")
	}

	if len(in.Playlists) > 0 {
		top := make([]aggregator.PlaylistStats, len(in.Playlists))
		copy(top, in.Playlists)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Games > top[j].Games })
		if len(top) > 3 {
			top = top[:3]
		}
		fmt.Fprintf(&sb, "PERFORMANCE BY GAME MODE:\n")
		for _, ps := range top {
			fmt.Fprintf(&sb, "- %s: %d games, %.1f%% win rate, %.2f avg goals\n", ps.Playlist, ps.Games, ps.WinRate, ps.AvgGoals)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Based on this data, provide:
1. A brief read on the player's current level and playstyle
2. The top 3 areas to focus on improving
3. A concrete drill or habit for each of those areas
4. One strength to keep leaning on

Keep it concise and practical.`)
	return sb.String()
}

// Advisor streams coaching advice from the Anthropic API.
type Advisor struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAdvisor builds an Advisor for the given key and model id. An empty
// model falls back to DefaultModel.
func NewAdvisor(apiKey, model string) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	return &Advisor{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: requestTimeout,
	}
}

// Stream sends the prompt and writes the response to w as it arrives. The
// call runs under the Advisor's request timeout on top of whatever deadline
// ctx already carries.
func (a *Advisor) Stream(ctx context.Context, prompt string, w io.Writer) error {
	timeout := a.timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stream := a.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(w, delta.Delta.AsTextDelta().Text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		// Provide a cleaner error message for common API errors.
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed — check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
