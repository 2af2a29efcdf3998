package coach

import (
	"fmt"

	"github.com/pable/go-rl-coach/internal/aggregator"
)

// QuickTips returns heuristic one-liners computed locally, for runs without
// an API key. At most one tip per stat family; a middling record gets none.
func QuickTips(s *aggregator.Summary) []string {
	if s == nil || s.Matches == 0 {
		return nil
	}
	goals := s.Stats["goals"].Mean
	assists := s.Stats["assists"].Mean
	saves := s.Stats["saves"].Mean
	shooting := s.Stats["shooting_pct"].Mean

	var tips []string
	switch {
	case goals < 1.0:
		tips = append(tips, "Averaging under a goal per game. Work shooting drills and get to high-percentage positions before committing.")
	case goals > 2.0:
		tips = append(tips, fmt.Sprintf("Scoring %.1f goals per game. Your finishing wins games, keep the shot volume up.", goals))
	}
	switch {
	case assists < 0.8:
		tips = append(tips, "Low assist rate. Look for the pass and center the ball instead of forcing solo plays.")
	case assists > 1.5:
		tips = append(tips, "Strong playmaking. Your passing is creating most of the team's chances.")
	}
	switch {
	case saves < 1.0:
		tips = append(tips, "Few saves per game. Rotate back post earlier and practice backboard defense.")
	case saves > 2.0:
		tips = append(tips, "Solid last line of defense. Your saves are keeping games close.")
	}
	switch {
	case shooting < 30:
		tips = append(tips, "Shooting accuracy under 30%. Place shots into corners rather than hitting the ball hard at the keeper.")
	case shooting > 50:
		tips = append(tips, "Excellent shot selection. You convert more than half of your chances.")
	}
	switch wr := s.WinRate(); {
	case wr < 45:
		tips = append(tips, "Win rate below 45%. Review replays of close losses and watch for rotation mistakes in the final minute.")
	case wr > 55:
		tips = append(tips, fmt.Sprintf("Winning %.0f%% of games. Whatever the warmup routine is, keep it.", wr))
	}
	return tips
}
