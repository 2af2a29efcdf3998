package aggregator

import (
	"reflect"
	"testing"
	"time"

	"github.com/pable/go-rl-coach/internal/model"
)

func matchAt(id string, playedAt time.Time, goals int, won bool) model.Match {
	return model.Match{
		ReplayID: id,
		Player:   "tester",
		Playlist: model.PlaylistDoubles,
		PlayedAt: playedAt,
		Won:      won,
		Stats: model.Stats{
			Goals:   goals,
			Assists: 1,
			Saves:   1,
			Shots:   goals * 2,
			Score:   goals * 100,
		},
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("ghost", model.PlaylistAny, nil, 10)
	if s.Matches != 0 || len(s.Stats) != 0 {
		t.Errorf("empty record should yield empty summary, got %+v", s)
	}
	if s.WinRate() != 0 {
		t.Errorf("WinRate on empty record = %v, want 0", s.WinRate())
	}
}

func TestSummarizeSmallSampleTrend(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	// Goals 1, 2, 3 from oldest to newest.
	matches := []model.Match{
		matchAt("a", base, 1, false),
		matchAt("b", base.Add(time.Hour), 2, true),
		matchAt("c", base.Add(2*time.Hour), 3, true),
	}

	s := Summarize("tester", model.PlaylistAny, matches, 1)
	g := s.Stats["goals"]

	if g.RecentMean != 3 {
		t.Errorf("recent mean = %v, want 3", g.RecentMean)
	}
	if g.HistoricalMean == nil || *g.HistoricalMean != 1.5 {
		t.Errorf("historical mean = %v, want 1.5", g.HistoricalMean)
	}
	if g.TrendDelta == nil || *g.TrendDelta != 1.5 {
		t.Errorf("trend delta = %v, want +1.5", g.TrendDelta)
	}
	if g.Mean != 2 {
		t.Errorf("overall mean = %v, want 2", g.Mean)
	}
}

func TestSummarizeShortRecordHasNoHistorical(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	matches := []model.Match{
		matchAt("a", base, 2, true),
		matchAt("b", base.Add(time.Hour), 4, true),
	}

	s := Summarize("tester", model.PlaylistAny, matches, 10)
	g := s.Stats["goals"]

	if g.HistoricalMean != nil || g.TrendDelta != nil {
		t.Errorf("record shorter than window must leave historical absent, got %+v", g)
	}
	if g.RecentMean != g.Mean {
		t.Errorf("recent window covers everything, so means should agree: %v vs %v", g.RecentMean, g.Mean)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	var matches []model.Match
	for i := 0; i < 6; i++ {
		matches = append(matches, matchAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), i, i%2 == 0))
	}

	shuffled := []model.Match{matches[3], matches[0], matches[5], matches[1], matches[4], matches[2]}

	s1 := Summarize("tester", model.PlaylistAny, matches, 3)
	s2 := Summarize("tester", model.PlaylistAny, shuffled, 3)
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("summaries differ across input orderings:\n%+v\n%+v", s1, s2)
	}
}

func TestRolling(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	// Stored newest-first, as ListMatches returns them.
	matches := []model.Match{
		matchAt("d", base.Add(3*time.Hour), 4, true),
		matchAt("c", base.Add(2*time.Hour), 3, true),
		matchAt("b", base.Add(time.Hour), 2, true),
		matchAt("a", base, 1, true),
	}

	got := Rolling(matches, "goals", 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rolling = %v, want %v", got, want)
	}
}

func TestPlaylistBreakdown(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	duel1 := matchAt("d1", base, 2, true)
	duel1.Playlist = model.PlaylistDuel
	duel2 := matchAt("d2", base.Add(time.Hour), 0, false)
	duel2.Playlist = model.PlaylistDuel
	twos := matchAt("t1", base.Add(2*time.Hour), 3, true)

	out := PlaylistBreakdown([]model.Match{twos, duel1, duel2})
	if len(out) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(out))
	}
	if out[0].Playlist != model.PlaylistDuel || out[1].Playlist != model.PlaylistDoubles {
		t.Errorf("breakdown order wrong: %v, %v", out[0].Playlist, out[1].Playlist)
	}
	if out[0].Games != 2 || out[0].WinRate != 50 || out[0].AvgGoals != 1 {
		t.Errorf("duel stats = %+v, want 2 games, 50%% win rate, 1.0 avg goals", out[0])
	}
}

func TestCompareEarlyRecent(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	matches := []model.Match{
		matchAt("a", base, 0, false),
		matchAt("b", base.Add(time.Hour), 1, false),
		matchAt("c", base.Add(2*time.Hour), 2, true),
		matchAt("d", base.Add(3*time.Hour), 3, true),
	}

	cmp, ok := CompareEarlyRecent(matches, 2)
	if !ok {
		t.Fatal("expected comparison for 4 games with n=2")
	}
	if cmp.Early.AvgGoals != 0.5 || cmp.Recent.AvgGoals != 2.5 {
		t.Errorf("window means = %v / %v, want 0.5 / 2.5", cmp.Early.AvgGoals, cmp.Recent.AvgGoals)
	}
	if cmp.Delta.AvgGoals != 2 || cmp.Delta.WinRate != 100 {
		t.Errorf("delta = %+v, want +2 goals, +100 win rate", cmp.Delta)
	}

	if _, ok := CompareEarlyRecent(matches, 3); ok {
		t.Error("overlapping windows must report not-ok")
	}
}

func TestAssess(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	striker := []model.Match{matchAt("a", base, 2, true), matchAt("b", base.Add(time.Hour), 2, true)}
	striker[0].Stats.ShootingPct = 55
	striker[1].Stats.ShootingPct = 45
	a := Assess(striker)
	if !contains(a.Strengths, "Goal scoring") || !contains(a.Strengths, "Shot accuracy") {
		t.Errorf("striker strengths = %v", a.Strengths)
	}

	neutral := []model.Match{matchAt("c", base, 1, true)}
	neutral[0].Stats.ShootingPct = 30
	n := Assess(neutral)
	if !contains(n.Strengths, "Consistent all-around player") {
		t.Errorf("neutral profile should get the fallback label, got %v", n.Strengths)
	}

	if got := Assess(nil); got.Strengths != nil || got.Weaknesses != nil {
		t.Errorf("no matches should yield the zero assessment, got %+v", got)
	}
}

func TestBestGamesAndRecentForm(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	matches := []model.Match{
		matchAt("a", base, 1, false),
		matchAt("b", base.Add(time.Hour), 4, true),
		matchAt("c", base.Add(2*time.Hour), 2, true),
	}

	b := BestGames(matches)
	if b.Goals != 4 || b.Score != 400 {
		t.Errorf("best games = %+v, want Goals=4 Score=400", b)
	}

	f := RecentForm(matches, 2)
	if f.Games != 2 || f.Wins != 2 || f.WinRate != 100 {
		t.Errorf("recent form = %+v, want 2/2 wins", f)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
