// Package aggregator computes request-scoped rollups over stored matches:
// summary means, recent-versus-historical trends, playlist breakdowns, and
// rolling series for charts. Nothing here mutates the store; every function
// is a pure view of its input slice.
package aggregator

import (
	"sort"

	"github.com/pable/go-rl-coach/internal/model"
)

// DefaultRecentWindow is how many of the latest matches count as "recent"
// when the caller does not say otherwise.
const DefaultRecentWindow = 10

// StatTrend is one stat's rollup across a match window.
type StatTrend struct {
	// Mean is the average over every match in the window.
	Mean float64
	// RecentMean is the average over the most recent games only.
	RecentMean float64
	// HistoricalMean is the average over everything before the recent
	// window. Nil when the record is shorter than the window, in which
	// case no historical baseline exists.
	HistoricalMean *float64
	// TrendDelta is RecentMean minus HistoricalMean; nil whenever
	// HistoricalMean is.
	TrendDelta *float64
}

// Summary is the full rollup for one player under one playlist filter.
type Summary struct {
	Player       string
	Playlist     model.Playlist
	RecentWindow int
	Matches      int
	Wins         int
	Losses       int
	// Stats maps each model.StatNames entry to its rollup. Empty when the
	// player has no stored matches.
	Stats map[string]StatTrend
}

// WinRate returns the overall win percentage, 0 for an empty record.
func (s *Summary) WinRate() float64 {
	return winRate(s.Wins, s.Matches)
}

// Summarize partitions the matches into the most recent recentWindow games
// and the remainder, then computes per-stat means and the recent-minus-
// historical delta. A player with zero matches yields an empty stat map, not
// an error. Output depends only on the set of matches, never their order.
func Summarize(player string, playlist model.Playlist, matches []model.Match, recentWindow int) Summary {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	s := Summary{
		Player:       player,
		Playlist:     playlist,
		RecentWindow: recentWindow,
		Stats:        make(map[string]StatTrend),
	}
	if len(matches) == 0 {
		return s
	}

	sorted := sortedByDateDesc(matches)
	s.Matches = len(sorted)
	for _, m := range sorted {
		if m.Won {
			s.Wins++
		} else {
			s.Losses++
		}
	}

	n := recentWindow
	if n > len(sorted) {
		n = len(sorted)
	}
	all := numericRows(sorted)
	recent := all[:n]
	historical := all[n:]

	for _, name := range model.StatNames {
		st := StatTrend{
			Mean:       meanOf(all, name),
			RecentMean: meanOf(recent, name),
		}
		if len(historical) > 0 {
			h := meanOf(historical, name)
			d := st.RecentMean - h
			st.HistoricalMean = &h
			st.TrendDelta = &d
		}
		s.Stats[name] = st
	}
	return s
}

// PlaylistStats is one playlist's slice of a player's record.
type PlaylistStats struct {
	Playlist   model.Playlist
	Games      int
	Wins       int
	WinRate    float64
	AvgGoals   float64
	AvgAssists float64
	AvgSaves   float64
	AvgScore   float64
}

// PlaylistBreakdown groups the matches by playlist, in the fixed display
// order of model.Playlists. Playlists the player never queued are omitted.
func PlaylistBreakdown(matches []model.Match) []PlaylistStats {
	byList := make(map[model.Playlist][]model.Match)
	for _, m := range matches {
		byList[m.Playlist] = append(byList[m.Playlist], m)
	}

	var out []PlaylistStats
	for _, pl := range model.Playlists {
		group := byList[pl]
		if len(group) == 0 {
			continue
		}
		rows := numericRows(sortedByDateDesc(group))
		ps := PlaylistStats{
			Playlist:   pl,
			Games:      len(group),
			AvgGoals:   meanOf(rows, "goals"),
			AvgAssists: meanOf(rows, "assists"),
			AvgSaves:   meanOf(rows, "saves"),
			AvgScore:   meanOf(rows, "score"),
		}
		for _, m := range group {
			if m.Won {
				ps.Wins++
			}
		}
		ps.WinRate = winRate(ps.Wins, ps.Games)
		out = append(out, ps)
	}
	return out
}

// Form is the win/loss shape of the most recent n games.
type Form struct {
	Games   int
	Wins    int
	WinRate float64
}

// RecentForm looks at the latest n matches only.
func RecentForm(matches []model.Match, n int) Form {
	sorted := sortedByDateDesc(matches)
	if n > len(sorted) {
		n = len(sorted)
	}
	f := Form{Games: n}
	for _, m := range sorted[:n] {
		if m.Won {
			f.Wins++
		}
	}
	f.WinRate = winRate(f.Wins, f.Games)
	return f
}

// WindowStats are the headline averages for one slice of a record.
type WindowStats struct {
	WinRate    float64
	AvgGoals   float64
	AvgAssists float64
	AvgSaves   float64
	AvgScore   float64
}

// Comparison contrasts the first n games of a record with the latest n.
type Comparison struct {
	N      int
	Early  WindowStats
	Recent WindowStats
	// Delta is Recent minus Early, field by field.
	Delta WindowStats
}

// CompareEarlyRecent measures improvement between a player's first n and
// most recent n games. Returns false when the record is shorter than 2n,
// which would make the windows overlap.
func CompareEarlyRecent(matches []model.Match, n int) (Comparison, bool) {
	if n <= 0 || len(matches) < 2*n {
		return Comparison{}, false
	}
	sorted := sortedByDateDesc(matches)
	recent := windowStats(sorted[:n])
	early := windowStats(sorted[len(sorted)-n:])

	return Comparison{
		N:      n,
		Early:  early,
		Recent: recent,
		Delta: WindowStats{
			WinRate:    recent.WinRate - early.WinRate,
			AvgGoals:   recent.AvgGoals - early.AvgGoals,
			AvgAssists: recent.AvgAssists - early.AvgAssists,
			AvgSaves:   recent.AvgSaves - early.AvgSaves,
			AvgScore:   recent.AvgScore - early.AvgScore,
		},
	}, true
}

// Rolling returns the rolling mean of one stat, oldest match first, one value
// per match. Positions before the window has filled average what is
// available, so the series starts at the first game's value.
func Rolling(matches []model.Match, stat string, window int) []float64 {
	if window <= 0 {
		window = 5
	}
	sorted := sortedByDateDesc(matches)
	// Flip to chronological order for the series.
	rows := make([]float64, len(sorted))
	for i, m := range sorted {
		rows[len(sorted)-1-i] = m.Stats.Numeric()[stat]
	}

	out := make([]float64, len(rows))
	sum := 0.0
	for i, v := range rows {
		sum += v
		if i >= window {
			sum -= rows[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Assessment buckets a player's profile into strengths and weaknesses using
// fixed thresholds on the headline averages.
type Assessment struct {
	Strengths  []string
	Weaknesses []string
}

// Assess labels the record's standout stats. A record with nothing unusual
// gets neutral labels rather than empty lists; a record with no matches at
// all gets the zero Assessment.
func Assess(matches []model.Match) Assessment {
	if len(matches) == 0 {
		return Assessment{}
	}
	rows := numericRows(matches)
	goals := meanOf(rows, "goals")
	assists := meanOf(rows, "assists")
	saves := meanOf(rows, "saves")
	shooting := meanOf(rows, "shooting_pct")

	var a Assessment
	switch {
	case goals > 1.5:
		a.Strengths = append(a.Strengths, "Goal scoring")
	case goals < 0.8:
		a.Weaknesses = append(a.Weaknesses, "Goal scoring")
	}
	switch {
	case assists > 1.2:
		a.Strengths = append(a.Strengths, "Playmaking")
	case assists < 0.6:
		a.Weaknesses = append(a.Weaknesses, "Playmaking")
	}
	switch {
	case saves > 1.5:
		a.Strengths = append(a.Strengths, "Defense")
	case saves < 0.8:
		a.Weaknesses = append(a.Weaknesses, "Defense")
	}
	switch {
	case shooting > 40:
		a.Strengths = append(a.Strengths, "Shot accuracy")
	case shooting < 25:
		a.Weaknesses = append(a.Weaknesses, "Shot accuracy")
	}

	if len(a.Strengths) == 0 {
		a.Strengths = []string{"Consistent all-around player"}
	}
	if len(a.Weaknesses) == 0 {
		a.Weaknesses = []string{"Well-rounded performance"}
	}
	return a
}

// Best is the single-game maxima across a record.
type Best struct {
	Goals   int
	Assists int
	Saves   int
	Score   int
}

// BestGames scans for the record's single-game highs.
func BestGames(matches []model.Match) Best {
	var b Best
	for _, m := range matches {
		if m.Stats.Goals > b.Goals {
			b.Goals = m.Stats.Goals
		}
		if m.Stats.Assists > b.Assists {
			b.Assists = m.Stats.Assists
		}
		if m.Stats.Saves > b.Saves {
			b.Saves = m.Stats.Saves
		}
		if m.Stats.Score > b.Score {
			b.Score = m.Stats.Score
		}
	}
	return b
}

// sortedByDateDesc returns a copy sorted newest first, with the replay id as
// a tiebreak so equal timestamps still order identically across calls.
func sortedByDateDesc(matches []model.Match) []model.Match {
	out := make([]model.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].ReplayID > out[j].ReplayID
	})
	return out
}

// numericRows flattens each match's stat line once so the mean passes don't
// rebuild the map per stat.
func numericRows(matches []model.Match) []map[string]float64 {
	rows := make([]map[string]float64, len(matches))
	for i := range matches {
		rows[i] = matches[i].Stats.Numeric()
	}
	return rows
}

// meanOf averages one stat over pre-flattened rows, 0 for no rows.
func meanOf(rows []map[string]float64, name string) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += r[name]
	}
	return sum / float64(len(rows))
}

func windowStats(matches []model.Match) WindowStats {
	rows := numericRows(matches)
	wins := 0
	for _, m := range matches {
		if m.Won {
			wins++
		}
	}
	return WindowStats{
		WinRate:    winRate(wins, len(matches)),
		AvgGoals:   meanOf(rows, "goals"),
		AvgAssists: meanOf(rows, "assists"),
		AvgSaves:   meanOf(rows, "saves"),
		AvgScore:   meanOf(rows, "score"),
	}
}

// winRate converts a win count to a percentage, 0 for no games.
func winRate(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(wins) / float64(games) * 100
}
