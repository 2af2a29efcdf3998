// Package report renders rollups as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
)

// intStats are the stat names rendered without decimals in detail views.
var intStats = map[string]bool{
	"goals":   true,
	"assists": true,
	"saves":   true,
	"shots":   true,
	"score":   true,
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintSummaryHeader prints the one-line record header above a summary table.
func PrintSummaryHeader(w io.Writer, s aggregator.Summary) {
	lo, hi := wilsonCI(s.Wins, s.Matches)
	fmt.Fprintf(w, "\nPlayer: %s  |  Playlist: %s  |  Games: %d  |  Record: %dW/%dL  |  Win rate: %.1f%% (95%% CI %.0f–%.0f%%)\n\n",
		s.Player, s.Playlist, s.Matches, s.Wins, s.Losses, s.WinRate(), lo*100, hi*100)
}

// PrintStatTrendTable prints per-stat means with the recent-versus-historical
// trend. Stats with no historical baseline show an em dash.
func PrintStatTrendTable(w io.Writer, s aggregator.Summary) {
	table := newTable(w)
	table.Header("STAT", "MEAN", fmt.Sprintf("LAST %d", s.RecentWindow), "HISTORICAL", "TREND")

	for _, name := range model.StatNames {
		st, ok := s.Stats[name]
		if !ok {
			continue
		}
		historical := "—"
		trend := "—"
		if st.HistoricalMean != nil {
			historical = fmt.Sprintf("%.2f", *st.HistoricalMean)
			trend = fmt.Sprintf("%+.2f", *st.TrendDelta)
		}
		table.Append(
			model.StatLabel(name),
			fmt.Sprintf("%.2f", st.Mean),
			fmt.Sprintf("%.2f", st.RecentMean),
			historical,
			trend,
		)
	}
	table.Render()
}

// PrintPlaylistTable prints the per-playlist breakdown.
func PrintPlaylistTable(w io.Writer, stats []aggregator.PlaylistStats) {
	table := newTable(w)
	table.Header("PLAYLIST", "GAMES", "WIN%", "GOALS", "ASSISTS", "SAVES", "SCORE")

	for _, ps := range stats {
		table.Append(
			ps.Playlist.String(),
			strconv.Itoa(ps.Games),
			fmt.Sprintf("%.1f%%", ps.WinRate),
			fmt.Sprintf("%.2f", ps.AvgGoals),
			fmt.Sprintf("%.2f", ps.AvgAssists),
			fmt.Sprintf("%.2f", ps.AvgSaves),
			fmt.Sprintf("%.0f", ps.AvgScore),
		)
	}
	table.Render()
}

// PrintComparisonTable prints the early-versus-recent improvement table.
func PrintComparisonTable(w io.Writer, cmp aggregator.Comparison) {
	table := newTable(w)
	table.Header("WINDOW", "WIN%", "GOALS", "ASSISTS", "SAVES", "SCORE")

	row := func(label string, ws aggregator.WindowStats, signed bool) {
		f := func(v float64, digits int) string {
			if signed {
				return fmt.Sprintf("%+.*f", digits, v)
			}
			return fmt.Sprintf("%.*f", digits, v)
		}
		table.Append(label, f(ws.WinRate, 1), f(ws.AvgGoals, 2), f(ws.AvgAssists, 2), f(ws.AvgSaves, 2), f(ws.AvgScore, 0))
	}
	row(fmt.Sprintf("First %d", cmp.N), cmp.Early, false)
	row(fmt.Sprintf("Last %d", cmp.N), cmp.Recent, false)
	row("Change", cmp.Delta, true)
	table.Render()
}

// PrintMatchesTable lists stored matches, newest first.
func PrintMatchesTable(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("DATE", "PLAYLIST", "W/L", "GOALS", "ASSISTS", "SAVES", "SHOTS", "SCORE", "REPLAY")

	for _, m := range matches {
		wl := "L"
		if m.Won {
			wl = "W"
		}
		table.Append(
			m.PlayedAt.Format("2006-01-02 15:04"),
			m.Playlist.String(),
			wl,
			strconv.Itoa(m.Stats.Goals),
			strconv.Itoa(m.Stats.Assists),
			strconv.Itoa(m.Stats.Saves),
			strconv.Itoa(m.Stats.Shots),
			strconv.Itoa(m.Stats.Score),
			shortID(m.ReplayID),
		)
	}
	table.Render()
}

// PrintRollingTable prints one row per game in chronological order with
// rolling means beside the raw result, so streaks and slumps stand out.
func PrintRollingTable(w io.Writer, matches []model.Match, window int) {
	if window <= 0 {
		window = 5
	}
	sorted := make([]model.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PlayedAt.Equal(sorted[j].PlayedAt) {
			return sorted[i].PlayedAt.Before(sorted[j].PlayedAt)
		}
		return sorted[i].ReplayID < sorted[j].ReplayID
	})

	goals := aggregator.Rolling(sorted, "goals", window)
	assists := aggregator.Rolling(sorted, "assists", window)
	saves := aggregator.Rolling(sorted, "saves", window)
	score := aggregator.Rolling(sorted, "score", window)

	table := newTable(w)
	table.Header("GAME", "DATE", "PLAYLIST", "W/L", "GOALS", "ASSISTS", "SAVES", "SCORE")
	for i, m := range sorted {
		wl := "L"
		if m.Won {
			wl = "W"
		}
		table.Append(
			strconv.Itoa(i+1),
			m.PlayedAt.Format("2006-01-02"),
			m.Playlist.String(),
			wl,
			fmt.Sprintf("%.2f", goals[i]),
			fmt.Sprintf("%.2f", assists[i]),
			fmt.Sprintf("%.2f", saves[i]),
			fmt.Sprintf("%.0f", score[i]),
		)
	}
	table.Render()
	fmt.Fprintf(w, "\nRolling means over the last %d games at each row.\n", window)
}

// PrintMatchDetail prints one match's full stat line.
func PrintMatchDetail(w io.Writer, m *model.Match) {
	wl := "loss"
	if m.Won {
		wl = "win"
	}
	fmt.Fprintf(w, "\nReplay: %s  |  Player: %s  |  Playlist: %s  |  Date: %s  |  Result: %s\n\n",
		m.ReplayID, m.Player, m.Playlist, m.PlayedAt.Format("2006-01-02 15:04"), wl)

	table := newTable(w)
	table.Header("STAT", "VALUE")
	values := m.Stats.Numeric()
	for _, name := range model.StatNames {
		table.Append(model.StatLabel(name), formatStat(name, values[name]))
	}
	table.Render()
}

// PrintPlayersTable lists tracked players.
func PrintPlayersTable(w io.Writer, players []model.Player) {
	table := newTable(w)
	table.Header("PLAYER", "PLATFORM", "MATCHES", "LAST FETCHED")

	for _, p := range players {
		platform := p.Platform
		if platform == "" {
			platform = "—"
		}
		fetched := "—"
		if !p.LastFetched.IsZero() {
			fetched = p.LastFetched.Format("2006-01-02 15:04")
		}
		table.Append(p.Name, platform, strconv.Itoa(p.Matches), fetched)
	}
	table.Render()
}

func formatStat(name string, v float64) string {
	if intStats[name] {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
