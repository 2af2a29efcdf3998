// Package charts renders player rollups as standalone SVG documents. The
// output is self-contained markup suitable for writing to disk or embedding
// in a dashboard page.
package charts

import (
	"fmt"
	"html"
	"strings"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
)

const (
	colorGoals   = "#1f77b4"
	colorAssists = "#ff7f0e"
	colorSaves   = "#2ca02c"
	colorLoss    = "#d62728"
	colorScore   = "#17a2b8"
)

// rollingWindow is the smoothing window for the timeline series.
const rollingWindow = 5

// Timeline renders rolling goals, assists, and saves per game as a line
// chart, oldest game on the left. Returns "" when there are no matches.
func Timeline(player string, matches []model.Match) string {
	if len(matches) == 0 {
		return ""
	}
	series := []struct {
		label  string
		color  string
		values []float64
	}{
		{"Goals", colorGoals, aggregator.Rolling(matches, "goals", rollingWindow)},
		{"Assists", colorAssists, aggregator.Rolling(matches, "assists", rollingWindow)},
		{"Saves", colorSaves, aggregator.Rolling(matches, "saves", rollingWindow)},
	}

	width, height, padding := 800, 400, 50
	maxY := 1.0
	for _, s := range series {
		if m := maxOf(s.values); m > maxY {
			maxY = m
		}
	}

	var sb strings.Builder
	openSVG(&sb, width, height)
	title(&sb, width, fmt.Sprintf("%s - Performance Trend (%d-Game Rolling Average)", player, rollingWindow))

	// Horizontal gridlines with axis values.
	for _, frac := range []float64{0, 0.5, 1} {
		v := maxY * frac
		y := yAt(v, maxY, height, padding)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#444" stroke-width="1" />`, padding, y, width-padding, y))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" fill="#aaa" font-family="Arial" font-size="10" text-anchor="end">%.1f</text>`, padding-6, y+3, v))
	}

	for _, s := range series {
		var pts strings.Builder
		for i, v := range s.values {
			pts.WriteString(fmt.Sprintf("%.1f,%.1f ", xAt(i, len(s.values), width, padding), yAt(v, maxY, height, padding)))
		}
		sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="2" points="%s" />`, s.color, strings.TrimSpace(pts.String())))
	}

	for i, s := range series {
		x := padding + i*110
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="45" width="12" height="12" fill="%s" />`, x, s.color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="56" fill="white" font-family="Arial" font-size="12">%s</text>`, x+18, s.label))
	}

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#aaa" font-family="Arial" font-size="12" text-anchor="middle">Game Number</text>`, width/2, height-12))
	sb.WriteString(`</svg>`)
	return sb.String()
}

// PlaylistBars renders win rate and average goals per playlist as two
// side-by-side bar panels. Returns "" when there is nothing to plot.
func PlaylistBars(player string, stats []aggregator.PlaylistStats) string {
	if len(stats) == 0 {
		return ""
	}
	width, height, padding := 800, 400, 50
	panelW := (width - 3*padding) / 2
	baseline := height - padding
	maxBarH := height - 2*padding - 60

	maxGoals := 1.0
	for _, ps := range stats {
		if ps.AvgGoals > maxGoals {
			maxGoals = ps.AvgGoals
		}
	}

	var sb strings.Builder
	openSVG(&sb, width, height)
	title(&sb, width, fmt.Sprintf("%s - Performance by Game Mode", player))

	panel := func(x0 int, subtitle, color string, value func(aggregator.PlaylistStats) float64, scale float64, format string) {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="70" fill="#ccc" font-family="Arial" font-size="14" text-anchor="middle">%s</text>`, x0+panelW/2, subtitle))
		barW := panelW / len(stats)
		for i, ps := range stats {
			v := value(ps)
			barH := int(v / scale * float64(maxBarH))
			if barH < 0 {
				barH = 0
			}
			x := x0 + i*barW
			y := baseline - barH
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="4" />`, x+5, y, barW-10, barH, color))
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="10" text-anchor="middle">`+format+`</text>`, x+barW/2, y-5, v))
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="middle">%s</text>`, x+barW/2, baseline+20, ps.Playlist))
		}
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, x0, baseline, x0+panelW, baseline))
	}

	panel(padding, "Win Rate by Mode", colorGoals, func(ps aggregator.PlaylistStats) float64 { return ps.WinRate }, 100, "%.1f%%")
	panel(2*padding+panelW, "Avg Goals by Mode", colorAssists, func(ps aggregator.PlaylistStats) float64 { return ps.AvgGoals }, maxGoals, "%.2f")

	sb.WriteString(`</svg>`)
	return sb.String()
}

// ScoreHistogram renders the distribution of single-game scores in 20 bins
// with the mean marked by a dashed line. Returns "" without matches.
func ScoreHistogram(player string, matches []model.Match) string {
	if len(matches) == 0 {
		return ""
	}
	lo, hi := matches[0].Stats.Score, matches[0].Stats.Score
	sum := 0
	for _, m := range matches {
		if m.Stats.Score < lo {
			lo = m.Stats.Score
		}
		if m.Stats.Score > hi {
			hi = m.Stats.Score
		}
		sum += m.Stats.Score
	}
	mean := float64(sum) / float64(len(matches))

	const bins = 20
	span := hi - lo
	if span == 0 {
		span = 1
	}
	counts := make([]int, bins)
	maxCount := 0
	for _, m := range matches {
		b := (m.Stats.Score - lo) * bins / (span + 1)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
		if counts[b] > maxCount {
			maxCount = counts[b]
		}
	}

	width, height, padding := 800, 400, 50
	baseline := height - padding
	maxBarH := height - 2*padding - 30
	barW := (width - 2*padding) / bins

	var sb strings.Builder
	openSVG(&sb, width, height)
	title(&sb, width, fmt.Sprintf("%s - Score Distribution", player))

	for i, c := range counts {
		if c == 0 {
			continue
		}
		barH := c * maxBarH / maxCount
		x := padding + i*barW
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="2" />`, x+2, baseline-barH, barW-4, barH, colorScore))
	}

	// Mean marker.
	meanX := float64(padding) + (mean-float64(lo))/float64(span)*float64(width-2*padding)
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-width="2" stroke-dasharray="6,4" />`, meanX, padding+20, meanX, baseline, colorLoss))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" fill="%s" font-family="Arial" font-size="12" text-anchor="middle">Average: %.0f</text>`, meanX, padding+12, colorLoss, mean))

	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, padding, baseline, width-padding, baseline))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#aaa" font-family="Arial" font-size="10" text-anchor="start">%d</text>`, padding, baseline+18, lo))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#aaa" font-family="Arial" font-size="10" text-anchor="end">%d</text>`, width-padding, baseline+18, hi))
	sb.WriteString(`</svg>`)
	return sb.String()
}

// ImprovementBars renders the stat changes between a player's first and most
// recent games, green above the axis for gains and red below for losses.
func ImprovementBars(player string, cmp aggregator.Comparison) string {
	metrics := []struct {
		label string
		value float64
	}{
		{"Goals", cmp.Delta.AvgGoals},
		{"Assists", cmp.Delta.AvgAssists},
		{"Saves", cmp.Delta.AvgSaves},
		{"Score/100", cmp.Delta.AvgScore / 100},
		{"Win Rate", cmp.Delta.WinRate},
	}

	maxAbs := 1.0
	for _, m := range metrics {
		if a := abs(m.value); a > maxAbs {
			maxAbs = a
		}
	}

	width, height, padding := 800, 400, 50
	mid := height / 2
	halfH := float64(height/2 - padding - 20)
	barW := (width - 2*padding) / len(metrics)

	var sb strings.Builder
	openSVG(&sb, width, height)
	title(&sb, width, fmt.Sprintf("%s - First %d vs Last %d Games", player, cmp.N, cmp.N))

	for i, m := range metrics {
		barH := abs(m.value) / maxAbs * halfH
		color := colorSaves
		y := float64(mid) - barH
		if m.value < 0 {
			color = colorLoss
			y = float64(mid)
		}
		x := padding + i*barW
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%d" height="%.1f" fill="%s" rx="4" />`, x+10, y, barW-20, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="middle">%s</text>`, x+barW/2, height-padding+20, m.label))
		ty := y - 6
		if m.value < 0 {
			ty = y + barH + 14
		}
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" fill="white" font-family="Arial" font-size="10" text-anchor="middle">%+.2f</text>`, x+barW/2, ty, m.value))
	}

	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, padding, mid, width-padding, mid))
	sb.WriteString(`</svg>`)
	return sb.String()
}

func openSVG(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height, width, height))
	sb.WriteString(`<rect width="100%" height="100%" fill="#1a1a1a" />`)
}

// title centers the chart heading. The text carries the raw player name, so
// XML-special characters must be escaped to keep the document well formed.
func title(sb *strings.Builder, width int, text string) {
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" fill="white" font-family="Arial" font-size="20" text-anchor="middle">%s</text>`, width/2, html.EscapeString(text)))
}

func xAt(i, n, width, padding int) float64 {
	if n <= 1 {
		return float64(padding)
	}
	return float64(padding) + float64(i)*float64(width-2*padding)/float64(n-1)
}

func yAt(v, maxY float64, height, padding int) float64 {
	return float64(height-padding) - v/maxY*float64(height-2*padding-40)
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
