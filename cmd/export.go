package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/model"
)

var (
	exportPlaylist string
	exportOut      string
	exportGzip     bool
	exportLimit    int
)

// exportDoc is the top-level JSON schema written by the export command.
type exportDoc struct {
	Player      string        `json:"player"`
	Playlist    string        `json:"playlist"`
	GeneratedAt string        `json:"generated_at"`
	Summary     exportSummary `json:"summary"`
	Matches     []exportMatch `json:"matches"`
}

// exportSummary carries the aggregate rollup so consumers do not have to
// recompute it from the match list.
type exportSummary struct {
	Games   int                `json:"games"`
	Wins    int                `json:"wins"`
	Losses  int                `json:"losses"`
	WinRate float64            `json:"win_rate"`
	Means   map[string]float64 `json:"means"`
}

// exportMatch flattens one stored match, newest first in the output.
type exportMatch struct {
	ReplayID            string  `json:"replay_id"`
	PlayedAt            string  `json:"played_at"`
	Playlist            string  `json:"playlist"`
	Won                 bool    `json:"won"`
	Goals               int     `json:"goals"`
	Assists             int     `json:"assists"`
	Saves               int     `json:"saves"`
	Shots               int     `json:"shots"`
	Score               int     `json:"score"`
	ShootingPct         float64 `json:"shooting_pct"`
	BoostPerMin         float64 `json:"boost_per_min"`
	BoostStolen         float64 `json:"boost_stolen"`
	BoostUsedSupersonic float64 `json:"boost_used_supersonic"`
	AvgSpeed            float64 `json:"avg_speed"`
	TimeSupersonic      float64 `json:"time_supersonic"`
	TimeDefensiveThird  float64 `json:"time_defensive_third"`
	TimeNeutralThird    float64 `json:"time_neutral_third"`
	TimeOffensiveThird  float64 `json:"time_offensive_third"`
}

var exportCmd = &cobra.Command{
	Use:   "export <player>",
	Short: "Export a player's stored matches as JSON",
	Long: `Writes the player's stored matches as a JSON document, for spreadsheets
or external analysis tools.

Examples:
  rlcoach export Squishy --out squishy.json
  rlcoach export Squishy --playlist 2v2 --gzip --out squishy.json.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportPlaylist, "playlist", "", "restrict to one playlist (1v1, 2v2, 3v3, other)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
	exportCmd.Flags().BoolVar(&exportGzip, "gzip", false, "gzip-compress the output")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "only export the N most recent matches (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	player := args[0]
	playlist := model.ParsePlaylist(exportPlaylist)

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches(player, playlist, exportLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches stored for %s", player)
	}

	sum := aggregator.Summarize(player, playlist, matches, cfg.RecentWindow)
	means := make(map[string]float64, len(sum.Stats))
	for name, st := range sum.Stats {
		means[name] = st.Mean
	}

	doc := exportDoc{
		Player:      player,
		Playlist:    playlist.String(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary: exportSummary{
			Games:   sum.Matches,
			Wins:    sum.Wins,
			Losses:  sum.Losses,
			WinRate: sum.WinRate(),
			Means:   means,
		},
		Matches: make([]exportMatch, 0, len(matches)),
	}
	for _, m := range matches {
		doc.Matches = append(doc.Matches, exportMatch{
			ReplayID:            m.ReplayID,
			PlayedAt:            m.PlayedAt.UTC().Format(time.RFC3339),
			Playlist:            m.Playlist.String(),
			Won:                 m.Won,
			Goals:               m.Stats.Goals,
			Assists:             m.Stats.Assists,
			Saves:               m.Stats.Saves,
			Shots:               m.Stats.Shots,
			Score:               m.Stats.Score,
			ShootingPct:         m.Stats.ShootingPct,
			BoostPerMin:         m.Stats.BoostPerMin,
			BoostStolen:         m.Stats.BoostStolen,
			BoostUsedSupersonic: m.Stats.BoostUsedSupersonic,
			AvgSpeed:            m.Stats.AvgSpeed,
			TimeSupersonic:      m.Stats.TimeSupersonic,
			TimeDefensiveThird:  m.Stats.TimeDefensiveThird,
			TimeNeutralThird:    m.Stats.TimeNeutralThird,
			TimeOffensiveThird:  m.Stats.TimeOffensiveThird,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	var out io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	if exportGzip {
		gz := gzip.NewWriter(out)
		if _, err := gz.Write(data); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("close gzip: %w", err)
		}
	} else if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d matches to %s\n", len(doc.Matches), exportOut)
	}
	return nil
}
