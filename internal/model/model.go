package model

import "time"

// Playlist is the competitive format a match was played in.
type Playlist int

const (
	// PlaylistAny is the zero value; in query filters it matches every playlist.
	// Stored matches always carry one of the concrete values below.
	PlaylistAny Playlist = iota
	PlaylistDuel
	PlaylistDoubles
	PlaylistStandard
	PlaylistOther
)

func (p Playlist) String() string {
	switch p {
	case PlaylistDuel:
		return "1v1"
	case PlaylistDoubles:
		return "2v2"
	case PlaylistStandard:
		return "3v3"
	case PlaylistOther:
		return "other"
	default:
		return "any"
	}
}

// ParsePlaylist maps a playlist label (stored form or common aliases) to its
// enum value. Empty input means no filter.
func ParsePlaylist(s string) Playlist {
	switch s {
	case "1v1", "duel", "duels":
		return PlaylistDuel
	case "2v2", "doubles":
		return PlaylistDoubles
	case "3v3", "standard":
		return PlaylistStandard
	case "", "any", "all":
		return PlaylistAny
	default:
		return PlaylistOther
	}
}

// Playlists lists the concrete playlist values in display order.
var Playlists = []Playlist{PlaylistDuel, PlaylistDoubles, PlaylistStandard, PlaylistOther}

// Stats is one player's stat line for a single match, as computed by the
// replay provider. Percentages are on a 0-100 scale and times are in seconds.
type Stats struct {
	Goals   int
	Assists int
	Saves   int
	Shots   int
	Score   int

	ShootingPct         float64 // goals / shots * 100, provider-computed
	BoostPerMin         float64 // boost collected per minute
	BoostStolen         float64 // boost pads stolen from the opponent half
	BoostUsedSupersonic float64 // boost burned while already at max speed

	AvgSpeed       float64
	TimeSupersonic float64

	// Seconds spent in each third of the pitch.
	TimeDefensiveThird float64
	TimeNeutralThird   float64
	TimeOffensiveThird float64
}

// ShotConversion returns goals per shot as a percentage, computed locally.
// Used as a fallback when the provider omits shooting_percentage.
func (s *Stats) ShotConversion() float64 {
	if s.Shots == 0 {
		return 0
	}
	return float64(s.Goals) / float64(s.Shots) * 100
}

// StatNames is the canonical set and render order of per-match stats. Every
// numeric rollup (summaries, trends, exports, charts) walks this slice so
// output ordering never depends on map iteration.
var StatNames = []string{
	"goals",
	"assists",
	"saves",
	"shots",
	"score",
	"shooting_pct",
	"boost_per_min",
	"boost_stolen",
	"boost_used_supersonic",
	"avg_speed",
	"time_supersonic",
	"time_defensive_third",
	"time_neutral_third",
	"time_offensive_third",
}

var statLabels = map[string]string{
	"goals":                 "Goals",
	"assists":               "Assists",
	"saves":                 "Saves",
	"shots":                 "Shots",
	"score":                 "Score",
	"shooting_pct":          "Shooting %",
	"boost_per_min":         "Boost/min",
	"boost_stolen":          "Boost Stolen",
	"boost_used_supersonic": "Boost @ Supersonic",
	"avg_speed":             "Avg Speed",
	"time_supersonic":       "Supersonic (s)",
	"time_defensive_third":  "Def. Third (s)",
	"time_neutral_third":    "Mid Third (s)",
	"time_offensive_third":  "Off. Third (s)",
}

// StatLabel returns the human-readable label for a canonical stat name.
func StatLabel(name string) string {
	if l, ok := statLabels[name]; ok {
		return l
	}
	return name
}

// Numeric flattens the stat line into a map keyed by StatNames entries.
func (s *Stats) Numeric() map[string]float64 {
	return map[string]float64{
		"goals":                 float64(s.Goals),
		"assists":               float64(s.Assists),
		"saves":                 float64(s.Saves),
		"shots":                 float64(s.Shots),
		"score":                 float64(s.Score),
		"shooting_pct":          s.ShootingPct,
		"boost_per_min":         s.BoostPerMin,
		"boost_stolen":          s.BoostStolen,
		"boost_used_supersonic": s.BoostUsedSupersonic,
		"avg_speed":             s.AvgSpeed,
		"time_supersonic":       s.TimeSupersonic,
		"time_defensive_third":  s.TimeDefensiveThird,
		"time_neutral_third":    s.TimeNeutralThird,
		"time_offensive_third":  s.TimeOffensiveThird,
	}
}

// Match is one completed game's stat line for one player, keyed by the
// provider-assigned replay id. The replay id is globally unique in the store;
// re-fetching the same replay must never create a second row.
type Match struct {
	ReplayID string
	Player   string
	Playlist Playlist
	PlayedAt time.Time
	Won      bool
	Stats    Stats
}

// Player is a tracked player row, with match count populated on list queries.
type Player struct {
	Name        string
	Platform    string
	LastFetched time.Time // zero when the player has never been fetched
	Matches     int
}
