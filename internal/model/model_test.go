package model

import "testing"

func TestParsePlaylistRoundTrip(t *testing.T) {
	for _, p := range Playlists {
		if got := ParsePlaylist(p.String()); got != p {
			t.Errorf("ParsePlaylist(%q) = %v, want %v", p.String(), got, p)
		}
	}
	if got := ParsePlaylist("hoops"); got != PlaylistOther {
		t.Errorf("unknown label should parse as other, got %v", got)
	}
	if got := ParsePlaylist(""); got != PlaylistAny {
		t.Errorf("empty label should parse as any, got %v", got)
	}
}

func TestNumericCoversStatNames(t *testing.T) {
	s := Stats{Goals: 2, Shots: 5, ShootingPct: 40, AvgSpeed: 1450.5}
	m := s.Numeric()
	if len(m) != len(StatNames) {
		t.Fatalf("Numeric() has %d entries, StatNames has %d", len(m), len(StatNames))
	}
	for _, name := range StatNames {
		if _, ok := m[name]; !ok {
			t.Errorf("Numeric() missing stat %q", name)
		}
	}
	if m["goals"] != 2 {
		t.Errorf("goals = %v, want 2", m["goals"])
	}
	if m["avg_speed"] != 1450.5 {
		t.Errorf("avg_speed = %v, want 1450.5", m["avg_speed"])
	}
}

func TestShotConversion(t *testing.T) {
	s := Stats{Goals: 1, Shots: 4}
	if got := s.ShotConversion(); got != 25 {
		t.Errorf("ShotConversion = %v, want 25", got)
	}
	zero := Stats{}
	if got := zero.ShotConversion(); got != 0 {
		t.Errorf("ShotConversion with no shots should be 0, got %v", got)
	}
}
