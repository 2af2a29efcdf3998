package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/collector"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/storage"
)

// stubSource serves one page with one replay the player appears in.
type stubSource struct{}

func (stubSource) SearchReplays(ctx context.Context, q ballchasing.SearchQuery, cursor string) (*ballchasing.ReplayPage, error) {
	return &ballchasing.ReplayPage{
		List: []ballchasing.ReplaySummary{{ID: "web-r1", Date: "2025-04-01T18:00:00Z"}},
	}, nil
}

func (stubSource) GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error) {
	r := &ballchasing.Replay{
		ID:         id,
		Date:       "2025-04-01T18:00:00Z",
		PlaylistID: "ranked-doubles",
	}
	r.Blue.Players = []ballchasing.ReplayPlayer{{
		Name:  "Squishy",
		Stats: ballchasing.PlayerStats{Core: ballchasing.CoreStats{Goals: 2, Shots: 4, Score: 350}},
	}}
	r.Blue.Stats.Core.Goals = 3
	r.Orange.Stats.Core.Goals = 1
	return r, nil
}

// errSource fails every provider call with the same error.
type errSource struct{ err error }

func (s errSource) SearchReplays(ctx context.Context, q ballchasing.SearchQuery, cursor string) (*ballchasing.ReplayPage, error) {
	return nil, s.err
}

func (s errSource) GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error) {
	return nil, s.err
}

// emptySource knows no replays at all.
type emptySource struct{}

func (emptySource) SearchReplays(ctx context.Context, q ballchasing.SearchQuery, cursor string) (*ballchasing.ReplayPage, error) {
	return &ballchasing.ReplayPage{}, nil
}

func (emptySource) GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error) {
	return nil, ballchasing.ErrReplayNotFound
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seedMatches(t *testing.T, db *storage.DB, player string, n int) {
	t.Helper()
	if err := db.UpsertPlayer(player, "steam"); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	matches := make([]model.Match, 0, n)
	for i := 0; i < n; i++ {
		matches = append(matches, model.Match{
			ReplayID: fmt.Sprintf("seed-%02d", i),
			Player:   player,
			Playlist: model.PlaylistDoubles,
			PlayedAt: base.Add(time.Duration(i) * time.Hour),
			Won:      i%2 == 0,
			Stats:    model.Stats{Goals: 1 + i%3, Assists: 1, Saves: 2, Shots: 4, Score: 300 + 10*i},
		})
	}
	if err := db.UpsertMatches(matches); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	return newTestServerWith(t, stubSource{})
}

func newTestServerWith(t *testing.T, src collector.Source) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "web_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	col := collector.New(db, src, collector.DefaultConfig(), quiet())
	srv, err := New(db, col, Options{Logger: quiet()})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, db
}

func get(t *testing.T, srv *Server, path string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp, string(body)
}

func TestIndexListsPlayers(t *testing.T) {
	srv, db := newTestServer(t)
	seedMatches(t, db, "Squishy", 4)

	resp, body := get(t, srv, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Squishy") {
		t.Error("index missing the tracked player")
	}
	if !strings.Contains(body, "4 matches from 1 players") {
		t.Error("index missing the overview line")
	}
}

func TestPlayerPage(t *testing.T) {
	srv, db := newTestServer(t)
	seedMatches(t, db, "Squishy", 25)

	resp, body := get(t, srv, "/player/Squishy")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"Stat trends", "Goals", "LAST 10", "2v2", "charts/timeline"} {
		if !strings.Contains(body, want) {
			t.Errorf("player page missing %q", want)
		}
	}
	// 25 games with a window of 10 leaves a historical baseline, so the
	// improvement chart must be offered.
	if !strings.Contains(body, "charts/improvement") {
		t.Error("player page missing the improvement chart")
	}
}

func TestPlayerPageEmptyRecord(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv, "/player/Nobody")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "No matches stored") {
		t.Error("empty record page missing the hint")
	}
}

func TestChartRoutes(t *testing.T) {
	srv, db := newTestServer(t)
	seedMatches(t, db, "Squishy", 12)

	resp, body := get(t, srv, "/player/Squishy/charts/timeline")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "image/svg+xml") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(body, "<svg") {
		t.Errorf("body is not svg: %.40q", body)
	}

	if resp, _ := get(t, srv, "/player/Squishy/charts/pie"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown chart kind status = %d, want 404", resp.StatusCode)
	}
	if resp, _ := get(t, srv, "/player/Nobody/charts/timeline"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("chart without data status = %d, want 404", resp.StatusCode)
	}
}

func TestRefreshStoresAndRedirects(t *testing.T) {
	srv, db := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/player/Squishy/refresh", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST refresh: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.Contains(loc, "/player/Squishy") || !strings.Contains(loc, "fetched=1") {
		t.Errorf("redirect = %q", loc)
	}

	n, err := db.CountMatches("Squishy")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored matches = %d, want 1", n)
	}
}

func TestFetchFormRequiresName(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader("name="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFetchErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		src  collector.Source
		want int
	}{
		{"bad key", errSource{err: ballchasing.ErrAuth}, http.StatusBadGateway},
		{"unknown player", emptySource{}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServerWith(t, tc.src)

			req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader("name=Ghost"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			resp, err := srv.app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestFetchRateLimitRedirects(t *testing.T) {
	srv, _ := newTestServerWith(t, errSource{err: &ballchasing.RateLimitError{RetryAfter: 5 * time.Second}})

	req := httptest.NewRequest(http.MethodPost, "/player/Squishy/refresh", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	// Pages stored before the limit hit are worth showing, so the user lands
	// back on the player page with a notice instead of a bare 429.
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "limited=1") {
		t.Errorf("redirect = %q, want the rate-limit flag", loc)
	}
}

func TestCoachWithoutAdvisor(t *testing.T) {
	srv, db := newTestServer(t)
	seedMatches(t, db, "Squishy", 8)

	req := httptest.NewRequest(http.MethodPost, "/player/Squishy/coach", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "No Anthropic API key configured") {
		t.Error("coach page missing the no-key notice")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "rlcoach_replays_fetched_total") {
		t.Error("metrics output missing the fetch counter")
	}
}
