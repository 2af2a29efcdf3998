package collector

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/storage"
)

const testPlayer = "TestPlayer"

type fakeSource struct {
	mu        sync.Mutex
	pages     []*ballchasing.ReplayPage
	pageErr   map[int]error
	replays   map[string]*ballchasing.Replay
	detailErr map[string]error

	active  int
	overlap bool
}

func (f *fakeSource) SearchReplays(ctx context.Context, q ballchasing.SearchQuery, cursor string) (*ballchasing.ReplayPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(strings.TrimPrefix(cursor, "page:"))
	}
	if err := f.pageErr[idx]; err != nil {
		return nil, err
	}
	if idx >= len(f.pages) {
		return &ballchasing.ReplayPage{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeSource) GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error) {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	err := f.detailErr[id]
	r := f.replays[id]
	f.mu.Unlock()

	// Simulate network latency so overlapping runs would be caught.
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ballchasing.ErrReplayNotFound
	}
	return r, nil
}

func fakeReplay(id string, playedAt time.Time, won bool) *ballchasing.Replay {
	r := &ballchasing.Replay{
		ID:         id,
		Date:       playedAt.Format(time.RFC3339),
		PlaylistID: "ranked-doubles",
	}
	r.Blue.Players = []ballchasing.ReplayPlayer{{Name: testPlayer}}
	r.Blue.Players[0].Stats.Core.Goals = 2
	r.Blue.Players[0].Stats.Core.Shots = 4
	if won {
		r.Blue.Stats.Core.Goals = 3
		r.Orange.Stats.Core.Goals = 1
	} else {
		r.Blue.Stats.Core.Goals = 1
		r.Orange.Stats.Core.Goals = 3
	}
	return r
}

func summariesOf(replays ...*ballchasing.Replay) []ballchasing.ReplaySummary {
	out := make([]ballchasing.ReplaySummary, len(replays))
	for i, r := range replays {
		out[i] = ballchasing.ReplaySummary{ID: r.ID, Date: r.Date, PlaylistID: r.PlaylistID}
	}
	return out
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "collector_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFetchDedupes(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	replays := make([]*ballchasing.Replay, 5)
	for i := range replays {
		replays[i] = fakeReplay("r"+strconv.Itoa(i), base.Add(time.Duration(i)*time.Hour), i%2 == 0)
	}

	src := &fakeSource{
		pages:   []*ballchasing.ReplayPage{{List: summariesOf(replays...)}},
		replays: map[string]*ballchasing.Replay{},
	}
	for _, r := range replays {
		src.replays[r.ID] = r
	}

	// Two of the five are already stored from a previous run.
	if err := db.UpsertPlayer(testPlayer, ""); err != nil {
		t.Fatalf("UpsertPlayer: %v", err)
	}
	for _, id := range []string{"r1", "r3"} {
		m, _ := matchFor(src.replays[id], testPlayer)
		if err := db.UpsertMatch(m); err != nil {
			t.Fatalf("seed match: %v", err)
		}
	}

	c := New(db, src, DefaultConfig(), quietLogger())
	res, err := c.Fetch(context.Background(), Request{Player: testPlayer})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.New != 3 || res.Known != 2 || res.Fetched != 5 {
		t.Errorf("result = %+v, want New=3 Known=2 Fetched=5", res)
	}
	count, _ := db.CountMatches(testPlayer)
	if count != 5 {
		t.Errorf("store has %d matches, want the union of 5", count)
	}
}

func TestFetchRateLimitKeepsEarlierPages(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r0 := fakeReplay("p0", base, true)
	r1 := fakeReplay("p1", base.Add(time.Hour), false)

	src := &fakeSource{
		pages: []*ballchasing.ReplayPage{
			{List: summariesOf(r0, r1), Next: "page:1"},
		},
		pageErr: map[int]error{1: &ballchasing.RateLimitError{RetryAfter: 5 * time.Second}},
		replays: map[string]*ballchasing.Replay{"p0": r0, "p1": r1},
	}

	c := New(db, src, DefaultConfig(), quietLogger())
	res, err := c.Fetch(context.Background(), Request{Player: testPlayer})

	var rl *ballchasing.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError to surface, got %v", err)
	}
	if res.New != 2 {
		t.Errorf("res.New = %d, want first page persisted", res.New)
	}
	count, _ := db.CountMatches(testPlayer)
	if count != 2 {
		t.Errorf("store has %d matches, want 2 from the completed page", count)
	}
}

func TestFetchStopsAtMax(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var all []*ballchasing.Replay
	for i := 0; i < 6; i++ {
		all = append(all, fakeReplay("m"+strconv.Itoa(i), base.Add(time.Duration(i)*time.Hour), true))
	}

	src := &fakeSource{
		pages: []*ballchasing.ReplayPage{
			{List: summariesOf(all[:3]...), Next: "page:1"},
			{List: summariesOf(all[3:]...)},
		},
		replays: map[string]*ballchasing.Replay{},
	}
	for _, r := range all {
		src.replays[r.ID] = r
	}

	c := New(db, src, Config{PageSize: 3}, quietLogger())
	res, err := c.Fetch(context.Background(), Request{Player: testPlayer, Max: 4})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.Fetched != 4 || res.New != 4 {
		t.Errorf("result = %+v, want Fetched=4 New=4", res)
	}
	count, _ := db.CountMatches(testPlayer)
	if count != 4 {
		t.Errorf("store has %d matches, want 4", count)
	}
}

func TestFetchPlayerNotFound(t *testing.T) {
	db := openTestDB(t)

	src := &fakeSource{pages: []*ballchasing.ReplayPage{{}}}
	c := New(db, src, DefaultConfig(), quietLogger())

	_, err := c.Fetch(context.Background(), Request{Player: "ghost"})
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}

	// A name the provider has never seen must leave no trace: a registered
	// zero-match row would show up in player listings forever.
	players, err := db.ListPlayers()
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	for _, p := range players {
		if p.Name == "ghost" {
			t.Error("unknown player was registered despite the empty search")
		}
	}
}

func TestFetchSkipsRosterMiss(t *testing.T) {
	db := openTestDB(t)

	r := fakeReplay("other-game", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), true)
	r.Blue.Players[0].Name = "SomeoneElse"

	src := &fakeSource{
		pages:   []*ballchasing.ReplayPage{{List: summariesOf(r)}},
		replays: map[string]*ballchasing.Replay{"other-game": r},
	}

	c := New(db, src, DefaultConfig(), quietLogger())
	res, err := c.Fetch(context.Background(), Request{Player: testPlayer})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Skipped != 1 || res.New != 0 {
		t.Errorf("result = %+v, want Skipped=1 New=0", res)
	}
}

func TestFetchSerializesSamePlayer(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var replays []*ballchasing.Replay
	for i := 0; i < 3; i++ {
		replays = append(replays, fakeReplay("c"+strconv.Itoa(i), base.Add(time.Duration(i)*time.Hour), true))
	}
	src := &fakeSource{
		pages:   []*ballchasing.ReplayPage{{List: summariesOf(replays...)}},
		replays: map[string]*ballchasing.Replay{},
	}
	for _, r := range replays {
		src.replays[r.ID] = r
	}

	c := New(db, src, DefaultConfig(), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background(), Request{Player: testPlayer}); err != nil {
				t.Errorf("concurrent Fetch: %v", err)
			}
		}()
	}
	wg.Wait()

	if src.overlap {
		t.Error("fetches for the same player overlapped")
	}
	count, _ := db.CountMatches(testPlayer)
	if count != 3 {
		t.Errorf("store has %d matches, want 3", count)
	}
}

func TestPlaylistFromCode(t *testing.T) {
	cases := []struct {
		code, name string
		want       model.Playlist
	}{
		{"ranked-duels", "", model.PlaylistDuel},
		{"unranked-doubles", "", model.PlaylistDoubles},
		{"ranked-standard", "", model.PlaylistStandard},
		{"ranked-hoops", "", model.PlaylistOther},
		{"", "Ranked Doubles 2v2", model.PlaylistDoubles},
		{"", "", model.PlaylistOther},
	}
	for _, tc := range cases {
		if got := playlistFromCode(tc.code, tc.name); got != tc.want {
			t.Errorf("playlistFromCode(%q, %q) = %v, want %v", tc.code, tc.name, got, tc.want)
		}
	}
}
