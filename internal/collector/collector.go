// Package collector drives the fetch pipeline: search the replay provider
// for a player's matches, pull the per-replay stat lines, and upsert them
// into the local store.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/storage"
)

// ErrPlayerNotFound means the provider has no replays at all for the
// requested player name.
var ErrPlayerNotFound = errors.New("collector: no replays found for player")

// Source is the slice of the ballchasing client the collector consumes.
type Source interface {
	SearchReplays(ctx context.Context, q ballchasing.SearchQuery, cursor string) (*ballchasing.ReplayPage, error)
	GetReplay(ctx context.Context, id string) (*ballchasing.Replay, error)
}

// Config tunes a collector.
type Config struct {
	// PageSize is the number of replays requested per search page.
	PageSize int
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{PageSize: 50}
}

// Request identifies whose history to fetch and how much of it.
type Request struct {
	// Player is the display name to search for and the key matches are
	// stored under.
	Player string
	// PlayerID optionally pins the search to a platform identity in the
	// provider's "platform:id" form.
	PlayerID string
	// Playlist optionally restricts the search to one provider playlist
	// code, e.g. "ranked-doubles".
	Playlist string
	// Max caps how many replays are examined; 0 means run to the
	// provider's end of history.
	Max int
}

// Result summarizes one fetch run. It is populated even when Fetch returns
// an error, so callers can report partial progress.
type Result struct {
	Fetched int // replays examined from the provider
	New     int // replays inserted for the first time
	Known   int // replays already present, not re-fetched
	Skipped int // replays the player did not actually appear in
}

// Collector owns fetch runs against one store. Concurrent runs for the same
// player are serialized; runs for distinct players proceed in parallel.
type Collector struct {
	store  *storage.DB
	source Source
	cfg    Config
	log    *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a collector writing to store and reading from source.
func New(store *storage.DB, source Source, cfg Config, log *logrus.Logger) *Collector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Collector{
		store:  store,
		source: source,
		cfg:    cfg,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-player mutex, creating it on first use. Player
// names are case-folded so "Squishy" and "squishy" share a lock.
func (c *Collector) lockFor(player string) *sync.Mutex {
	key := strings.ToLower(player)
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	return m
}

// Fetch pages through the provider's replay listing for the requested player
// and upserts every stat line not already in the store. Replays are buffered
// per page and written in one transaction after the page's network calls
// finish, so the store is never held open across a network wait. On error the
// returned Result still reflects everything persisted so far; re-running the
// same fetch resumes cleanly because upserts are idempotent.
func (c *Collector) Fetch(ctx context.Context, req Request) (Result, error) {
	var res Result
	if req.Player == "" {
		return res, errors.New("collector: player name required")
	}

	lock := c.lockFor(req.Player)
	lock.Lock()
	defer lock.Unlock()

	q := ballchasing.SearchQuery{
		PlayerName: req.Player,
		PlayerID:   req.PlayerID,
		Playlist:   req.Playlist,
		Count:      c.cfg.PageSize,
	}

	cursor := ""
	page := 0
	for {
		listing, err := c.source.SearchReplays(ctx, q, cursor)
		if err != nil {
			fetchErrors.Inc()
			return res, fmt.Errorf("search replays: %w", err)
		}
		page++
		if res.Fetched == 0 && len(listing.List) == 0 {
			return res, fmt.Errorf("%w: %q", ErrPlayerNotFound, req.Player)
		}
		// Register the player only once the provider has confirmed the name,
		// so a typo does not leave a permanent empty row behind.
		if page == 1 {
			if err := c.store.UpsertPlayer(req.Player, platformOf(req.PlayerID)); err != nil {
				return res, fmt.Errorf("register player: %w", err)
			}
		}

		batch, stopErr, capped := c.collectPage(ctx, req, listing.List, &res)
		if len(batch) > 0 {
			if err := c.store.UpsertMatches(batch); err != nil {
				fetchErrors.Inc()
				return res, fmt.Errorf("store page %d: %w", page, err)
			}
			res.New += len(batch)
			replaysStored.Add(float64(len(batch)))
		}
		c.log.WithFields(logrus.Fields{
			"player": req.Player,
			"page":   page,
			"new":    res.New,
			"known":  res.Known,
		}).Debug("page done")

		if stopErr != nil {
			fetchErrors.Inc()
			return res, stopErr
		}
		if capped || listing.Next == "" {
			break
		}
		cursor = listing.Next
	}

	if err := c.store.TouchPlayer(req.Player, time.Now().UTC()); err != nil {
		return res, fmt.Errorf("touch player: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"player":  req.Player,
		"fetched": res.Fetched,
		"new":     res.New,
		"known":   res.Known,
		"skipped": res.Skipped,
	}).Info("fetch complete")
	return res, nil
}

// collectPage walks one page of search results and returns the batch of
// matches to store. A non-nil stopErr aborts the run after the batch is
// flushed; capped means the request's Max was reached.
func (c *Collector) collectPage(ctx context.Context, req Request, list []ballchasing.ReplaySummary, res *Result) (batch []model.Match, stopErr error, capped bool) {
	for _, sum := range list {
		if req.Max > 0 && res.Fetched >= req.Max {
			return batch, nil, true
		}
		res.Fetched++
		replaysFetched.Inc()

		known, err := c.store.HasMatch(sum.ID)
		if err != nil {
			return batch, fmt.Errorf("check replay %s: %w", sum.ID, err), false
		}
		if known {
			res.Known++
			continue
		}

		replay, err := c.source.GetReplay(ctx, sum.ID)
		if errors.Is(err, ballchasing.ErrReplayNotFound) {
			// Listed but gone by the time we asked for details.
			res.Skipped++
			continue
		}
		if err != nil {
			return batch, fmt.Errorf("replay %s: %w", sum.ID, err), false
		}

		m, ok := matchFor(replay, req.Player)
		if !ok {
			res.Skipped++
			continue
		}
		c.log.WithFields(logrus.Fields{
			"replay":    m.ReplayID,
			"played_at": m.PlayedAt.Format("2006-01-02"),
			"playlist":  m.Playlist.String(),
		}).Debug("replay fetched")
		batch = append(batch, m)
	}
	return batch, nil, false
}

// matchFor maps a processed replay onto a match row for the named player.
// It returns false when the player is not on either roster or the replay
// carries no usable date.
func matchFor(r *ballchasing.Replay, player string) (model.Match, bool) {
	p, team, ok := r.PlayerByName(player)
	if !ok {
		return model.Match{}, false
	}
	playedAt, ok := parseReplayDate(r.Date)
	if !ok {
		return model.Match{}, false
	}

	stats := model.Stats{
		Goals:   p.Stats.Core.Goals,
		Assists: p.Stats.Core.Assists,
		Saves:   p.Stats.Core.Saves,
		Shots:   p.Stats.Core.Shots,
		Score:   p.Stats.Core.Score,

		ShootingPct:         p.Stats.Core.ShootingPercentage,
		BoostPerMin:         p.Stats.Boost.BCPM,
		BoostStolen:         p.Stats.Boost.Stolen,
		BoostUsedSupersonic: p.Stats.Boost.UsedWhileSupersonic,

		AvgSpeed:       p.Stats.Movement.AvgSpeed,
		TimeSupersonic: p.Stats.Movement.TimeSupersonicSpeed,

		TimeDefensiveThird: p.Stats.Positioning.TimeDefensiveThird,
		TimeNeutralThird:   p.Stats.Positioning.TimeNeutralThird,
		TimeOffensiveThird: p.Stats.Positioning.TimeOffensiveThird,
	}
	if stats.ShootingPct == 0 {
		stats.ShootingPct = stats.ShotConversion()
	}

	return model.Match{
		ReplayID: r.ID,
		Player:   player,
		Playlist: playlistFromCode(r.PlaylistID, r.PlaylistName),
		PlayedAt: playedAt.UTC(),
		Won:      r.Won(team),
		Stats:    stats,
	}, true
}

// parseReplayDate accepts the provider's date field, which is RFC 3339 for
// recent replays but lacks a zone offset on some older ones.
func parseReplayDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// playlistFromCode maps a provider playlist code ("ranked-doubles",
// "unranked-duels", ...) onto the local enum. Older replays without a code
// fall back to the display name.
func playlistFromCode(code, name string) model.Playlist {
	s := strings.ToLower(code)
	if s == "" {
		s = strings.ToLower(name)
	}
	switch {
	case strings.Contains(s, "duel"):
		return model.PlaylistDuel
	case strings.Contains(s, "doubles"):
		return model.PlaylistDoubles
	case strings.Contains(s, "standard"):
		return model.PlaylistStandard
	default:
		return model.PlaylistOther
	}
}

func platformOf(playerID string) string {
	if i := strings.IndexByte(playerID, ':'); i > 0 {
		return playerID[:i]
	}
	return ""
}
