// Package ballchasing provides a minimal client for the ballchasing.com
// replay API.
package ballchasing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// baseURL is the root endpoint for the ballchasing.com API.
const baseURL = "https://ballchasing.com/api"

const (
	// maxPageCount is the largest page size the API accepts.
	maxPageCount = 200
	// requestGap spaces successive requests to stay inside the API's
	// steady-state rate allowance.
	requestGap = 500 * time.Millisecond
	// maxRetries is how many times a transient failure is retried before
	// being returned to the caller.
	maxRetries = 3
	// defaultTimeout bounds one HTTP request when the caller passes no
	// positive timeout of its own.
	defaultTimeout = 30 * time.Second
)

var (
	// ErrAuth means the API rejected the key (HTTP 401 or 403).
	ErrAuth = errors.New("ballchasing: invalid or missing API key")
	// ErrReplayNotFound means the requested replay id does not exist.
	ErrReplayNotFound = errors.New("ballchasing: replay not found")
	// ErrTransient wraps upstream failures (5xx, transport errors) that are
	// worth retrying. The client already retried before returning it.
	ErrTransient = errors.New("ballchasing: transient upstream failure")
)

// RateLimitError reports an HTTP 429 along with how long the server asked us
// to back off. The client surfaces it immediately rather than sleeping so the
// caller can decide whether waiting is worth it.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ballchasing: rate limited, retry after %s", e.RetryAfter)
}

// Client is a minimal ballchasing.com API client.
type Client struct {
	apiKey  string
	base    string
	http    *http.Client
	gap     time.Duration
	backoff time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient returns a ballchasing API client authenticated with the given
// API key. Every request times out after the given duration; non-positive
// values fall back to defaultTimeout.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		base:    baseURL,
		http:    &http.Client{Timeout: timeout},
		gap:     requestGap,
		backoff: time.Second,
	}
}

// SearchQuery narrows a replay search.
type SearchQuery struct {
	// PlayerName matches replays containing a player with this display name.
	PlayerName string
	// PlayerID optionally pins the search to a platform identity in the
	// API's "platform:id" form, e.g. "steam:76561198140693621".
	PlayerID string
	// Playlist optionally restricts results to one API playlist code,
	// e.g. "ranked-doubles".
	Playlist string
	// Count is the page size; values above 200 are clamped to the API max.
	Count int
}

func (q SearchQuery) values() url.Values {
	count := q.Count
	if count <= 0 {
		count = 50
	}
	if count > maxPageCount {
		count = maxPageCount
	}
	v := url.Values{}
	v.Set("player-name", q.PlayerName)
	v.Set("count", strconv.Itoa(count))
	v.Set("sort-by", "replay-date")
	v.Set("sort-dir", "desc")
	if q.PlayerID != "" {
		v.Set("player-id", q.PlayerID)
	}
	if q.Playlist != "" {
		v.Set("playlist", q.Playlist)
	}
	return v
}

// ReplaySummary is one entry from the replay search listing.
type ReplaySummary struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Duration     int    `json:"duration"`
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
}

// ReplayPage is one page of search results. Next holds the URL of the
// following page and is empty on the last one.
type ReplayPage struct {
	List []ReplaySummary `json:"list"`
	Next string          `json:"next"`
}

// CoreStats is the API's stats.core group for a player or team.
type CoreStats struct {
	Goals              int     `json:"goals"`
	Assists            int     `json:"assists"`
	Saves              int     `json:"saves"`
	Shots              int     `json:"shots"`
	Score              int     `json:"score"`
	ShootingPercentage float64 `json:"shooting_percentage"`
}

// BoostStats is the API's stats.boost group.
type BoostStats struct {
	BCPM                float64 `json:"bcpm"`
	Stolen              float64 `json:"stolen"`
	UsedWhileSupersonic float64 `json:"used_while_supersonic"`
}

// MovementStats is the API's stats.movement group.
type MovementStats struct {
	AvgSpeed            float64 `json:"avg_speed"`
	TimeSupersonicSpeed float64 `json:"time_supersonic_speed"`
}

// PositioningStats is the API's stats.positioning group, in seconds.
type PositioningStats struct {
	TimeDefensiveThird float64 `json:"time_defensive_third"`
	TimeNeutralThird   float64 `json:"time_neutral_third"`
	TimeOffensiveThird float64 `json:"time_offensive_third"`
}

// PlayerStats bundles the per-player stat groups we consume.
type PlayerStats struct {
	Core        CoreStats        `json:"core"`
	Boost       BoostStats       `json:"boost"`
	Movement    MovementStats    `json:"movement"`
	Positioning PositioningStats `json:"positioning"`
}

// ReplayPlayer is one participant in a processed replay.
type ReplayPlayer struct {
	Name  string      `json:"name"`
	Stats PlayerStats `json:"stats"`
}

// Team is one side of a replay with its roster and aggregate stats.
type Team struct {
	Players []ReplayPlayer `json:"players"`
	Stats   struct {
		Core CoreStats `json:"core"`
	} `json:"stats"`
}

// Replay is the full processed-replay payload for a single game.
type Replay struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Duration     int    `json:"duration"`
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Blue         Team   `json:"blue"`
	Orange       Team   `json:"orange"`
}

// PlayerByName finds the named player on either team, matching display names
// case-insensitively. The second return is the team color, "blue" or "orange".
func (r *Replay) PlayerByName(name string) (*ReplayPlayer, string, bool) {
	for i := range r.Blue.Players {
		if strings.EqualFold(r.Blue.Players[i].Name, name) {
			return &r.Blue.Players[i], "blue", true
		}
	}
	for i := range r.Orange.Players {
		if strings.EqualFold(r.Orange.Players[i].Name, name) {
			return &r.Orange.Players[i], "orange", true
		}
	}
	return nil, "", false
}

// Won reports whether the given team outscored the other.
func (r *Replay) Won(team string) bool {
	if team == "blue" {
		return r.Blue.Stats.Core.Goals > r.Orange.Stats.Core.Goals
	}
	return r.Orange.Stats.Core.Goals > r.Blue.Stats.Core.Goals
}

// SearchReplays fetches one page of replays matching the query, most recent
// first. Pass a previous page's Next URL as cursor to resume; empty cursor
// starts from the top.
func (c *Client) SearchReplays(ctx context.Context, q SearchQuery, cursor string) (*ReplayPage, error) {
	u := cursor
	if u == "" {
		u = c.base + "/replays?" + q.values().Encode()
	}
	var page ReplayPage
	if err := c.get(ctx, u, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetReplay returns the detailed stats payload for a single replay.
func (c *Client) GetReplay(ctx context.Context, id string) (*Replay, error) {
	var r Replay
	if err := c.get(ctx, c.base+"/replays/"+id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// get performs an authenticated GET against the API and JSON-decodes the
// response body into out. Transient failures are retried with a linear
// backoff; every other error maps straight onto the package's error types.
func (c *Client) get(ctx context.Context, u string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		err := c.getOnce(ctx, u, out)
		if err == nil || attempt == maxRetries || !errors.Is(err, ErrTransient) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}
}

func (c *Client) getOnce(ctx context.Context, u string, out interface{}) error {
	c.throttle()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	// The API expects the bare key, no "Bearer" prefix.
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return ErrReplayNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrTransient, resp.StatusCode)
	default:
		return fmt.Errorf("GET %s: HTTP %d", u, resp.StatusCode)
	}
}

// throttle spaces requests at least one requestGap apart across goroutines.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := c.gap - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 10 * time.Second
}
