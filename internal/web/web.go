// Package web serves the dashboard: per-player stat trends, inline SVG
// charts, fetch-on-demand, and coaching advice over the stored matches.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pable/go-rl-coach/internal/aggregator"
	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/charts"
	"github.com/pable/go-rl-coach/internal/coach"
	"github.com/pable/go-rl-coach/internal/collector"
	"github.com/pable/go-rl-coach/internal/model"
	"github.com/pable/go-rl-coach/internal/storage"
)

//go:embed views
var viewsFS embed.FS

// fetchTimeout bounds one dashboard-triggered fetch run.
const fetchTimeout = 5 * time.Minute

type Options struct {
	Addr         string
	RecentWindow int
	// Advisor may be nil; the coach page then falls back to quick tips.
	Advisor *coach.Advisor
	Logger  *logrus.Logger
}

type Server struct {
	db      *storage.DB
	col     *collector.Collector
	advisor *coach.Advisor
	app     *fiber.App
	log     *logrus.Logger
	addr    string
	window  int
	// fetches collapses concurrent refreshes of the same player into one
	// provider run.
	fetches singleflight.Group
}

// New builds the dashboard server. col may be nil, which disables the
// fetch routes and leaves the dashboard read-only.
func New(db *storage.DB, col *collector.Collector, opts Options) (*Server, error) {
	s := &Server{
		db:      db,
		col:     col,
		advisor: opts.Advisor,
		log:     opts.Logger,
		addr:    opts.Addr,
		window:  opts.RecentWindow,
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	if s.addr == "" {
		s.addr = ":8080"
	}
	if s.window <= 0 {
		s.window = aggregator.DefaultRecentWindow
	}

	fsFS, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(fsFS), ".html")
	engine.AddFunc("FormatDate", formatDate)

	app := fiber.New(fiber.Config{
		Views:        engine,
		UnescapePath: true,
		ErrorHandler: s.handleError,
	})
	app.Get("/", s.handleIndex)
	app.Post("/fetch", s.handleFetchForm)
	app.Get("/player/:name", s.handlePlayer)
	app.Get("/player/:name/charts/:kind", s.handleChart)
	app.Post("/player/:name/refresh", s.handleRefresh)
	app.Post("/player/:name/coach", s.handleCoach)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.app = app
	return s, nil
}

// Serve blocks on the listener.
func (s *Server) Serve() error {
	s.log.WithField("addr", s.addr).Info("dashboard listening")
	return s.app.Listen(s.addr)
}

func (s *Server) handleIndex(ctx *fiber.Ctx) error {
	players, err := s.db.ListPlayers()
	if err != nil {
		return err
	}
	ov, err := s.db.GetOverview()
	if err != nil {
		return err
	}
	return ctx.Render("index", fiber.Map{
		"Title":    "rlcoach",
		"Players":  players,
		"Overview": ov,
	}, "layouts/main")
}

func (s *Server) handlePlayer(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	pl := model.ParsePlaylist(ctx.Query("playlist"))
	window := ctx.QueryInt("window", s.window)

	matches, err := s.db.ListMatches(name, pl, 0)
	if err != nil {
		return err
	}
	sum := aggregator.Summarize(name, pl, matches, window)

	data := fiber.Map{
		"Title":     name,
		"Name":      name,
		"Window":    window,
		"HasData":   len(matches) > 0,
		"Fetched":   ctx.Query("fetched"),
		"Limited":   ctx.Query("limited") == "1",
		"Playlists": playlistOptions(pl),
	}
	if len(matches) > 0 {
		_, hasCmp := aggregator.CompareEarlyRecent(matches, window)
		data["Games"] = sum.Matches
		data["Record"] = fmt.Sprintf("%dW/%dL", sum.Wins, sum.Losses)
		data["WinRate"] = fmt.Sprintf("%.1f%%", sum.WinRate())
		data["StatRows"] = statRows(&sum)
		data["PlaylistRows"] = playlistRows(aggregator.PlaylistBreakdown(matches))
		data["Tips"] = coach.QuickTips(&sum)
		data["HasComparison"] = hasCmp
		data["ChartQuery"] = chartQuery(ctx.Query("playlist"), window)
	}
	return ctx.Render("player", data, "layouts/main")
}

func (s *Server) handleChart(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	pl := model.ParsePlaylist(ctx.Query("playlist"))
	window := ctx.QueryInt("window", s.window)

	matches, err := s.db.ListMatches(name, pl, 0)
	if err != nil {
		return err
	}

	var svg string
	switch ctx.Params("kind") {
	case "timeline":
		svg = charts.Timeline(name, matches)
	case "playlists":
		svg = charts.PlaylistBars(name, aggregator.PlaylistBreakdown(matches))
	case "scores":
		svg = charts.ScoreHistogram(name, matches)
	case "improvement":
		if cmp, ok := aggregator.CompareEarlyRecent(matches, window); ok {
			svg = charts.ImprovementBars(name, cmp)
		}
	default:
		return fiber.ErrNotFound
	}
	if svg == "" {
		return fiber.ErrNotFound
	}
	ctx.Type("svg")
	return ctx.SendString(svg)
}

func (s *Server) handleRefresh(ctx *fiber.Ctx) error {
	return s.runFetch(ctx, ctx.Params("name"))
}

func (s *Server) handleFetchForm(ctx *fiber.Ctx) error {
	name := strings.TrimSpace(ctx.FormValue("name"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "player name is required")
	}
	return s.runFetch(ctx, name)
}

// runFetch pulls the player's history and redirects back to their page.
// Concurrent requests for the same player share one provider run.
func (s *Server) runFetch(ctx *fiber.Ctx, name string) error {
	if s.col == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "fetching is disabled: no ballchasing API key configured")
	}
	v, err, _ := s.fetches.Do(strings.ToLower(name), func() (interface{}, error) {
		// Detached from the request context: a shared flight must not
		// die with the first client's connection.
		fetchCtx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return s.col.Fetch(fetchCtx, collector.Request{Player: name})
	})
	res, _ := v.(collector.Result)

	target := fmt.Sprintf("/player/%s?fetched=%d", url.PathEscape(name), res.New)
	if err != nil {
		var rl *ballchasing.RateLimitError
		if errors.As(err, &rl) {
			// Earlier pages are already stored; surface that instead
			// of a bare 429.
			return ctx.Redirect(target + "&limited=1")
		}
		return err
	}
	return ctx.Redirect(target)
}

func (s *Server) handleCoach(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	pl := model.ParsePlaylist(ctx.FormValue("playlist"))

	matches, err := s.db.ListMatches(name, pl, 0)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no matches stored for %s", name))
	}

	sum := aggregator.Summarize(name, pl, matches, s.window)
	data := fiber.Map{
		"Title": "Coaching: " + name,
		"Name":  name,
		"Tips":  coach.QuickTips(&sum),
	}
	if s.advisor != nil {
		in := coach.Input{
			Summary:    &sum,
			Form:       aggregator.RecentForm(matches, s.window),
			Assessment: aggregator.Assess(matches),
			Playlists:  aggregator.PlaylistBreakdown(matches),
		}
		var sb strings.Builder
		if err := s.advisor.Stream(ctx.Context(), coach.BuildPrompt(in), &sb); err != nil {
			return err
		}
		data["Advice"] = sb.String()
	}
	return ctx.Render("coach", data, "layouts/main")
}

func (s *Server) handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	var rl *ballchasing.RateLimitError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, collector.ErrPlayerNotFound):
		code = fiber.StatusNotFound
	case errors.As(err, &rl):
		code = fiber.StatusTooManyRequests
	case errors.Is(err, ballchasing.ErrAuth), errors.Is(err, ballchasing.ErrTransient):
		code = fiber.StatusBadGateway
	}
	s.log.WithError(err).WithField("path", ctx.Path()).Warn("request failed")

	rerr := ctx.Status(code).Render("error", fiber.Map{
		"Title":   "Error",
		"Message": err.Error(),
	}, "layouts/main")
	if rerr != nil {
		return ctx.Status(code).SendString(err.Error())
	}
	return nil
}

type statRow struct {
	Label      string
	Mean       string
	Recent     string
	Historical string
	Trend      string
	TrendClass string
}

func statRows(sum *aggregator.Summary) []statRow {
	rows := make([]statRow, 0, len(model.StatNames))
	for _, name := range model.StatNames {
		st := sum.Stats[name]
		row := statRow{
			Label:      model.StatLabel(name),
			Mean:       fmt.Sprintf("%.2f", st.Mean),
			Recent:     fmt.Sprintf("%.2f", st.RecentMean),
			Historical: "—",
			Trend:      "—",
		}
		if st.HistoricalMean != nil {
			row.Historical = fmt.Sprintf("%.2f", *st.HistoricalMean)
			row.Trend = fmt.Sprintf("%+.2f", *st.TrendDelta)
			switch {
			case *st.TrendDelta > 0:
				row.TrendClass = "up"
			case *st.TrendDelta < 0:
				row.TrendClass = "down"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

type playlistRow struct {
	Playlist string
	Games    int
	WinRate  string
	AvgGoals string
	AvgSaves string
	AvgScore string
}

func playlistRows(stats []aggregator.PlaylistStats) []playlistRow {
	rows := make([]playlistRow, 0, len(stats))
	for _, ps := range stats {
		rows = append(rows, playlistRow{
			Playlist: ps.Playlist.String(),
			Games:    ps.Games,
			WinRate:  fmt.Sprintf("%.1f%%", ps.WinRate),
			AvgGoals: fmt.Sprintf("%.2f", ps.AvgGoals),
			AvgSaves: fmt.Sprintf("%.2f", ps.AvgSaves),
			AvgScore: fmt.Sprintf("%.0f", ps.AvgScore),
		})
	}
	return rows
}

type playlistOption struct {
	Value    string
	Label    string
	Selected bool
}

func playlistOptions(current model.Playlist) []playlistOption {
	opts := []playlistOption{{Value: "", Label: "all playlists", Selected: current == model.PlaylistAny}}
	for _, pl := range model.Playlists {
		opts = append(opts, playlistOption{
			Value:    pl.String(),
			Label:    pl.String(),
			Selected: pl == current,
		})
	}
	return opts
}

func chartQuery(playlist string, window int) string {
	q := url.Values{}
	if playlist != "" {
		q.Set("playlist", playlist)
	}
	q.Set("window", fmt.Sprint(window))
	return "?" + q.Encode()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}
