package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-rl-coach/internal/model"
)

// UpsertPlayer ensures a player row exists, recording the platform when one
// was given. Existing platform values are never cleared by a later fetch
// that omitted the qualifier.
func (db *DB) UpsertPlayer(name, platform string) error {
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO players(name) VALUES (?)`, name); err != nil {
		return err
	}
	if platform == "" {
		return nil
	}
	_, err := db.conn.Exec(`UPDATE players SET platform = ? WHERE name = ?`, platform, name)
	return err
}

// TouchPlayer records the time of the last fully successful fetch.
func (db *DB) TouchPlayer(name string, at time.Time) error {
	_, err := db.conn.Exec(`UPDATE players SET last_fetched = ? WHERE name = ?`,
		at.UTC().Format(time.RFC3339), name)
	return err
}

// HasMatch returns true if a match with the given replay id is already stored.
func (db *DB) HasMatch(replayID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE replay_id = ?", replayID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertMatch inserts a match record. Uses INSERT OR REPLACE so a re-fetch of
// a replay the provider has since re-processed refreshes the stored stat line;
// repeated identical calls leave exactly one row.
func (db *DB) UpsertMatch(m model.Match) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO matches(
			replay_id, player_name, playlist, played_at, won,
			goals, assists, saves, shots, score,
			shooting_pct, boost_per_min, boost_stolen, boost_used_supersonic,
			avg_speed, time_supersonic,
			time_defensive_third, time_neutral_third, time_offensive_third
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ReplayID, m.Player, m.Playlist.String(),
		m.PlayedAt.UTC().Format(time.RFC3339), boolInt(m.Won),
		m.Stats.Goals, m.Stats.Assists, m.Stats.Saves, m.Stats.Shots, m.Stats.Score,
		m.Stats.ShootingPct, m.Stats.BoostPerMin, m.Stats.BoostStolen, m.Stats.BoostUsedSupersonic,
		m.Stats.AvgSpeed, m.Stats.TimeSupersonic,
		m.Stats.TimeDefensiveThird, m.Stats.TimeNeutralThird, m.Stats.TimeOffensiveThird,
	)
	return err
}

// UpsertMatches bulk-upserts match records in a transaction. Used by the
// collector to flush one page of fetched replays in a single write.
func (db *DB) UpsertMatches(matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(
			replay_id, player_name, playlist, played_at, won,
			goals, assists, saves, shots, score,
			shooting_pct, boost_per_min, boost_stolen, boost_used_supersonic,
			avg_speed, time_supersonic,
			time_defensive_third, time_neutral_third, time_offensive_third
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err = stmt.Exec(
			m.ReplayID, m.Player, m.Playlist.String(),
			m.PlayedAt.UTC().Format(time.RFC3339), boolInt(m.Won),
			m.Stats.Goals, m.Stats.Assists, m.Stats.Saves, m.Stats.Shots, m.Stats.Score,
			m.Stats.ShootingPct, m.Stats.BoostPerMin, m.Stats.BoostStolen, m.Stats.BoostUsedSupersonic,
			m.Stats.AvgSpeed, m.Stats.TimeSupersonic,
			m.Stats.TimeDefensiveThird, m.Stats.TimeNeutralThird, m.Stats.TimeOffensiveThird,
		)
		if err != nil {
			return fmt.Errorf("upsert match %s: %w", m.ReplayID, err)
		}
	}
	return tx.Commit()
}

// ListMatches returns a player's stored matches, optionally filtered by
// playlist and capped at limit (0 = all), ordered newest first. The replay id
// breaks timestamp ties so the order is fully deterministic. An unknown
// player yields an empty slice, not an error.
func (db *DB) ListMatches(player string, playlist model.Playlist, limit int) ([]model.Match, error) {
	query := `
		SELECT replay_id, player_name, playlist, played_at, won,
		       goals, assists, saves, shots, score,
		       shooting_pct, boost_per_min, boost_stolen, boost_used_supersonic,
		       avg_speed, time_supersonic,
		       time_defensive_third, time_neutral_third, time_offensive_third
		FROM matches WHERE player_name = ?`
	args := []interface{}{player}
	if playlist != model.PlaylistAny {
		query += ` AND playlist = ?`
		args = append(args, playlist.String())
	}
	query += ` ORDER BY played_at DESC, replay_id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var m model.Match
		var playlistStr, playedAt string
		var wonInt int
		if err := rows.Scan(
			&m.ReplayID, &m.Player, &playlistStr, &playedAt, &wonInt,
			&m.Stats.Goals, &m.Stats.Assists, &m.Stats.Saves, &m.Stats.Shots, &m.Stats.Score,
			&m.Stats.ShootingPct, &m.Stats.BoostPerMin, &m.Stats.BoostStolen, &m.Stats.BoostUsedSupersonic,
			&m.Stats.AvgSpeed, &m.Stats.TimeSupersonic,
			&m.Stats.TimeDefensiveThird, &m.Stats.TimeNeutralThird, &m.Stats.TimeOffensiveThird,
		); err != nil {
			return nil, err
		}
		m.Playlist = model.ParsePlaylist(playlistStr)
		m.Won = wonInt != 0
		m.PlayedAt, err = time.Parse(time.RFC3339, playedAt)
		if err != nil {
			return nil, fmt.Errorf("parse played_at for %s: %w", m.ReplayID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the first match whose replay id starts with the
// given prefix. Returns (nil, nil) when nothing matches.
func (db *DB) GetMatchByPrefix(prefix string) (*model.Match, error) {
	var m model.Match
	var playlistStr, playedAt string
	var wonInt int
	err := db.conn.QueryRow(`
		SELECT replay_id, player_name, playlist, played_at, won,
		       goals, assists, saves, shots, score,
		       shooting_pct, boost_per_min, boost_stolen, boost_used_supersonic,
		       avg_speed, time_supersonic,
		       time_defensive_third, time_neutral_third, time_offensive_third
		FROM matches WHERE replay_id LIKE ? LIMIT 1`, prefix+"%").
		Scan(
			&m.ReplayID, &m.Player, &playlistStr, &playedAt, &wonInt,
			&m.Stats.Goals, &m.Stats.Assists, &m.Stats.Saves, &m.Stats.Shots, &m.Stats.Score,
			&m.Stats.ShootingPct, &m.Stats.BoostPerMin, &m.Stats.BoostStolen, &m.Stats.BoostUsedSupersonic,
			&m.Stats.AvgSpeed, &m.Stats.TimeSupersonic,
			&m.Stats.TimeDefensiveThird, &m.Stats.TimeNeutralThird, &m.Stats.TimeOffensiveThird,
		)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Playlist = model.ParsePlaylist(playlistStr)
	m.Won = wonInt != 0
	m.PlayedAt, err = time.Parse(time.RFC3339, playedAt)
	if err != nil {
		return nil, fmt.Errorf("parse played_at for %s: %w", m.ReplayID, err)
	}
	return &m, nil
}

// ListPlayers returns all tracked players with their stored match counts,
// most recently fetched first.
func (db *DB) ListPlayers() ([]model.Player, error) {
	rows, err := db.conn.Query(`
		SELECT p.name, p.platform, p.last_fetched, COUNT(m.replay_id)
		FROM players p
		LEFT JOIN matches m ON m.player_name = p.name
		GROUP BY p.name
		ORDER BY p.last_fetched DESC, p.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		var lastFetched string
		if err := rows.Scan(&p.Name, &p.Platform, &lastFetched, &p.Matches); err != nil {
			return nil, err
		}
		if lastFetched != "" {
			p.LastFetched, err = time.Parse(time.RFC3339, lastFetched)
			if err != nil {
				return nil, fmt.Errorf("parse last_fetched for %s: %w", p.Name, err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountMatches returns the number of stored matches for a player.
func (db *DB) CountMatches(player string) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM matches WHERE player_name = ?`, player).Scan(&count)
	return count, err
}

// DeletePlayer removes a player and all their stored matches, without
// relying on the cascade being enabled on the connection. Returns the number
// of matches that were removed.
func (db *DB) DeletePlayer(name string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM matches WHERE player_name = ?`, name)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM players WHERE name = ?`, name); err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// Overview holds store-wide totals for the list command and the web index.
type Overview struct {
	Players  int
	Matches  int
	Earliest string // "YYYY-MM-DD", empty when no matches stored
	Latest   string
}

// GetOverview returns store-wide totals.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	err := db.conn.QueryRow(`
		SELECT (SELECT COUNT(1) FROM players),
		       COUNT(replay_id),
		       COALESCE(MIN(substr(played_at, 1, 10)), ''),
		       COALESCE(MAX(substr(played_at, 1, 10)), '')
		FROM matches`).
		Scan(&ov.Players, &ov.Matches, &ov.Earliest, &ov.Latest)
	return ov, err
}

// PlaylistCount is one row of the store-wide playlist distribution.
type PlaylistCount struct {
	Playlist string
	Matches  int
}

// GetPlaylistCounts returns match counts per playlist across the whole store.
func (db *DB) GetPlaylistCounts() ([]PlaylistCount, error) {
	rows, err := db.conn.Query(`
		SELECT playlist, COUNT(1) FROM matches
		GROUP BY playlist ORDER BY COUNT(1) DESC, playlist ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaylistCount
	for rows.Next() {
		var c PlaylistCount
		if err := rows.Scan(&c.Playlist, &c.Matches); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and stringifies every column, for the
// sql command.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
