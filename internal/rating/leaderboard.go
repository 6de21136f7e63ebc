package rating

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// TopPlayer is one row of a rank leaderboard.
type TopPlayer struct {
	SteamID string
	Name    string
	Rank    float64
}

// TopWeapon is one row of a per-player weapon leaderboard.
type TopWeapon struct {
	Weapon string
	Kills  int
}

// Leaderboard answers the read-only rank/weapon queries neither the event
// processor nor Engine.Apply needs: top players by rank, a player's numeric
// position among all tracked players, and a player's most-used weapons by
// kill count. It is a thin wrapper over the raw SQL core.App.DB() exposes,
// grounded on the teacher's internal/database/stats.go (GetPlayerRank,
// GetTopPlayersByScorePerMin, GetTopWeapons), adapted from that schema's
// match_player_stats/match_weapon_stats tables to this system's single
// players table and the JSON kill payloads already sitting in game_events.
type Leaderboard struct {
	app core.App
}

// NewLeaderboard wraps a PocketBase app for leaderboard queries.
func NewLeaderboard(app core.App) *Leaderboard {
	return &Leaderboard{app: app}
}

// TopPlayers returns the top limit players ordered by rank, descending.
func (l *Leaderboard) TopPlayers(limit int) ([]TopPlayer, error) {
	type row struct {
		SteamID string  `db:"steam_id"`
		Name    string  `db:"name"`
		Rank    float64 `db:"rank"`
	}
	var rows []row
	err := l.app.DB().
		NewQuery(`SELECT steam_id, name, rank FROM players ORDER BY rank DESC LIMIT {:limit}`).
		Bind(dbx.Params{"limit": limit}).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("rating: top players: %w", err)
	}

	out := make([]TopPlayer, len(rows))
	for i, r := range rows {
		out[i] = TopPlayer{SteamID: r.SteamID, Name: r.Name, Rank: r.Rank}
	}
	return out, nil
}

// PlayerRank returns steamID's 1-based position among all tracked players
// ordered by rank, descending, and the total number of tracked players.
func (l *Leaderboard) PlayerRank(steamID string) (rank int, totalPlayers int, err error) {
	type rankRow struct {
		Rank         int `db:"rank"`
		TotalPlayers int `db:"total_players"`
	}
	var r rankRow
	err = l.app.DB().
		NewQuery(`
			SELECT
				(SELECT COUNT(*) + 1 FROM players WHERE rank > (SELECT rank FROM players WHERE steam_id = {:id})) as rank,
				(SELECT COUNT(*) FROM players) as total_players
		`).
		Bind(dbx.Params{"id": steamID}).
		One(&r)
	if err != nil {
		return 0, 0, fmt.Errorf("rating: player rank for %s: %w", steamID, err)
	}
	return r.Rank, r.TotalPlayers, nil
}

// TopWeapons returns steamID's top limit weapons by kill count, aggregated
// from the kill events recorded against this steam id as killer.
func (l *Leaderboard) TopWeapons(steamID string, limit int) ([]TopWeapon, error) {
	type weaponRow struct {
		Weapon string `db:"weapon"`
		Kills  int    `db:"kills"`
	}
	var rows []weaponRow
	err := l.app.DB().
		NewQuery(`
			SELECT json_extract(data, '$.weapon') as weapon, COUNT(*) as kills
			FROM game_events
			WHERE type = 'kill' AND json_extract(data, '$.killer_steam_id') = {:id}
			GROUP BY weapon
			ORDER BY kills DESC
			LIMIT {:limit}
		`).
		Bind(dbx.Params{"id": steamID, "limit": limit}).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("rating: top weapons for %s: %w", steamID, err)
	}

	out := make([]TopWeapon, len(rows))
	for i, r := range rows {
		out[i] = TopWeapon{Weapon: r.Weapon, Kills: r.Kills}
	}
	return out, nil
}
