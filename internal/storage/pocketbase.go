package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"rankforge/internal/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// PBDriver is the PocketBase-backed Driver. Collections follow the
// single-table-per-concern layout from daniel-le97-sandstorm-tracker's
// migrations, with the GameEvent hierarchy collapsed into one
// "game_events" collection carrying a type discriminator and a JSON data
// payload -- the pattern internal/reference/simplified_event_architecture.go
// sketches for replacing a class hierarchy with PocketBase records.
type PBDriver struct {
	app core.App
}

// New wraps a PocketBase app as a storage.Driver.
func New(app core.App) *PBDriver {
	return &PBDriver{app: app}
}

func (d *PBDriver) FindGameEvent(eventType models.EventType, ts time.Time) (bool, error) {
	records, err := d.app.FindRecordsByFilter(
		"game_events",
		"type = {:type} && timestamp = {:ts}",
		"",
		1,
		0,
		dbx.Params{"type": string(eventType), "ts": ts},
	)
	if err != nil {
		return false, fmt.Errorf("storage: find game event: %w", err)
	}
	return len(records) > 0, nil
}

func (d *PBDriver) RunInTransaction(fn func(tx Tx) error) error {
	return d.app.RunInTransaction(func(txApp core.App) error {
		return fn(&pbTx{app: txApp})
	})
}

type pbTx struct {
	app core.App
}

func (t *pbTx) InsertGame(g *models.Game) (string, error) {
	collection, err := t.app.FindCollectionByNameOrId("games")
	if err != nil {
		return "", fmt.Errorf("storage: games collection: %w", err)
	}
	record := core.NewRecord(collection)
	record.Set("map", g.Map)
	record.Set("mode", g.Mode)
	record.Set("team1_score", g.Team1Score)
	record.Set("team2_score", g.Team2Score)
	record.Set("duration_minutes", g.DurationMinutes)
	record.Set("start_time", g.StartTime)
	record.Set("end_time", g.EndTime)
	if err := t.app.Save(record); err != nil {
		return "", fmt.Errorf("storage: insert game: %w", err)
	}
	return record.Id, nil
}

func (t *pbTx) InsertRoundStart(rs *models.RoundStart) (string, error) {
	collection, err := t.app.FindCollectionByNameOrId("round_starts")
	if err != nil {
		return "", fmt.Errorf("storage: round_starts collection: %w", err)
	}
	record := core.NewRecord(collection)
	record.Set("game", rs.GameID)
	record.Set("timestamp", rs.Timestamp)
	record.Set("round_number", rs.RoundNumber)
	if err := t.app.Save(record); err != nil {
		return "", fmt.Errorf("storage: insert round_start: %w", err)
	}
	return record.Id, nil
}

func (t *pbTx) InsertEvent(gameID, roundStartID string, eventType models.EventType, ts time.Time, data map[string]any) (string, error) {
	collection, err := t.app.FindCollectionByNameOrId("game_events")
	if err != nil {
		return "", fmt.Errorf("storage: game_events collection: %w", err)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("storage: marshal event data: %w", err)
	}
	record := core.NewRecord(collection)
	record.Set("game", gameID)
	record.Set("round_start", roundStartID)
	record.Set("type", string(eventType))
	record.Set("timestamp", ts)
	record.Set("data", string(payload))
	if err := t.app.Save(record); err != nil {
		return "", fmt.Errorf("storage: insert event %s: %w", eventType, err)
	}
	return record.Id, nil
}

func (t *pbTx) InsertAccolade(a *models.Accolade) (string, error) {
	collection, err := t.app.FindCollectionByNameOrId("accolades")
	if err != nil {
		return "", fmt.Errorf("storage: accolades collection: %w", err)
	}
	record := core.NewRecord(collection)
	record.Set("game", a.GameID)
	record.Set("type", a.Type)
	record.Set("player_name", a.PlayerName)
	record.Set("session_index", a.SessionIndex)
	record.Set("steam_id", a.SteamID)
	record.Set("value", a.Value)
	record.Set("position", a.Position)
	record.Set("score", a.Score)
	if err := t.app.Save(record); err != nil {
		return "", fmt.Errorf("storage: insert accolade: %w", err)
	}
	return record.Id, nil
}

func (t *pbTx) UpsertPlayerStats(steamID string, mutate func(*models.PlayerStats)) error {
	collection, err := t.app.FindCollectionByNameOrId("players")
	if err != nil {
		return fmt.Errorf("storage: players collection: %w", err)
	}

	record, err := t.app.FindFirstRecordByFilter("players", "steam_id = {:id}", dbx.Params{"id": steamID})
	stats := &models.PlayerStats{SteamID: steamID}
	if err == nil {
		stats = recordToStats(record)
	} else {
		record = core.NewRecord(collection)
		record.Set("steam_id", steamID)
	}

	mutate(stats)
	statsToRecord(stats, record)

	if err := t.app.Save(record); err != nil {
		return fmt.Errorf("storage: upsert player stats for %s: %w", steamID, err)
	}
	return nil
}

func recordToStats(record *core.Record) *models.PlayerStats {
	return &models.PlayerStats{
		SteamID:      record.GetString("steam_id"),
		Name:         record.GetString("name"),
		Kills:        record.GetInt("kills"),
		Deaths:       record.GetInt("deaths"),
		Assists:      record.GetInt("assists"),
		HSKills:      record.GetInt("hs_kills"),
		RoundsPlayed: record.GetInt("rounds_played"),
		GamesPlayed:  record.GetInt("games_played"),
		Clutches:     record.GetInt("clutches"),
		Damage:       record.GetInt("damage"),
		Rank:         record.GetFloat("rank"),
	}
}

func statsToRecord(stats *models.PlayerStats, record *core.Record) {
	record.Set("name", stats.Name)
	record.Set("kills", stats.Kills)
	record.Set("deaths", stats.Deaths)
	record.Set("assists", stats.Assists)
	record.Set("hs_kills", stats.HSKills)
	record.Set("rounds_played", stats.RoundsPlayed)
	record.Set("games_played", stats.GamesPlayed)
	record.Set("clutches", stats.Clutches)
	record.Set("damage", stats.Damage)
	record.Set("rank", stats.Rank)
}
