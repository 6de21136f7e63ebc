package storage_test

import (
	"testing"
	"time"

	"rankforge/internal/models"
	"rankforge/internal/storage"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tests"

	_ "rankforge/migrations"
)

func testApp(t *testing.T) *tests.TestApp {
	t.Helper()
	app, err := tests.NewTestApp()
	if err != nil {
		t.Fatalf("tests.NewTestApp: %v", err)
	}
	t.Cleanup(app.Cleanup)
	return app
}

func TestAutomigrateCreatesRankForgeCollections(t *testing.T) {
	app := testApp(t)
	for _, name := range []string{"games", "round_starts", "game_events", "accolades", "players"} {
		if _, err := app.FindCollectionByNameOrId(name); err != nil {
			t.Errorf("collection %q not found after automigrate: %v", name, err)
		}
	}
}

func TestInsertGameAndRoundStartAndPatchedEvent(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	game := &models.Game{
		Map:             "de_dust2",
		Mode:            "competitive",
		Team1Score:      16,
		Team2Score:      10,
		DurationMinutes: 42,
		StartTime:       time.Now().Add(-42 * time.Minute),
		EndTime:         time.Now(),
	}

	var gameID, roundStartID string
	err := driver.RunInTransaction(func(tx storage.Tx) error {
		id, err := tx.InsertGame(game)
		if err != nil {
			return err
		}
		gameID = id

		rs := &models.RoundStart{GameID: gameID, Timestamp: game.StartTime, RoundNumber: 1}
		roundStartID, err = tx.InsertRoundStart(rs)
		if err != nil {
			return err
		}

		ts := game.StartTime.Add(10 * time.Second)
		_, err = tx.InsertEvent(gameID, roundStartID, models.EventKill, ts, map[string]any{
			"killer_steam_id": "[U:1:111]",
			"weapon":          "ak47",
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if gameID == "" || roundStartID == "" {
		t.Fatal("expected both a game id and a round_start id to be assigned")
	}

	found, err := driver.FindGameEvent(models.EventKill, game.StartTime.Add(10*time.Second))
	if err != nil {
		t.Fatalf("FindGameEvent: %v", err)
	}
	if !found {
		t.Fatal("expected the just-inserted kill event to be found")
	}

	missing, err := driver.FindGameEvent(models.EventKill, game.StartTime.Add(99*time.Second))
	if err != nil {
		t.Fatalf("FindGameEvent: %v", err)
	}
	if missing {
		t.Fatal("expected no match for a timestamp nothing was inserted at")
	}
}

func TestUpsertPlayerStatsAccumulatesAcrossCalls(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	err := driver.RunInTransaction(func(tx storage.Tx) error {
		if err := tx.UpsertPlayerStats("[U:1:111]", func(s *models.PlayerStats) {
			s.Name = "Alice"
			s.Kills++
			s.Rank = 1016
		}); err != nil {
			return err
		}
		return tx.UpsertPlayerStats("[U:1:111]", func(s *models.PlayerStats) {
			s.Kills++
			s.Rank = 1030
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	record, err := app.FindFirstRecordByFilter("players", "steam_id = {:id}", dbx.Params{"id": "[U:1:111]"})
	if err != nil {
		t.Fatalf("FindFirstRecordByFilter: %v", err)
	}
	if record.GetInt("kills") != 2 {
		t.Errorf("kills = %d, want 2", record.GetInt("kills"))
	}
	if record.GetString("name") != "Alice" {
		t.Errorf("name = %q, want Alice (preserved across the second upsert)", record.GetString("name"))
	}
	if record.GetFloat("rank") != 1030 {
		t.Errorf("rank = %v, want 1030", record.GetFloat("rank"))
	}
}

func TestInsertAccoladeRoundTripsSessionIndex(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	var gameID string
	err := driver.RunInTransaction(func(tx storage.Tx) error {
		id, err := tx.InsertGame(&models.Game{Map: "de_dust2"})
		if err != nil {
			return err
		}
		gameID = id
		_, err = tx.InsertAccolade(&models.Accolade{
			GameID:       gameID,
			Type:         "ACCOLADE_MVP",
			PlayerName:   "Ghost<5>",
			SessionIndex: 5,
			Value:        7,
			Position:     1,
			Score:        42.5,
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	record, err := app.FindFirstRecordByFilter("accolades", "game = {:g}", dbx.Params{"g": gameID})
	if err != nil {
		t.Fatalf("FindFirstRecordByFilter: %v", err)
	}
	if record.GetInt("session_index") != 5 {
		t.Errorf("session_index = %d, want 5", record.GetInt("session_index"))
	}
	if record.GetString("player_name") != "Ghost<5>" {
		t.Errorf("player_name = %q, want Ghost<5>", record.GetString("player_name"))
	}
}
