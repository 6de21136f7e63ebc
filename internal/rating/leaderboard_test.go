package rating_test

import (
	"testing"
	"time"

	"rankforge/internal/models"
	"rankforge/internal/rating"
	"rankforge/internal/storage"

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

func seedPlayer(t *testing.T, driver storage.Driver, steamID, name string, rank float64) {
	t.Helper()
	err := driver.RunInTransaction(func(tx storage.Tx) error {
		return tx.UpsertPlayerStats(steamID, func(s *models.PlayerStats) {
			s.Name = name
			s.Rank = rank
		})
	})
	if err != nil {
		t.Fatalf("seed player %s: %v", steamID, err)
	}
}

func TestTopPlayersOrdersByRankDescending(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	seedPlayer(t, driver, "[U:1:111]", "Alice", 1200)
	seedPlayer(t, driver, "[U:1:222]", "Bob", 1500)
	seedPlayer(t, driver, "[U:1:333]", "Carol", 900)

	board := rating.NewLeaderboard(app)
	top, err := board.TopPlayers(2)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].SteamID != "[U:1:222]" || top[1].SteamID != "[U:1:111]" {
		t.Errorf("got order %v, %v; want Bob then Alice", top[0].SteamID, top[1].SteamID)
	}
}

func TestPlayerRankReflectsPositionAmongAllTrackedPlayers(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	seedPlayer(t, driver, "[U:1:111]", "Alice", 1200)
	seedPlayer(t, driver, "[U:1:222]", "Bob", 1500)
	seedPlayer(t, driver, "[U:1:333]", "Carol", 900)

	board := rating.NewLeaderboard(app)
	rank, total, err := board.PlayerRank("[U:1:111]")
	if err != nil {
		t.Fatalf("PlayerRank: %v", err)
	}
	if rank != 2 {
		t.Errorf("rank = %d, want 2 (behind Bob, ahead of Carol)", rank)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestTopWeaponsCountsKillEventsByWeapon(t *testing.T) {
	app := testApp(t)
	driver := storage.New(app)

	var gameID string
	err := driver.RunInTransaction(func(tx storage.Tx) error {
		id, err := tx.InsertGame(&models.Game{Map: "de_dust2"})
		if err != nil {
			return err
		}
		gameID = id
		rs, err := tx.InsertRoundStart(&models.RoundStart{GameID: gameID, RoundNumber: 1})
		if err != nil {
			return err
		}
		base := time.Now()
		for i, weapon := range []string{"ak47", "ak47", "m4a1", "knife"} {
			ts := base.Add(time.Duration(i) * time.Second)
			if _, err := tx.InsertEvent(gameID, rs, models.EventKill, ts, map[string]any{
				"killer_steam_id": "[U:1:111]",
				"weapon":          weapon,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	board := rating.NewLeaderboard(app)
	top, err := board.TopWeapons("[U:1:111]", 2)
	if err != nil {
		t.Fatalf("TopWeapons: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].Weapon != "ak47" || top[0].Kills != 2 {
		t.Errorf("top weapon = %+v, want ak47 with 2 kills", top[0])
	}
}
