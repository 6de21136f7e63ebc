package processor_test

import (
	"testing"
	"time"

	"rankforge/internal/models"
	"rankforge/internal/processor"
	"rankforge/internal/rating"
	"rankforge/internal/storage/storagetest"
)

func at(seconds int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, seconds, 0, time.UTC)
}

func TestHandleCommitsAFullMatchInOrder(t *testing.T) {
	fake := storagetest.New()
	p := processor.New(fake, rating.New())

	msgs := []models.Message{
		models.GameOverMsg{
			Meta:            models.Meta{Time: at(100), Type: models.EventGameOver},
			Map:             "de_dust2",
			Mode:            "competitive",
			Team1Score:      1,
			Team2Score:      0,
			DurationMinutes: 10,
		},
		models.RoundStartMsg{Meta: models.Meta{Time: at(0), Type: models.EventRoundStart}},
		models.KillMsg{
			Meta:       models.Meta{Time: at(10), Type: models.EventKill},
			Killer:     models.Player{SteamID: "[U:1:111]", Name: "Alice"},
			Victim:     models.Player{SteamID: "[U:1:222]", Name: "Bob"},
			Weapon:     "ak47",
			IsHeadshot: true,
		},
		models.RoundEndMsg{Meta: models.Meta{Time: at(20), Type: models.EventRoundEnd}, SurvivingPlayers: []string{"Alice"}},
		models.GameProcessedMsg{Meta: models.Meta{Time: at(100), Type: models.EventGameProcessed}},
	}

	for _, m := range msgs {
		if err := p.Handle(m); err != nil {
			t.Fatalf("Handle(%T): %v", m, err)
		}
	}

	if len(fake.Games) != 1 {
		t.Fatalf("expected 1 game inserted, got %d", len(fake.Games))
	}
	if len(fake.RoundStarts) != 1 {
		t.Fatalf("expected 1 round_start inserted, got %d", len(fake.RoundStarts))
	}
	if fake.RoundStarts[0].GameID != fake.Games[0].ID {
		t.Fatalf("round_start.GameID = %q, want %q", fake.RoundStarts[0].GameID, fake.Games[0].ID)
	}

	var sawKill, sawRoundEnd, sawGameOver, sawGameProcessed bool
	for _, e := range fake.Events {
		if e.GameID != fake.Games[0].ID {
			t.Fatalf("event %s has GameID %q, want %q", e.Type, e.GameID, fake.Games[0].ID)
		}
		switch e.Type {
		case models.EventKill:
			sawKill = true
			if e.RoundStartID != fake.RoundStarts[0].ID {
				t.Fatalf("kill event RoundStartID = %q, want %q", e.RoundStartID, fake.RoundStarts[0].ID)
			}
			if e.Data["killer_steam_id"] != "[U:1:111]" || e.Data["is_headshot"] != true {
				t.Fatalf("unexpected kill event data: %+v", e.Data)
			}
		case models.EventRoundEnd:
			sawRoundEnd = true
		case models.EventGameOver:
			sawGameOver = true
		case models.EventGameProcessed:
			sawGameProcessed = true
		}
	}
	if !sawKill || !sawRoundEnd || !sawGameOver || !sawGameProcessed {
		t.Fatalf("missing expected event types, got %+v", fake.Events)
	}

	alice := fake.Players["[U:1:111]"]
	bob := fake.Players["[U:1:222]"]
	if alice == nil || alice.Kills != 1 || alice.GamesPlayed != 1 {
		t.Fatalf("unexpected Alice stats: %+v", alice)
	}
	if bob == nil || bob.Deaths != 1 {
		t.Fatalf("unexpected Bob stats: %+v", bob)
	}
}

func TestAccoladeResolvesThroughNameToSteamID(t *testing.T) {
	fake := storagetest.New()
	p := processor.New(fake, nil)

	msgs := []models.Message{
		models.AccoladeMsg{
			Meta:         models.Meta{Time: at(90), Type: models.EventAccolade},
			AccoladeType: "ACCOLADE_MVP",
			PlayerName:   "Alice",
			SessionIndex: 2,
			Value:        7,
			Position:     1,
			Score:        42.5,
		},
		models.GameOverMsg{
			Meta:       models.Meta{Time: at(100), Type: models.EventGameOver},
			Map:        "de_dust2",
			Mode:       "competitive",
			Team1Score: 1,
		},
		models.RoundStartMsg{Meta: models.Meta{Time: at(0), Type: models.EventRoundStart}},
		models.KillMsg{
			Meta:   models.Meta{Time: at(10), Type: models.EventKill},
			Killer: models.Player{SteamID: "[U:1:111]", Name: "Alice"},
			Victim: models.Player{SteamID: "[U:1:222]", Name: "Bob"},
			Weapon: "ak47",
		},
		models.GameProcessedMsg{Meta: models.Meta{Time: at(100), Type: models.EventGameProcessed}},
	}

	for _, m := range msgs {
		if err := p.Handle(m); err != nil {
			t.Fatalf("Handle(%T): %v", m, err)
		}
	}

	if len(fake.Accolades) != 1 {
		t.Fatalf("expected 1 accolade, got %d", len(fake.Accolades))
	}
	a := fake.Accolades[0]
	if a.SteamID != "[U:1:111]" {
		t.Fatalf("accolade SteamID = %q, want resolved [U:1:111]", a.SteamID)
	}
	if a.PlayerName != "Alice" {
		t.Fatalf("accolade PlayerName = %q, want unchanged Alice", a.PlayerName)
	}
	if a.GameID != fake.Games[0].ID {
		t.Fatalf("accolade GameID = %q, want %q", a.GameID, fake.Games[0].ID)
	}
}

func TestAccoladeFallsBackToSessionIndexWhenUnresolved(t *testing.T) {
	fake := storagetest.New()
	p := processor.New(fake, nil)

	msgs := []models.Message{
		models.AccoladeMsg{
			Meta:         models.Meta{Time: at(90), Type: models.EventAccolade},
			AccoladeType: "ACCOLADE_MVP",
			PlayerName:   "Ghost",
			SessionIndex: 5,
		},
		models.GameOverMsg{Meta: models.Meta{Time: at(100), Type: models.EventGameOver}, Map: "de_dust2"},
		models.GameProcessedMsg{Meta: models.Meta{Time: at(100), Type: models.EventGameProcessed}},
	}
	for _, m := range msgs {
		if err := p.Handle(m); err != nil {
			t.Fatalf("Handle(%T): %v", m, err)
		}
	}

	if len(fake.Accolades) != 1 {
		t.Fatalf("expected 1 accolade, got %d", len(fake.Accolades))
	}
	want := "Ghost<5>"
	if fake.Accolades[0].PlayerName != want {
		t.Fatalf("PlayerName = %q, want fallback %q", fake.Accolades[0].PlayerName, want)
	}
	if fake.Accolades[0].SteamID != "" {
		t.Fatalf("expected empty SteamID for an unresolved player, got %q", fake.Accolades[0].SteamID)
	}
}

func TestCommitResetsContextOnMissingGame(t *testing.T) {
	fake := storagetest.New()
	p := processor.New(fake, nil)

	err := p.Handle(models.GameProcessedMsg{Meta: models.Meta{Time: at(0), Type: models.EventGameProcessed}})
	if err == nil {
		t.Fatal("expected an error committing with no current game")
	}

	// Context must have been reset even on failure: a follow-up match
	// starts clean.
	if err := p.Handle(models.GameOverMsg{Meta: models.Meta{Time: at(1), Type: models.EventGameOver}, Map: "de_dust2"}); err != nil {
		t.Fatalf("Handle after reset: %v", err)
	}
	if err := p.Handle(models.GameProcessedMsg{Meta: models.Meta{Time: at(1), Type: models.EventGameProcessed}}); err != nil {
		t.Fatalf("Handle GameProcessed: %v", err)
	}
	if len(fake.Games) != 1 {
		t.Fatalf("expected exactly 1 game committed after recovery, got %d", len(fake.Games))
	}
}
