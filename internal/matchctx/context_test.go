package matchctx_test

import (
	"testing"

	"rankforge/internal/matchctx"
	"rankforge/internal/models"
)

func TestRememberSteamIDSkipsBots(t *testing.T) {
	c := matchctx.New()
	c.RememberSteamID(models.Player{SteamID: models.BotSteamID, Name: "Bob"})
	if _, ok := c.NameToSteamID["Bob"]; ok {
		t.Fatal("bot name should not be recorded in NameToSteamID")
	}

	c.RememberSteamID(models.Player{SteamID: "[U:1:111]", Name: "Alice"})
	if got := c.NameToSteamID["Alice"]; got != "[U:1:111]" {
		t.Fatalf("NameToSteamID[Alice] = %q, want [U:1:111]", got)
	}
}

func TestResetClearsAllPendingState(t *testing.T) {
	c := matchctx.New()
	c.CurrentGame = &models.Game{}
	c.CurrentRoundStart = &models.RoundStart{}
	c.PendingRoundStarts = append(c.PendingRoundStarts, &models.RoundStart{})
	c.PendingEvents = append(c.PendingEvents, &models.KillEvent{})
	c.PendingAccolades = append(c.PendingAccolades, &models.Accolade{})
	c.RoundCount = 3
	c.RememberSteamID(models.Player{SteamID: "[U:1:111]", Name: "Alice"})

	c.Reset()

	if c.CurrentGame != nil || c.CurrentRoundStart != nil {
		t.Fatal("expected current game/round to be nil after Reset")
	}
	if len(c.PendingRoundStarts) != 0 || len(c.PendingEvents) != 0 || len(c.PendingAccolades) != 0 {
		t.Fatal("expected all pending buffers to be empty after Reset")
	}
	if c.RoundCount != 0 {
		t.Fatalf("RoundCount = %d, want 0", c.RoundCount)
	}
	if len(c.NameToSteamID) != 0 {
		t.Fatal("expected NameToSteamID to be cleared after Reset")
	}
}
