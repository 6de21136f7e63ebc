package rating_test

import (
	"math"
	"testing"

	"rankforge/internal/rating"
	"rankforge/internal/storage/storagetest"
)

func TestApplyUpdatesRankSequentially(t *testing.T) {
	fake := storagetest.New()
	e := rating.New()

	kills := []rating.Kill{
		{KillerSteamID: "A", VictimSteamID: "B"},
		{KillerSteamID: "A", VictimSteamID: "B", IsHeadshot: true},
	}
	deltas := map[string]rating.Delta{
		"A": {Name: "Alice", Kills: 2, RoundsPlayed: 2},
		"B": {Name: "Bob", Deaths: 2, RoundsPlayed: 2},
	}

	if err := e.Apply(fake, kills, deltas); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Both players start at R0=1000. First kill (K=32): expected=0.5,
	// winner +16, loser -16 -> A=1016, B=984. Second kill is a headshot
	// (K=64) off those same ranks.
	expectedA := 1000.0
	expectedB := 1000.0
	expected := 1 / (1 + math.Pow(10, (expectedB-expectedA)/400))
	expectedA += 32 * (1 - expected)
	expectedB -= 32 * (1 - expected)

	expected2 := 1 / (1 + math.Pow(10, (expectedB-expectedA)/400))
	expectedA += 64 * (1 - expected2)
	expectedB -= 64 * (1 - expected2)

	a := fake.Players["A"]
	b := fake.Players["B"]
	if a == nil || b == nil {
		t.Fatalf("expected both players to be persisted, got A=%v B=%v", a, b)
	}
	if math.Abs(a.Rank-expectedA) > 1e-9 {
		t.Errorf("A.Rank = %v, want %v", a.Rank, expectedA)
	}
	if math.Abs(b.Rank-expectedB) > 1e-9 {
		t.Errorf("B.Rank = %v, want %v", b.Rank, expectedB)
	}
	if a.Kills != 2 || a.GamesPlayed != 1 || a.RoundsPlayed != 2 {
		t.Errorf("A aggregate = %+v, want Kills=2 GamesPlayed=1 RoundsPlayed=2", a)
	}
	if b.Deaths != 2 || b.GamesPlayed != 1 {
		t.Errorf("B aggregate = %+v, want Deaths=2 GamesPlayed=1", b)
	}
	if a.Name != "Alice" || b.Name != "Bob" {
		t.Errorf("expected names to be set from deltas, got A=%q B=%q", a.Name, b.Name)
	}
}

func TestApplySkipsBots(t *testing.T) {
	fake := storagetest.New()
	e := rating.New()

	kills := []rating.Kill{{KillerSteamID: "A", VictimSteamID: ""}}
	deltas := map[string]rating.Delta{"A": {Kills: 1, RoundsPlayed: 1}}

	if err := e.Apply(fake, kills, deltas); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	a := fake.Players["A"]
	if a == nil {
		t.Fatal("expected player A to be persisted")
	}
	if a.Rank != 1000 {
		t.Fatalf("A.Rank = %v, want unchanged 1000 (kill against a bot doesn't affect Elo)", a.Rank)
	}
	if _, ok := fake.Players[""]; ok {
		t.Fatal("bot steam id should never be persisted")
	}
}

func TestApplyNoDeltasIsANoop(t *testing.T) {
	fake := storagetest.New()
	e := rating.New()
	if err := e.Apply(fake, nil, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(fake.Players) != 0 {
		t.Fatalf("expected no players persisted, got %d", len(fake.Players))
	}
}
