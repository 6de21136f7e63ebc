package cs2log_test

import (
	"testing"

	"rankforge/internal/cs2log"
)

func TestKillMatchesHeadshotAndNonHeadshot(t *testing.T) {
	lines := []struct {
		name      string
		line      string
		headshot  bool
		shouldRun bool
	}{
		{
			name:      "plain kill",
			line:      `"Alice<2><[U:1:111]><CT>" [1 2 3] killed "Bob<3><[U:1:222]><TERRORIST>" [4 5 6] with "ak47"`,
			headshot:  false,
			shouldRun: true,
		},
		{
			name:      "headshot kill",
			line:      `"Alice<2><[U:1:111]><CT>" [1 2 3] killed "Bob<3><[U:1:222]><TERRORIST>" [4 5 6] with "ak47" (headshot)`,
			headshot:  true,
			shouldRun: true,
		},
		{
			name:      "bot victim",
			line:      `"Alice<2><[U:1:111]><CT>" [1 2 3] killed "Bob<3><BOT><TERRORIST>" [4 5 6] with "knife"`,
			shouldRun: true,
		},
	}

	for _, tc := range lines {
		t.Run(tc.name, func(t *testing.T) {
			m := cs2log.Kill.FindStringSubmatch(tc.line)
			if !tc.shouldRun {
				if m != nil {
					t.Fatalf("expected no match for %q", tc.line)
				}
				return
			}
			if m == nil {
				t.Fatalf("expected a match for %q", tc.line)
			}
			gotHeadshot := m[16] != ""
			if gotHeadshot != tc.headshot {
				t.Fatalf("headshot capture = %v, want %v", gotHeadshot, tc.headshot)
			}
		})
	}
}

func TestAssistDistinguishesFlash(t *testing.T) {
	regular := `"Alice<2><[U:1:111]><CT>" assisted killing "Bob<3><[U:1:222]><TERRORIST>"`
	flash := `"Alice<2><[U:1:111]><CT>" flash-assisted killing "Bob<3><[U:1:222]><TERRORIST>"`

	m := cs2log.Assist.FindStringSubmatch(regular)
	if m == nil || m[5] != "" {
		t.Fatalf("expected a regular-assist match with no flash marker, got %v", m)
	}

	m = cs2log.Assist.FindStringSubmatch(flash)
	if m == nil || m[5] == "" {
		t.Fatalf("expected a flash-assist match, got %v", m)
	}
}

func TestGameOverCapturesScoreAndDuration(t *testing.T) {
	line := "Game Over: competitive mg_active de_dust2 score 13:9 after 35 min"
	m := cs2log.GameOver.FindStringSubmatch(line)
	if m == nil {
		t.Fatalf("expected a match for %q", line)
	}
	if m[1] != "competitive" || m[2] != "de_dust2" || m[3] != "13" || m[4] != "9" || m[5] != "35" {
		t.Fatalf("unexpected captures: %v", m)
	}
}

func TestAccoladeCapturesSessionIndexAndScore(t *testing.T) {
	line := `ACCOLADE, FINAL: {ACCOLADE_MVP},   Alice<2>,   VALUE: 7.000000,   POS: 1,   SCORE: 42.500000`
	m := cs2log.Accolade.FindStringSubmatch(line)
	if m == nil {
		t.Fatalf("expected a match for %q", line)
	}
	if m[1] != "ACCOLADE_MVP" || m[2] != "Alice" || m[3] != "2" {
		t.Fatalf("unexpected type/name/session captures: %v", m)
	}
	if m[4] != "7.000000" || m[5] != "1" || m[6] != "42.500000" {
		t.Fatalf("unexpected value/position/score captures: %v", m)
	}
}

func TestBombPatterns(t *testing.T) {
	plant := `"Alice<2><[U:1:111]><CT>" triggered "Planted_The_Bomb"`
	defuse := `"Alice<2><[U:1:111]><CT>" triggered "Defused_The_Bomb"`
	explode := `World triggered "Target_Bombed"`

	if !cs2log.BombPlanted.MatchString(plant) {
		t.Fatalf("expected BombPlanted to match %q", plant)
	}
	if !cs2log.BombDefused.MatchString(defuse) {
		t.Fatalf("expected BombDefused to match %q", defuse)
	}
	if !cs2log.BombExploded.MatchString(explode) {
		t.Fatalf("expected BombExploded to match %q", explode)
	}
}

func TestRoundStartAndEnd(t *testing.T) {
	if !cs2log.RoundStart.MatchString(`World triggered "Round_Start"`) {
		t.Fatal("expected RoundStart to match")
	}
	if !cs2log.RoundEnd.MatchString(`World triggered "Round_End"`) {
		t.Fatal("expected RoundEnd to match")
	}
}
