package models

import "time"

// Game is the match record every other entity in a commit batch hangs off
// of. ID is empty until the storage driver assigns one on insert.
type Game struct {
	ID              string
	Map             string
	Mode            string
	Team1Score      int
	Team2Score      int
	DurationMinutes int
	StartTime       time.Time
	EndTime         time.Time
}

// RoundStart marks the beginning of one round of a Game. RoundNumber is
// 1-based and assigned by the event processor in emission order.
type RoundStart struct {
	ID          string
	Game        *Game
	GameID      string
	Timestamp   time.Time
	RoundNumber int
}

// RoundEnd closes out the RoundStart with the same round number. Survivors
// is empty when the round ended on the final ACCOLADE block rather than a
// JSON score table (see the compound parse in the parser package).
type RoundEnd struct {
	ID              string
	Game            *Game
	GameID          string
	RoundStart      *RoundStart
	RoundStartID    string
	Timestamp       time.Time
	SurvivingPlayers []string
}
