package models

import "time"

// AssistType distinguishes a regular kill assist from a flash assist.
type AssistType string

const (
	AssistRegular AssistType = "regular"
	AssistFlash   AssistType = "flash"
)

// BombEventType enumerates the bomb-related actions the log reports.
type BombEventType string

const (
	BombPlant   BombEventType = "plant"
	BombDefuse  BombEventType = "defuse"
	BombExplode BombEventType = "explode"
)

// Coordinates is a nullable [X Y Z] position. A nil pointer means the
// coordinate triplet failed integer parsing and was recorded as unknown
// rather than aborting the event (see the parser's coordinate handling).
type Coordinates struct {
	X, Y, Z int
}

// KillEvent ties a killer to a victim inside one round. Coordinates are
// always present in the log grammar but may individually be nil.
type KillEvent struct {
	ID           string
	Game         *Game
	GameID       string
	RoundStart   *RoundStart
	RoundStartID string
	Timestamp    time.Time
	Killer       Player
	Victim       Player
	KillerPos    *Coordinates
	VictimPos    *Coordinates
	Weapon       string
	IsHeadshot   bool
}

// AssistEvent never carries coordinates (§6 grammar).
type AssistEvent struct {
	ID           string
	Game         *Game
	GameID       string
	RoundStart   *RoundStart
	RoundStartID string
	Timestamp    time.Time
	Assister     Player
	Victim       Player
	Type         AssistType
}

// AttackEvent is a non-lethal damage instance; HealthRemaining reflects the
// victim's health immediately after the hit.
type AttackEvent struct {
	ID              string
	Game            *Game
	GameID          string
	RoundStart      *RoundStart
	RoundStartID    string
	Timestamp       time.Time
	Attacker        Player
	Victim          Player
	AttackerPos     *Coordinates
	VictimPos       *Coordinates
	Weapon          string
	Damage          int
	ArmorDamage     int
	HitGroup        string
	HealthRemaining int
}

// BombEvent records a plant, defuse or explosion. TimeRemaining is the bomb
// timer at the moment of the event, when the log line reports one.
type BombEvent struct {
	ID           string
	Game         *Game
	GameID       string
	RoundStart   *RoundStart
	RoundStartID string
	Timestamp    time.Time
	Player       Player
	Type         BombEventType
	TimeRemaining time.Duration
}

// Accolade is an end-of-match achievement line. SteamID is populated only
// when the session-index name resolves through the processing context's
// nameToSteamId table; otherwise it is left empty and PlayerName keeps the
// original session-index placeholder the log reported.
type Accolade struct {
	ID         string
	Game       *Game
	GameID     string
	Type       string
	PlayerName string
	// SessionIndex is the log line's local player slot, kept so an
	// unresolved PlayerName can fall back to "<name><sessionIndex>"
	// instead of silently dropping the only identifier the line carried.
	SessionIndex int
	SteamID      string
	Value        float64
	Position     int
	Score        float64
}

// PlayerStats is the per-player aggregate the rating engine reads and
// writes exactly once per committed game. It is keyed on SteamID and is
// never cascade-deleted with a Game.
type PlayerStats struct {
	SteamID      string
	Name         string
	Kills        int
	Deaths       int
	Assists      int
	HSKills      int
	RoundsPlayed int
	GamesPlayed  int
	Clutches     int
	Damage       int
	Rank         float64
}
