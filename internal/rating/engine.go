// Package rating implements the Elo-style per-player rank recomputation
// the commit coordinator invokes as the last step of a match flush (§4.5).
// It is deliberately narrow: it knows nothing about games, rounds or
// storage technology, only steam ids, kills, and aggregate deltas, and it
// writes through the same storage.Tx the coordinator is already inside.
package rating

import (
	"fmt"
	"math"

	"rankforge/internal/models"
	"rankforge/internal/storage"
)

// Kill is the Elo-relevant shape of a KillEvent: the two participants and
// whether the headshot multiplier applies. BOT participants are filtered
// out by the caller or by Apply itself; either is safe.
type Kill struct {
	KillerSteamID string
	VictimSteamID string
	IsHeadshot    bool
}

// Delta is one player's non-rank aggregate contribution from a single
// match; Apply adds it to whatever is already on file and increments
// GamesPlayed by exactly one.
type Delta struct {
	Name         string
	Kills        int
	Deaths       int
	Assists      int
	HSKills      int
	Damage       int
	RoundsPlayed int
}

// Engine holds the Elo constants. The zero value is not usable; use New.
type Engine struct {
	K         float64
	HeadshotK float64
	R0        float64
}

// New returns the default engine: K=32 (64 on a headshot kill), initial
// rank 1000. These are the placeholder constants §9's third open question
// flags; nothing downstream depends on a specific value.
func New() *Engine {
	return &Engine{K: 32, HeadshotK: 64, R0: 1000}
}

// Apply recomputes rank from kills in order, then persists the final rank
// alongside each touched player's aggregate deltas, exactly once per
// player per match (§3: PlayerStats is "updated exactly once per
// committed game"). BOT steam-ids are skipped throughout.
func (e *Engine) Apply(tx storage.Tx, kills []Kill, deltas map[string]Delta) error {
	ranks := make(map[string]float64, len(deltas))

	peek := func(steamID string) (float64, error) {
		if r, ok := ranks[steamID]; ok {
			return r, nil
		}
		var r float64
		err := tx.UpsertPlayerStats(steamID, func(s *models.PlayerStats) {
			if s.Rank == 0 {
				s.Rank = e.R0
			}
			r = s.Rank
		})
		if err != nil {
			return 0, fmt.Errorf("rating: read rank for %s: %w", steamID, err)
		}
		ranks[steamID] = r
		return r, nil
	}

	for _, k := range kills {
		if k.KillerSteamID == models.BotSteamID || k.VictimSteamID == models.BotSteamID {
			continue
		}
		rk, err := peek(k.KillerSteamID)
		if err != nil {
			return err
		}
		rv, err := peek(k.VictimSteamID)
		if err != nil {
			return err
		}

		kf := e.K
		if k.IsHeadshot {
			kf = e.HeadshotK
		}
		expected := 1 / (1 + math.Pow(10, (rv-rk)/400))
		ranks[k.KillerSteamID] = rk + kf*(1-expected)
		ranks[k.VictimSteamID] = rv - kf*(1-expected)
	}

	for steamID, d := range deltas {
		if steamID == models.BotSteamID {
			continue
		}
		finalRank, hasRank := ranks[steamID]
		d := d
		err := tx.UpsertPlayerStats(steamID, func(s *models.PlayerStats) {
			if s.Rank == 0 {
				s.Rank = e.R0
			}
			if hasRank {
				s.Rank = finalRank
			}
			if d.Name != "" {
				s.Name = d.Name
			}
			s.Kills += d.Kills
			s.Deaths += d.Deaths
			s.Assists += d.Assists
			s.HSKills += d.HSKills
			s.Damage += d.Damage
			s.RoundsPlayed += d.RoundsPlayed
			s.GamesPlayed++
		})
		if err != nil {
			return fmt.Errorf("rating: persist stats for %s: %w", steamID, err)
		}
	}
	return nil
}
