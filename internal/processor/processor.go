// Package processor implements the Event Processor and Commit Coordinator
// (spec §4.3/§4.4): it dispatches on the parser's tagged-union Message,
// binds every record to the in-flight match via matchctx.Context, and, on
// the GameProcessed sentinel, flushes one match in the mandatory
// Game -> RoundStarts -> other events -> Accolades order inside a single
// storage transaction before recomputing ratings and resetting context.
//
// This replaces the visitor-pattern double dispatch a class-hierarchy
// event model would need (§9) with a plain type switch.
package processor

import (
	"fmt"
	"time"

	"rankforge/internal/matchctx"
	"rankforge/internal/models"
	"rankforge/internal/rating"
	"rankforge/internal/storage"
)

// Processor owns one match's worth of in-flight state and the storage and
// rating collaborators needed to commit it. It is not safe for concurrent
// use; one Processor handles exactly one log file at a time (§5).
type Processor struct {
	ctx   *matchctx.Context
	store storage.Driver
	rate  *rating.Engine
}

// New builds a Processor. rate may be nil to skip rating recomputation
// entirely (useful for tests that only check the persisted event graph).
func New(store storage.Driver, rate *rating.Engine) *Processor {
	return &Processor{ctx: matchctx.New(), store: store, rate: rate}
}

// gameOverRecord and gameProcessedRecord give the GameOver and
// GameProcessed messages their own events-table row, distinct from the
// Game entity GameOver also creates: §4.4 step 4 lists "game-over" and
// "game-processed" among the events flushed in emitted order.
type gameOverRecord struct {
	Game            *models.Game
	GameID          string
	Timestamp       time.Time
	Map             string
	Mode            string
	Team1Score      int
	Team2Score      int
	DurationMinutes int
}

type gameProcessedRecord struct {
	Game      *models.Game
	GameID    string
	Timestamp time.Time
}

// Handle dispatches one parser message per §4.3. GameProcessedMsg drives
// commit() and, through it, a full rating recomputation and context reset.
func (p *Processor) Handle(msg models.Message) error {
	switch m := msg.(type) {
	case models.GameOverMsg:
		p.onGameOver(m)
	case models.RoundStartMsg:
		p.onRoundStart(m)
	case models.KillMsg:
		p.onKill(m)
	case models.AssistMsg:
		p.onAssist(m)
	case models.AttackMsg:
		p.onAttack(m)
	case models.BombMsg:
		p.onBomb(m)
	case models.RoundEndMsg:
		p.onRoundEnd(m)
	case models.AccoladeMsg:
		p.onAccolade(m)
	case models.GameProcessedMsg:
		return p.commit(m)
	default:
		return fmt.Errorf("processor: unhandled message type %T", msg)
	}
	return nil
}

// onGameOver constructs the Game and binds it onto every accolade queued
// ahead of it, since the parser emits accolades before GameOver exists
// (§4.2: pendingAccolades are "queued by parser before the Game exists").
func (p *Processor) onGameOver(m models.GameOverMsg) {
	game := &models.Game{
		Map:             m.Map,
		Mode:            m.Mode,
		Team1Score:      m.Team1Score,
		Team2Score:      m.Team2Score,
		DurationMinutes: m.DurationMinutes,
		EndTime:         m.Time,
	}
	if m.DurationMinutes > 0 {
		game.StartTime = m.Time.Add(-time.Duration(m.DurationMinutes) * time.Minute)
	} else {
		game.StartTime = m.Time
	}

	p.ctx.CurrentGame = game
	for _, a := range p.ctx.PendingAccolades {
		a.Game = game
	}
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &gameOverRecord{
		Game:            game,
		Timestamp:       m.Time,
		Map:             m.Map,
		Mode:            m.Mode,
		Team1Score:      m.Team1Score,
		Team2Score:      m.Team2Score,
		DurationMinutes: m.DurationMinutes,
	})
}

func (p *Processor) onRoundStart(m models.RoundStartMsg) {
	p.ctx.RoundCount++
	rs := &models.RoundStart{
		Game:        p.ctx.CurrentGame,
		Timestamp:   m.Time,
		RoundNumber: p.ctx.RoundCount,
	}
	p.ctx.CurrentRoundStart = rs
	p.ctx.PendingRoundStarts = append(p.ctx.PendingRoundStarts, rs)
}

func (p *Processor) onKill(m models.KillMsg) {
	p.ctx.RememberSteamID(m.Killer)
	p.ctx.RememberSteamID(m.Victim)
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &models.KillEvent{
		Game:       p.ctx.CurrentGame,
		RoundStart: p.ctx.CurrentRoundStart,
		Timestamp:  m.Time,
		Killer:     m.Killer,
		Victim:     m.Victim,
		KillerPos:  m.KillerPos,
		VictimPos:  m.VictimPos,
		Weapon:     m.Weapon,
		IsHeadshot: m.IsHeadshot,
	})
}

func (p *Processor) onAssist(m models.AssistMsg) {
	p.ctx.RememberSteamID(m.Assister)
	p.ctx.RememberSteamID(m.Victim)
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &models.AssistEvent{
		Game:       p.ctx.CurrentGame,
		RoundStart: p.ctx.CurrentRoundStart,
		Timestamp:  m.Time,
		Assister:   m.Assister,
		Victim:     m.Victim,
		Type:       m.Type,
	})
}

func (p *Processor) onAttack(m models.AttackMsg) {
	p.ctx.RememberSteamID(m.Attacker)
	p.ctx.RememberSteamID(m.Victim)
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &models.AttackEvent{
		Game:            p.ctx.CurrentGame,
		RoundStart:      p.ctx.CurrentRoundStart,
		Timestamp:       m.Time,
		Attacker:        m.Attacker,
		Victim:          m.Victim,
		AttackerPos:     m.AttackerPos,
		VictimPos:       m.VictimPos,
		Weapon:          m.Weapon,
		Damage:          m.Damage,
		ArmorDamage:     m.ArmorDamage,
		HitGroup:        m.HitGroup,
		HealthRemaining: m.HealthRemaining,
	})
}

func (p *Processor) onBomb(m models.BombMsg) {
	p.ctx.RememberSteamID(m.Player)
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &models.BombEvent{
		Game:          p.ctx.CurrentGame,
		RoundStart:    p.ctx.CurrentRoundStart,
		Timestamp:     m.Time,
		Player:        m.Player,
		Type:          m.Type,
		TimeRemaining: m.TimeRemaining,
	})
}

func (p *Processor) onRoundEnd(m models.RoundEndMsg) {
	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &models.RoundEnd{
		Game:             p.ctx.CurrentGame,
		RoundStart:       p.ctx.CurrentRoundStart,
		Timestamp:        m.Time,
		SurvivingPlayers: m.SurvivingPlayers,
	})
	p.ctx.CurrentRoundStart = nil
}

// onAccolade queues the accolade with its raw, unresolved player name;
// resolution against nameToSteamId happens at commit time (§4.4 step 5),
// once every event of the match -- including the ones that establish the
// name -> steam-id mapping -- has been processed.
func (p *Processor) onAccolade(m models.AccoladeMsg) {
	p.ctx.PendingAccolades = append(p.ctx.PendingAccolades, &models.Accolade{
		Type:         m.AccoladeType,
		PlayerName:   m.PlayerName,
		SessionIndex: m.SessionIndex,
		Value:        m.Value,
		Position:     m.Position,
		Score:        m.Score,
	})
}

// commit performs the §4.4 mandatory ordered flush inside one storage
// transaction, then rating recomputation, then a context reset -- whether
// or not the flush succeeded, since a failed match must not leave stale
// state for the next one (§4.2: reset on commit or fatal error).
func (p *Processor) commit(m models.GameProcessedMsg) error {
	game := p.ctx.CurrentGame
	if game == nil {
		p.ctx.Reset()
		return fmt.Errorf("processor: game_processed with no current game")
	}

	p.ctx.PendingEvents = append(p.ctx.PendingEvents, &gameProcessedRecord{
		Game:      game,
		Timestamp: m.Time,
	})

	roundStarts := p.ctx.PendingRoundStarts
	events := p.ctx.PendingEvents
	accolades := p.ctx.PendingAccolades
	nameToSteamID := p.ctx.NameToSteamID

	err := p.store.RunInTransaction(func(tx storage.Tx) error {
		gameID, err := tx.InsertGame(game)
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		game.ID = gameID

		for _, rs := range roundStarts {
			rs.GameID = game.ID
			id, err := tx.InsertRoundStart(rs)
			if err != nil {
				return fmt.Errorf("insert round_start: %w", err)
			}
			rs.ID = id
		}

		// Explicit two-phase FK patch (§9): parent ids are now assigned,
		// so every buffered child record gets its gameId/roundStartId
		// filled in before any of them is inserted.
		for _, rec := range events {
			patchFKs(rec)
		}

		for _, rec := range events {
			eventType, ts, gID, rsID, data := eventPayload(rec)
			if _, err := tx.InsertEvent(gID, rsID, eventType, ts, data); err != nil {
				return fmt.Errorf("insert event %s: %w", eventType, err)
			}
		}

		for _, a := range accolades {
			if steamID, ok := nameToSteamID[a.PlayerName]; ok {
				a.SteamID = steamID
			} else {
				a.PlayerName = fmt.Sprintf("%s<%d>", a.PlayerName, a.SessionIndex)
			}
			a.GameID = game.ID
			if _, err := tx.InsertAccolade(a); err != nil {
				return fmt.Errorf("insert accolade: %w", err)
			}
		}

		if p.rate != nil {
			kills, deltas := buildRatingInputs(events)
			if err := p.rate.Apply(tx, kills, deltas); err != nil {
				return err
			}
		}
		return nil
	})

	p.ctx.Reset()
	if err != nil {
		return fmt.Errorf("processor: commit: %w", err)
	}
	return nil
}

// patchFKs fills in a buffered record's string-valued gameId/roundStartId
// fields from the (by now assigned) ids of the Game/RoundStart it points
// to by object identity.
func patchFKs(rec any) {
	switch e := rec.(type) {
	case *models.KillEvent:
		bindGame(&e.GameID, e.Game)
		bindRound(&e.RoundStartID, e.RoundStart)
	case *models.AssistEvent:
		bindGame(&e.GameID, e.Game)
		bindRound(&e.RoundStartID, e.RoundStart)
	case *models.AttackEvent:
		bindGame(&e.GameID, e.Game)
		bindRound(&e.RoundStartID, e.RoundStart)
	case *models.BombEvent:
		bindGame(&e.GameID, e.Game)
		bindRound(&e.RoundStartID, e.RoundStart)
	case *models.RoundEnd:
		bindGame(&e.GameID, e.Game)
		bindRound(&e.RoundStartID, e.RoundStart)
	case *gameOverRecord:
		bindGame(&e.GameID, e.Game)
	case *gameProcessedRecord:
		bindGame(&e.GameID, e.Game)
	}
}

func bindGame(dst *string, g *models.Game) {
	if g != nil {
		*dst = g.ID
	}
}

func bindRound(dst *string, rs *models.RoundStart) {
	if rs != nil {
		*dst = rs.ID
	}
}

// eventPayload turns one buffered record into the shape storage.Tx.
// InsertEvent wants: its type tag, timestamp, already-patched foreign
// keys, and a JSON-compatible field map carrying the variant's own data.
func eventPayload(rec any) (eventType models.EventType, ts time.Time, gameID, roundStartID string, data map[string]any) {
	switch e := rec.(type) {
	case *models.KillEvent:
		return models.EventKill, e.Timestamp, e.GameID, e.RoundStartID, map[string]any{
			"killer_steam_id": e.Killer.SteamID,
			"killer_name":     e.Killer.Name,
			"victim_steam_id": e.Victim.SteamID,
			"victim_name":     e.Victim.Name,
			"weapon":          e.Weapon,
			"is_headshot":     e.IsHeadshot,
			"killer_pos":      e.KillerPos,
			"victim_pos":      e.VictimPos,
		}
	case *models.AssistEvent:
		return models.EventAssist, e.Timestamp, e.GameID, e.RoundStartID, map[string]any{
			"assister_steam_id": e.Assister.SteamID,
			"assister_name":     e.Assister.Name,
			"victim_steam_id":   e.Victim.SteamID,
			"victim_name":       e.Victim.Name,
			"type":              string(e.Type),
		}
	case *models.AttackEvent:
		return models.EventAttack, e.Timestamp, e.GameID, e.RoundStartID, map[string]any{
			"attacker_steam_id": e.Attacker.SteamID,
			"attacker_name":     e.Attacker.Name,
			"victim_steam_id":   e.Victim.SteamID,
			"victim_name":       e.Victim.Name,
			"weapon":            e.Weapon,
			"damage":            e.Damage,
			"armor_damage":      e.ArmorDamage,
			"hit_group":         e.HitGroup,
			"health_remaining":  e.HealthRemaining,
			"attacker_pos":      e.AttackerPos,
			"victim_pos":        e.VictimPos,
		}
	case *models.BombEvent:
		return models.EventBomb, e.Timestamp, e.GameID, e.RoundStartID, map[string]any{
			"steam_id":       e.Player.SteamID,
			"name":           e.Player.Name,
			"type":           string(e.Type),
			"time_remaining": e.TimeRemaining,
		}
	case *models.RoundEnd:
		return models.EventRoundEnd, e.Timestamp, e.GameID, e.RoundStartID, map[string]any{
			"surviving_players": e.SurvivingPlayers,
		}
	case *gameOverRecord:
		return models.EventGameOver, e.Timestamp, e.GameID, "", map[string]any{
			"map":              e.Map,
			"mode":             e.Mode,
			"team1_score":      e.Team1Score,
			"team2_score":      e.Team2Score,
			"duration_minutes": e.DurationMinutes,
		}
	case *gameProcessedRecord:
		return models.EventGameProcessed, e.Timestamp, e.GameID, "", nil
	default:
		return "", time.Time{}, "", "", nil
	}
}

// buildRatingInputs walks the flushed events once to assemble the rating
// engine's two inputs: the ordered kill list Elo recomputation replays,
// and each touched player's non-rank aggregate delta for this match.
func buildRatingInputs(events []any) ([]rating.Kill, map[string]rating.Delta) {
	deltas := map[string]rating.Delta{}
	rounds := map[string]map[*models.RoundStart]bool{}

	bump := func(steamID, name string, f func(*rating.Delta)) {
		if steamID == models.BotSteamID {
			return
		}
		d := deltas[steamID]
		if name != "" {
			d.Name = name
		}
		f(&d)
		deltas[steamID] = d
	}
	markRound := func(steamID string, rs *models.RoundStart) {
		if steamID == models.BotSteamID || rs == nil {
			return
		}
		if rounds[steamID] == nil {
			rounds[steamID] = map[*models.RoundStart]bool{}
		}
		rounds[steamID][rs] = true
	}

	var kills []rating.Kill
	for _, rec := range events {
		switch e := rec.(type) {
		case *models.KillEvent:
			kills = append(kills, rating.Kill{
				KillerSteamID: e.Killer.SteamID,
				VictimSteamID: e.Victim.SteamID,
				IsHeadshot:    e.IsHeadshot,
			})
			bump(e.Killer.SteamID, e.Killer.Name, func(d *rating.Delta) {
				d.Kills++
				if e.IsHeadshot {
					d.HSKills++
				}
			})
			bump(e.Victim.SteamID, e.Victim.Name, func(d *rating.Delta) { d.Deaths++ })
			markRound(e.Killer.SteamID, e.RoundStart)
			markRound(e.Victim.SteamID, e.RoundStart)

		case *models.AssistEvent:
			bump(e.Assister.SteamID, e.Assister.Name, func(d *rating.Delta) { d.Assists++ })
			markRound(e.Assister.SteamID, e.RoundStart)

		case *models.AttackEvent:
			bump(e.Attacker.SteamID, e.Attacker.Name, func(d *rating.Delta) { d.Damage += e.Damage })
			markRound(e.Attacker.SteamID, e.RoundStart)
			markRound(e.Victim.SteamID, e.RoundStart)
		}
	}

	for steamID, seen := range rounds {
		bump(steamID, "", func(d *rating.Delta) { d.RoundsPlayed = len(seen) })
	}

	return kills, deltas
}
