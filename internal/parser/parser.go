// Package parser implements the rewind-on-Game_Over state machine that
// turns a flat CS2 server log into a chronologically ordered event stream
// scoped to fully resolved matches. Structurally this follows
// daniel-le97-sandstorm-tracker's internal/parser.LogParser (a struct
// holding compiled patterns plus a Run/ParseAndProcess-style driver loop),
// generalized to CS2's grammar and the rewind algorithm this system needs.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rankforge/internal/cs2log"
	"rankforge/internal/lines"
	"rankforge/internal/models"
)

// ErrLogIncomplete is the parse-fatal error raised when an admitted
// Game_Over reports more rounds than the parser saw Round_Start lines for.
var ErrLogIncomplete = errors.New("parser: log incomplete, fewer round starts than reported rounds")

// DuplicateCheck asks the storage layer whether a GameOver event with this
// timestamp has already been committed. It backs the admission filter's
// re-ingest guard (§4.1); a parser used purely in tests may pass nil to
// always admit.
type DuplicateCheck func(eventType models.EventType, ts time.Time) (bool, error)

// Emit receives every Message the parser produces, in emission order.
// Returning an error aborts the run.
type Emit func(models.Message) error

// Parser scans an indexed line reader with a cursor that can jump
// backward. One Parser instance processes exactly one input file.
type Parser struct {
	reader          *lines.Reader
	duplicateCheck  DuplicateCheck
	roundStartIdx   []int
	matchStarted    bool
	matchEndIndex   int
}

// New builds a parser over an already-loaded line reader. dup may be nil.
func New(reader *lines.Reader, dup DuplicateCheck) *Parser {
	return &Parser{reader: reader, duplicateCheck: dup}
}

// Run drives the state machine from line 0 to the end of input, calling
// emit for every message produced. It returns ErrLogIncomplete (wrapped)
// on the one parse-fatal condition this component can detect; all other
// line-level failures are parse-recoverable and are skipped silently.
func (p *Parser) Run(emit Emit) error {
	n := p.reader.Len()
	for i := 0; i < n; {
		rec := p.reader.At(i)
		body := p.reader.Body(i)
		ts := rec.Time

		// Terminal check: the replay window just reached its Game_Over line.
		if p.matchStarted && i == p.matchEndIndex {
			if err := emit(models.GameProcessedMsg{Meta: models.Meta{Time: ts, Type: models.EventGameProcessed}}); err != nil {
				return err
			}
			p.matchStarted = false
			p.matchEndIndex = 0
			i++
			continue
		}

		if cs2log.RoundStart.MatchString(body) {
			isReplaying := p.matchEndIndex > 0 && i < p.matchEndIndex
			if p.matchStarted && len(p.roundStartIdx) == 0 && !isReplaying {
				p.matchStarted = false
			}
			if !p.matchStarted {
				p.roundStartIdx = append(p.roundStartIdx, i)
				i++
				continue
			}
			// matchStarted: falls through to event dispatch below, where
			// Round_Start wins the pattern race and is emitted as a real event.
		}

		if cs2log.GameOver.MatchString(body) {
			admitted, accolades, err := p.admit(i)
			if err != nil {
				return err
			}
			if !admitted {
				p.roundStartIdx = nil
				p.matchStarted = false
				i++
				continue
			}

			m := cs2log.GameOver.FindStringSubmatch(body)
			mode, mapName := m[1], m[2]
			team1Score, _ := strconv.Atoi(m[3])
			team2Score, _ := strconv.Atoi(m[4])
			durationMinutes, _ := strconv.Atoi(m[5])
			totalRounds := team1Score + team2Score

			if len(p.roundStartIdx) < totalRounds {
				return fmt.Errorf("%w: have %d round starts, need %d", ErrLogIncomplete, len(p.roundStartIdx), totalRounds)
			}

			for _, a := range accolades {
				if err := emit(a); err != nil {
					return err
				}
			}

			p.matchEndIndex = i
			p.matchStarted = true
			if err := emit(models.GameOverMsg{
				Meta:            models.Meta{Time: ts, Type: models.EventGameOver},
				Map:             mapName,
				Mode:            mode,
				Team1Score:      team1Score,
				Team2Score:      team2Score,
				DurationMinutes: durationMinutes,
			}); err != nil {
				return err
			}

			rewindTo := p.roundStartIdx[len(p.roundStartIdx)-totalRounds] - 1
			p.roundStartIdx = nil
			i = rewindTo
			continue
		}

		if !p.matchStarted {
			i++
			continue
		}

		switch {
		case cs2log.RoundStart.MatchString(body):
			if err := emit(models.RoundStartMsg{Meta: models.Meta{Time: ts, Type: models.EventRoundStart}}); err != nil {
				return err
			}
			i++

		case cs2log.Kill.MatchString(body):
			msg := parseKill(cs2log.Kill.FindStringSubmatch(body), ts)
			if err := emit(msg); err != nil {
				return err
			}
			i++

		case cs2log.Assist.MatchString(body):
			msg := parseAssist(cs2log.Assist.FindStringSubmatch(body), ts)
			if err := emit(msg); err != nil {
				return err
			}
			i++

		case cs2log.Attack.MatchString(body):
			msg := parseAttack(cs2log.Attack.FindStringSubmatch(body), ts)
			if err := emit(msg); err != nil {
				return err
			}
			i++

		case cs2log.RoundEnd.MatchString(body):
			survivors, nextIdx := p.parseRoundEndCompound(i)
			if err := emit(models.RoundEndMsg{Meta: models.Meta{Time: ts, Type: models.EventRoundEnd}, SurvivingPlayers: survivors}); err != nil {
				return err
			}
			i = nextIdx

		case cs2log.BombPlanted.MatchString(body):
			msg := parseBomb(cs2log.BombPlanted.FindStringSubmatch(body), ts, models.BombPlant)
			if err := emit(msg); err != nil {
				return err
			}
			i++

		case cs2log.BombDefused.MatchString(body):
			msg := parseBomb(cs2log.BombDefused.FindStringSubmatch(body), ts, models.BombDefuse)
			if err := emit(msg); err != nil {
				return err
			}
			i++

		case cs2log.BombExploded.MatchString(body):
			if err := emit(models.BombMsg{Meta: models.Meta{Time: ts, Type: models.EventBomb}, Type: models.BombExplode}); err != nil {
				return err
			}
			i++

		default:
			i++
		}
	}
	return nil
}

// admit applies the §4.1 admission filter: the contiguous ACCOLADE block
// immediately preceding a Game_Over line must hold at least 6 entries, and
// the match must not already be committed at this timestamp. It returns
// the decoded accolades in file order so the caller can emit them ahead of
// the GameOver message.
func (p *Parser) admit(gameOverIdx int) (admitted bool, accolades []models.AccoladeMsg, err error) {
	last := gameOverIdx - 1
	for last >= 0 && !cs2log.Accolade.MatchString(p.reader.Body(last)) {
		last--
	}
	if last < 0 {
		return false, nil, nil
	}

	first := last
	for first-1 >= 0 && cs2log.Accolade.MatchString(p.reader.Body(first-1)) {
		first--
	}
	count := last - first + 1
	if count < 6 {
		return false, nil, nil
	}

	if p.duplicateCheck != nil {
		ts := p.reader.At(gameOverIdx).Time
		exists, derr := p.duplicateCheck(models.EventGameOver, ts)
		if derr != nil {
			return false, nil, derr
		}
		if exists {
			return false, nil, nil
		}
	}

	msgs := make([]models.AccoladeMsg, 0, count)
	for idx := first; idx <= last; idx++ {
		m := cs2log.Accolade.FindStringSubmatch(p.reader.Body(idx))
		if m == nil {
			continue
		}
		sessionIdx, _ := strconv.Atoi(m[3])
		value, _ := strconv.ParseFloat(m[4], 64)
		position, _ := strconv.Atoi(m[5])
		score, _ := strconv.ParseFloat(m[6], 64)
		msgs = append(msgs, models.AccoladeMsg{
			Meta:         models.Meta{Time: p.reader.At(idx).Time, Type: models.EventAccolade},
			AccoladeType: m[1],
			PlayerName:   strings.TrimSpace(m[2]),
			SessionIndex: sessionIdx,
			Value:        value,
			Position:     position,
			Score:        score,
		})
	}
	return true, msgs, nil
}

// parseRoundEndCompound implements §4.1.1: scan forward from a Round_End
// line until either an ACCOLADE line (final round, no score table) or a
// JSON_BEGIN...JSON_END block (intermediate round) is found.
func (p *Parser) parseRoundEndCompound(roundEndIdx int) (survivors []string, nextIndex int) {
	n := p.reader.Len()
	i := roundEndIdx + 1
	for i < n {
		body := p.reader.Body(i)
		if cs2log.Accolade.MatchString(body) {
			return nil, i
		}
		if cs2log.JSONBegin.MatchString(body) {
			break
		}
		i++
	}
	if i >= n {
		return nil, n - 1
	}

	// Skip the 6 header rows following JSON_BEGIN.
	i += 7
	for i < n {
		body := p.reader.Body(i)
		if cs2log.JSONEnd.MatchString(body) {
			return survivors, i
		}
		if cs2log.PlayerRow.MatchString(body) {
			if idx := strings.LastIndex(body, ":"); idx >= 0 {
				rest := body[idx+1:]
				fields := strings.SplitN(rest, ",", 2)
				name := strings.TrimSpace(fields[0])
				if name != "" {
					survivors = append(survivors, name)
				}
			}
		}
		i++
	}
	return survivors, n - 1
}

func newPlayer(name, steamID, _team string) models.Player {
	if steamID == "BOT" {
		return models.Player{SteamID: models.BotSteamID, Name: name}
	}
	return models.Player{SteamID: steamID, Name: name}
}

func parseCoords(xs, ys, zs string) *models.Coordinates {
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	z, errZ := strconv.Atoi(zs)
	if errX != nil || errY != nil || errZ != nil {
		return nil
	}
	return &models.Coordinates{X: x, Y: y, Z: z}
}

// Kill capture groups: 1 name,2 idx,3 steamid,4 team,5-7 pos,
// 8 name,9 idx,10 steamid,11 team,12-14 pos,15 weapon,16 headshot
func parseKill(m []string, ts time.Time) models.KillMsg {
	return models.KillMsg{
		Meta:       models.Meta{Time: ts, Type: models.EventKill},
		Killer:     newPlayer(m[1], m[3], m[4]),
		Victim:     newPlayer(m[8], m[10], m[11]),
		KillerPos:  parseCoords(m[5], m[6], m[7]),
		VictimPos:  parseCoords(m[12], m[13], m[14]),
		Weapon:     m[15],
		IsHeadshot: strings.Contains(m[16], "headshot"),
	}
}

// Assist capture groups: 1 name,2 idx,3 steamid,4 team,5 "flash-"?,6 name,7 idx,8 steamid,9 team
func parseAssist(m []string, ts time.Time) models.AssistMsg {
	typ := models.AssistRegular
	if strings.TrimSpace(m[5]) != "" {
		typ = models.AssistFlash
	}
	return models.AssistMsg{
		Meta:     models.Meta{Time: ts, Type: models.EventAssist},
		Assister: newPlayer(m[1], m[3], m[4]),
		Victim:   newPlayer(m[6], m[8], m[9]),
		Type:     typ,
	}
}

// Attack capture groups: 1 name,2 idx,3 steamid,4 team,5-7 pos,
// 8 name,9 idx,10 steamid,11 team,12-14 pos,15 weapon,16 damage,17 armorDamage,18 health,19 armor,20 hitgroup
func parseAttack(m []string, ts time.Time) models.AttackMsg {
	damage, _ := strconv.Atoi(m[16])
	armorDamage, _ := strconv.Atoi(m[17])
	health, _ := strconv.Atoi(m[18])
	return models.AttackMsg{
		Meta:            models.Meta{Time: ts, Type: models.EventAttack},
		Attacker:        newPlayer(m[1], m[3], m[4]),
		Victim:          newPlayer(m[8], m[10], m[11]),
		AttackerPos:     parseCoords(m[5], m[6], m[7]),
		VictimPos:       parseCoords(m[12], m[13], m[14]),
		Weapon:          m[15],
		Damage:          damage,
		ArmorDamage:     armorDamage,
		HitGroup:        m[20],
		HealthRemaining: health,
	}
}

// Bomb (plant/defuse) capture groups: 1 name,2 idx,3 steamid,4 team
func parseBomb(m []string, ts time.Time, kind models.BombEventType) models.BombMsg {
	return models.BombMsg{
		Meta:   models.Meta{Time: ts, Type: models.EventBomb},
		Player: newPlayer(m[1], m[3], m[4]),
		Type:   kind,
	}
}
