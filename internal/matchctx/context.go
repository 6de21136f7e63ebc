// Package matchctx holds the Event Processing Context: the per-match
// scratchpad described in spec §4.2 that the event processor mutates as it
// walks one match's messages, and that the commit coordinator flushes and
// resets. It replaces what an ORM-backed implementation would do with
// session-scoped, cascade-persisted entities: here the binding is explicit
// and single-threaded.
package matchctx

import "rankforge/internal/models"

// Context is not safe for concurrent use; it is owned by exactly one
// in-flight match on one goroutine, matching §5's single-writer-per-file
// scheduling model.
type Context struct {
	CurrentGame       *models.Game
	CurrentRoundStart *models.RoundStart

	// PendingRoundStarts holds every RoundStart built so far, in round
	// order; the commit coordinator flushes these separately from
	// PendingEvents per the §4.4 flush order (Game, then RoundStarts,
	// then everything else).
	PendingRoundStarts []*models.RoundStart

	// PendingEvents holds every other record built so far (kills,
	// assists, attacks, bombs, round-ends, plus the game-over and
	// game-processed rows themselves), in emission order.
	PendingEvents    []any
	PendingAccolades []*models.Accolade

	// NameToSteamID resolves accolade player names (reported only as
	// session indices on the log line) to the canonical steam id seen on
	// some other event naming the same player this match.
	NameToSteamID map[string]string

	// RoundCount is the number of RoundStarts assigned so far this match;
	// the next one gets RoundCount+1 (round numbers are 1-based).
	RoundCount int
}

// New returns a freshly reset context.
func New() *Context {
	c := &Context{}
	c.Reset()
	return c
}

// Reset clears all per-match state. It must be called after a successful
// commit and on any fatal mid-match error, per §4.2's lifetime contract.
func (c *Context) Reset() {
	c.CurrentGame = nil
	c.CurrentRoundStart = nil
	c.PendingRoundStarts = nil
	c.PendingEvents = nil
	c.PendingAccolades = nil
	c.NameToSteamID = make(map[string]string)
	c.RoundCount = 0
}

// RememberSteamID records a name -> steamId sighting. Bots (empty steamId)
// are never recorded: an accolade resolved against a bot's name would be
// meaningless, and bots don't appear on accolade lines in practice.
func (c *Context) RememberSteamID(p models.Player) {
	if p.IsBot() {
		return
	}
	c.NameToSteamID[p.Name] = p.SteamID
}
