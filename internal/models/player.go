// Package models holds the in-memory records the parser, processor and
// commit coordinator pass between each other: the raw parsed Message union,
// the persisted entities built from it, and the PlayerStats aggregate the
// rating engine maintains.
package models

// BotSteamID is the placeholder a Player carries when the log line names a
// bot instead of a Steam account. Bots never participate in rating updates.
const BotSteamID = ""

// Player identifies a participant by their canonical Steam ID3 string
// ([U:1:N]) or as a bot (SteamID == BotSteamID). Name is last-seen only;
// it is not part of the identity.
type Player struct {
	SteamID string
	Name    string
}

// IsBot reports whether the player has no resolvable Steam identity.
func (p Player) IsBot() bool {
	return p.SteamID == BotSteamID
}
