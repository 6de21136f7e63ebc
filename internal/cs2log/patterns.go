// Package cs2log holds the compiled regular expressions for every CS2
// dedicated-server log line shape the parser recognizes, grounded on the
// CS:GO/CS2 server-log grammar used throughout the example pack (most
// directly janstuemmel's cs2log.go pattern set, adjusted for the CS2
// accolade/JSON score-table lines this spec's grammar adds).
package cs2log

import "regexp"

// Player sub-expression groups, in order: name, player-index, steam-id
// (or the literal BOT), team.
const playerGroup = `"(.+)<(\d+)><(BOT|\[U:\d+:\d+\])><(CT|TERRORIST|Unassigned|)>"`

var (
	// Kill: "<killer>" [X Y Z] killed "<victim>" [X Y Z] with "<weapon>" (headshot)?
	Kill = regexp.MustCompile(`^` + playerGroup + ` \[(-?\d+) (-?\d+) (-?\d+)\] killed ` + playerGroup + ` \[(-?\d+) (-?\d+) (-?\d+)\] with "(\w+)"(\s*\(headshot\))?`)

	// Assist: "<assister>" (flash-)?assisted killing "<victim>" (no coordinates).
	Assist = regexp.MustCompile(`^` + playerGroup + ` (flash-)?assisted killing ` + playerGroup)

	// Attack: "<attacker>" [X Y Z] attacked "<victim>" [X Y Z] with "<weapon>" (damage "N") (damage_armor "N") (health "N") (armor "N") (hitgroup "W")
	Attack = regexp.MustCompile(`^` + playerGroup + ` \[(-?\d+) (-?\d+) (-?\d+)\] attacked ` + playerGroup + ` \[(-?\d+) (-?\d+) (-?\d+)\] with "(\w+)" \(damage "(\d+)"\) \(damage_armor "(\d+)"\) \(health "(\d+)"\) \(armor "(\d+)"\) \(hitgroup "([\w ]+)"\)`)

	// RoundStart / RoundEnd: World triggered "Round_Start" / "Round_End".
	RoundStart = regexp.MustCompile(`^World triggered "Round_Start"`)
	RoundEnd   = regexp.MustCompile(`^World triggered "Round_End"`)

	// GameOver: Game Over: <mode> mg_active <map> score <s1>:<s2> after <duration> min
	GameOver = regexp.MustCompile(`^Game Over: (\w+) mg_active (\w+) score (\d+):(\d+) after (\d+) min`)

	// Accolade: ACCOLADE, FINAL: {<type>},<ws><playerName><<sessionIdx>>,<ws>VALUE: <value>,<ws>POS: <pos>,<ws>SCORE: <score>
	Accolade = regexp.MustCompile(`^ACCOLADE, FINAL: \{(\w+)\},[ \t]*(.+)<(\d+)>,[ \t]*VALUE:[ \t]*([\d.]+),[ \t]*POS:[ \t]*(\d+),[ \t]*SCORE:[ \t]*([\d.]+)`)

	// Bomb-related "triggered" lines.
	BombPlanted  = regexp.MustCompile(`^` + playerGroup + ` triggered "Planted_The_Bomb"`)
	BombDefused  = regexp.MustCompile(`^` + playerGroup + ` triggered "Defused_The_Bomb"`)
	BombExploded = regexp.MustCompile(`^World triggered "Target_Bombed"`)

	// JSON score-table markers scanned during the Round_End compound parse.
	JSONBegin = regexp.MustCompile(`JSON_BEGIN`)
	JSONEnd   = regexp.MustCompile(`JSON_END`)
	PlayerRow = regexp.MustCompile(`player_`)
)
