package match

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	ModeMultiplayer  = "mp"
	ModeBattleRoyale = "wz"
)

var (
	MWMultiplayer = Game{Name: "mw", Mode: ModeMultiplayer}
	MWWarzone     = Game{Name: "mw", Mode: ModeBattleRoyale}
)

var playerIDPattern = regexp.MustCompile(`^(\w+):(\w+)#(\w+)$`)

// PlayerID is the natural key of a player: platform, nickname and upstream id.
type PlayerID struct {
	Platform string
	Nickname string
	ID       string
}

func (p PlayerID) String() string {
	return p.Platform + ":" + p.Nickname + "#" + p.ID
}

func (p PlayerID) IsZero() bool {
	return p.Platform == "" && p.Nickname == "" && p.ID == ""
}

// ParsePlayerID parses the platform:nickname#id form.
func ParsePlayerID(raw string) (PlayerID, error) {
	groups := playerIDPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if groups == nil {
		return PlayerID{}, fmt.Errorf("%w: player id %q must match platform:nickname#id", ErrInvalidIdentity, raw)
	}
	return PlayerID{Platform: groups[1], Nickname: groups[2], ID: groups[3]}, nil
}

// Game is a title plus mode, e.g. mw:mp.
type Game struct {
	Name string
	Mode string
}

func (g Game) String() string {
	return g.Name + ":" + g.Mode
}

func (g Game) IsBattleRoyale() bool {
	return g.Mode == ModeBattleRoyale
}

func (g Game) Supported() bool {
	return g == MWMultiplayer || g == MWWarzone
}

// ParseGame parses the name:mode form. It does not check support.
func ParseGame(raw string) (Game, error) {
	name, mode, ok := strings.Cut(strings.TrimSpace(raw), ":")
	name = strings.TrimSpace(name)
	mode = strings.TrimSpace(mode)
	if !ok || name == "" || mode == "" {
		return Game{}, fmt.Errorf("%w: game %q must match name:mode", ErrInvalidIdentity, raw)
	}
	return Game{Name: strings.ToLower(name), Mode: strings.ToLower(mode)}, nil
}
