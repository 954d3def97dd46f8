package match

import (
	"encoding/json"
	"time"
)

// MatchStats holds the per-match aggregate metrics of one player.
type MatchStats struct {
	Kills            int
	Assists          int
	Deaths           int
	KDRatio          float64
	KillstreaksUsed  []string
	LongestStreak    int
	Suicides         int
	Executions       int
	DamageDealt      int
	DamageReceived   int
	PercentTimeMoved float64
	ShotsFired       int
	ShotsMissed      int
	Headshots        int
	WallBangs        int
	TimePlayed       time.Duration
	DistanceTraveled float64
	AverageSpeed     float64
}

type WeaponStats struct {
	Name      string
	Hits      int
	Kills     int
	Deaths    int
	Shots     int
	Headshots int
}

// BattleRoyaleStats is only present for battle royale matches. Placement 1 is a win.
type BattleRoyaleStats struct {
	TeamsCount   int
	PlayersCount int
	Placement    int
}

// SourceMetadata carries the raw upstream payload a match was built from.
type SourceMetadata struct {
	Source json.RawMessage
	Meta   json.RawMessage
}

// PlayerMatch is one match as seen by one player. ID is the upstream match id.
type PlayerMatch struct {
	ID          string
	Game        Game
	Start       time.Time
	End         time.Time
	Map         string
	IsWin       bool
	Stats       MatchStats
	WeaponStats []WeaponStats
	BRStats     *BattleRoyaleStats
	Source      *SourceMetadata
}

func (m PlayerMatch) Tracked() bool {
	return m.Source != nil
}

// KDRatio guards against zero deaths.
func KDRatio(kills, deaths int) float64 {
	if deaths < 1 {
		deaths = 1
	}
	return float64(kills) / float64(deaths)
}
