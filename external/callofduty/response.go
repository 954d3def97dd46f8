package callofduty

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type responseEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type errorData struct {
	Message *string `json:"message"`
}

type matchesData struct {
	Matches []json.RawMessage `json:"matches"`
}

type matchResponse struct {
	MatchID         string                         `json:"matchID" validate:"required"`
	UTCStartSeconds *count                         `json:"utcStartSeconds" validate:"required"`
	UTCEndSeconds   *count                         `json:"utcEndSeconds" validate:"required"`
	Map             string                         `json:"map" validate:"required"`
	GameType        string                         `json:"gameType"`
	Duration        *count                         `json:"duration" validate:"required"`
	Result          string                         `json:"result"`
	WinningTeam     string                         `json:"winningTeam"`
	PlayerCount     count                          `json:"playerCount"`
	TeamCount       count                          `json:"teamCount"`
	Player          *matchPlayer                   `json:"player" validate:"required"`
	PlayerStats     *matchPlayerStats              `json:"playerStats" validate:"required"`
	WeaponStats     map[string]matchWeaponResponse `json:"weaponStats" validate:"omitempty,dive"`
}

type matchPlayer struct {
	Team            string           `json:"team" validate:"required"`
	Nemesis         string           `json:"nemesis"`
	MostKilled      string           `json:"mostKilled"`
	KillstreakUsage map[string]count `json:"killstreakUsage"`
}

type matchPlayerStats struct {
	Kills                   *count   `json:"kills" validate:"required"`
	Assists                 *count   `json:"assists" validate:"required"`
	Deaths                  *count   `json:"deaths" validate:"required"`
	LongestStreak           *count   `json:"longestStreak" validate:"required"`
	Suicides                count    `json:"suicides"`
	Executions              *count   `json:"executions" validate:"required"`
	DamageDone              *count   `json:"damageDone" validate:"required"`
	DamageTaken             *count   `json:"damageTaken" validate:"required"`
	PercentTimeMoving       *float64 `json:"percentTimeMoving" validate:"required"`
	ShotsFired              count    `json:"shotsFired"`
	ShotsLanded             count    `json:"shotsLanded"`
	ShotsMissed             count    `json:"shotsMissed"`
	Headshots               *count   `json:"headshots" validate:"required"`
	WallBangs               *count   `json:"wallBangs" validate:"required"`
	TimePlayed              *count   `json:"timePlayed" validate:"required"`
	DistanceTraveled        *float64 `json:"distanceTraveled" validate:"required"`
	AverageSpeedDuringMatch float64  `json:"averageSpeedDuringMatch"`
	TeamPlacement           *count   `json:"teamPlacement"`
}

type matchWeaponResponse struct {
	Hits         *count `json:"hits" validate:"required"`
	Shots        *count `json:"shots" validate:"required"`
	Kills        *count `json:"kills" validate:"required"`
	Deaths       *count `json:"deaths" validate:"required"`
	Headshots    *count `json:"headshots" validate:"required"`
	LoadoutIndex *count `json:"loadoutIndex" validate:"required"`
}

// count is an integer that upstream sometimes encodes as 12.0.
type count int64

func (c *count) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "" || text == "null" {
		return nil
	}
	text = strings.Trim(text, `"`)

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parse integer value %s: %w", text, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return fmt.Errorf("value %s is not an integer", text)
	}

	*c = count(value)
	return nil
}

func (c count) int() int {
	return int(c)
}

func countValue(c *count) int {
	if c == nil {
		return 0
	}
	return int(*c)
}
