package match

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidMatch    = errors.New("invalid match")
	ErrInvalidRange    = errors.New("invalid match range")
)

// Validate checks the structural invariants of a match before it is stored.
func (m PlayerMatch) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidMatch)
	}
	if !m.Game.Supported() {
		return fmt.Errorf("%w: match %s has unsupported game %s", ErrInvalidMatch, m.ID, m.Game)
	}
	if m.Game.IsBattleRoyale() && m.BRStats == nil {
		return fmt.Errorf("%w: battle royale match %s has no placement stats", ErrInvalidMatch, m.ID)
	}
	if !m.Game.IsBattleRoyale() && m.BRStats != nil {
		return fmt.Errorf("%w: multiplayer match %s carries placement stats", ErrInvalidMatch, m.ID)
	}
	if m.Stats.KDRatio < 0 {
		return fmt.Errorf("%w: match %s has negative kd ratio", ErrInvalidMatch, m.ID)
	}

	counters := []struct {
		name  string
		value int
	}{
		{"kills", m.Stats.Kills},
		{"assists", m.Stats.Assists},
		{"deaths", m.Stats.Deaths},
		{"longest_streak", m.Stats.LongestStreak},
		{"suicides", m.Stats.Suicides},
		{"executions", m.Stats.Executions},
		{"damage_dealt", m.Stats.DamageDealt},
		{"damage_received", m.Stats.DamageReceived},
		{"shots_fired", m.Stats.ShotsFired},
		{"shots_missed", m.Stats.ShotsMissed},
		{"headshots", m.Stats.Headshots},
		{"wall_bangs", m.Stats.WallBangs},
	}
	for _, counter := range counters {
		if counter.value < 0 {
			return fmt.Errorf("%w: match %s has negative %s", ErrInvalidMatch, m.ID, counter.name)
		}
	}
	if m.Stats.TimePlayed < 0 {
		return fmt.Errorf("%w: match %s has negative time played", ErrInvalidMatch, m.ID)
	}
	for _, weapon := range m.WeaponStats {
		if weapon.Name == "" {
			return fmt.Errorf("%w: match %s has weapon stats without name", ErrInvalidMatch, m.ID)
		}
		if weapon.Hits < 0 || weapon.Kills < 0 || weapon.Deaths < 0 || weapon.Shots < 0 || weapon.Headshots < 0 {
			return fmt.Errorf("%w: match %s has negative stats for weapon %s", ErrInvalidMatch, m.ID, weapon.Name)
		}
	}

	return nil
}
