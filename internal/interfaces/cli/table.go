// Package cli renders poller results for terminal output.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/usecase"
)

var (
	reportHeaders = []string{"game", "player", "status", "matches", "error"}
	matchHeaders  = []string{"start", "match id", "map", "win", "kills", "deaths", "k/d", "placement"}
)

// Table renders a bordered ASCII table to w.
func Table(w io.Writer, headers []string, rows [][]string) error {
	t := tablewriter.NewWriter(w)
	t.Header(toAny(headers)...)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

// RenderPollReport prints one row per roster target followed by a summary line.
func RenderPollReport(w io.Writer, report usecase.PollReport) error {
	rows := make([][]string, 0, len(report.Targets))
	for _, target := range report.Targets {
		rows = append(rows, []string{
			target.Game.String(),
			target.Player.String(),
			string(target.Status),
			strconv.Itoa(target.Matches),
			abbreviate(target.Error, 80),
		})
	}
	if err := Table(w, reportHeaders, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "cycle %s: %d fetched, %d skipped, %d saved players in %s\n",
		report.CycleID,
		report.Count(usecase.TargetStatusFetched),
		report.Count(usecase.TargetStatusSkipped),
		report.SavedPlayers,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	return err
}

// RenderMatches prints stored matches in the order given.
func RenderMatches(w io.Writer, matches []match.PlayerMatch) error {
	rows := make([][]string, 0, len(matches))
	for _, item := range matches {
		placement := "-"
		if item.BRStats != nil {
			placement = strconv.Itoa(item.BRStats.Placement)
		}
		rows = append(rows, []string{
			item.Start.UTC().Format(time.RFC3339),
			item.ID,
			item.Map,
			strconv.FormatBool(item.IsWin),
			strconv.Itoa(item.Stats.Kills),
			strconv.Itoa(item.Stats.Deaths),
			strconv.FormatFloat(item.Stats.KDRatio, 'f', 2, 64),
			placement,
		})
	}
	return Table(w, matchHeaders, rows)
}

func abbreviate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

func toAny(s []string) []any {
	result := make([]any, len(s))
	for i, v := range s {
		result[i] = v
	}
	return result
}
