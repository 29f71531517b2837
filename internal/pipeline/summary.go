//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Stage names used in summaries and logs.
const (
	StageNormalize = "normalize"
	StageEnrich    = "enrich"
	StageLoad      = "load"
	StageSample    = "sample"
)

// Result describes what one stage did to one table.
type Result struct {
	Stage    string
	Table    string
	Path     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Dropped returns the number of rows the stage removed.
func (r Result) Dropped() int {
	return r.RowsIn - r.RowsOut
}

// Summary collects the per-table results of one or more stages.
type Summary struct {
	Results []Result
}

// Add appends a result.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// Merge appends all results of other.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Results = append(s.Results, other.Results...)
}

// Find returns the result for a stage and table.
func (s *Summary) Find(stage, tableName string) (Result, bool) {
	for _, r := range s.Results {
		if r.Stage == stage && r.Table == tableName {
			return r, true
		}
	}
	return Result{}, false
}

var summaryHeader = []string{"STAGE", "TABLE", "ROWS IN", "ROWS OUT", "DROPPED", "DURATION", "PATH"}

// numeric columns are right aligned
var summaryRightAlign = []bool{false, false, true, true, true, true, false}

// Render writes the summary as an aligned text table.
func (s *Summary) Render(w io.Writer) error {
	rows := [][]string{summaryHeader}
	for _, r := range s.Results {
		rows = append(rows, []string{
			r.Stage,
			r.Table,
			strconv.Itoa(r.RowsIn),
			strconv.Itoa(r.RowsOut),
			strconv.Itoa(r.Dropped()),
			r.Duration.Round(time.Millisecond).String(),
			r.Path,
		})
	}

	widths := make([]int, len(summaryHeader))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			switch {
			case i == len(row)-1:
				cells[i] = cell
			case summaryRightAlign[i]:
				cells[i] = runewidth.FillLeft(cell, widths[i])
			default:
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
