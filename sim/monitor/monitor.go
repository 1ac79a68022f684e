// Package monitor accumulates simulation statistics from the event stream.
//
// Every monitor subscribes on a sim.Bus at construction, resets itself when
// the simulation begins, and exposes a typed snapshot (Info) plus a
// fixed-schema Table. Monitors hold read-only views of jobs and hosts and
// never mutate them.
package monitor

import (
	"errors"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Monitor is implemented by every monitor in this package.
type Monitor[T any] interface {
	// Info returns a snapshot of the collected statistics.
	Info() T
	// Table materializes the snapshot as rows of formatted cells.
	Table() Table
}

// errNotStarted is returned by handlers that need the simulator handle
// before SimulationBegins delivered it.
var errNotStarted = errors.New("monitor: simulation has not begun")

// Table is a fixed-schema tabular view of a monitor snapshot.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Render writes t as an ASCII table.
func (t Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.AppendBulk(t.Rows)
	tw.Render()
}

// Column returns the cells of the named column, or nil if there is none.
func (t Table) Column(name string) []string {
	for i, c := range t.Columns {
		if c == name {
			out := make([]string, len(t.Rows))
			for r, row := range t.Rows {
				out[r] = row[i]
			}
			return out
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatOptional leaves undefined values empty.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
