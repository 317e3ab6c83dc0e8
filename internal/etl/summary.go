//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"errors"
	"time"

	"github.com/retaildw/retaildw/internal/logging"
)

// Rejection reasons reported in the run summary.
const (
	RejectMalformed   = "malformed"
	RejectDataQuality = "data_quality"
	RejectReferential = "referential_integrity"
)

// TableStats holds per-table counters for one load run.
type TableStats struct {
	Name     string
	Read     int
	Loaded   int
	Skipped  int // rows already present from a prior run
	Rejected map[string]int
}

// Reject counts one rejected row under the given reason.
func (t *TableStats) Reject(reason string) {
	if t.Rejected == nil {
		t.Rejected = make(map[string]int)
	}
	t.Rejected[reason]++
}

// TotalRejected returns the number of rejected rows for this table.
func (t *TableStats) TotalRejected() int {
	n := 0
	for _, c := range t.Rejected {
		n += c
	}
	return n
}

// summaryOrder is the reporting order of the warehouse tables.
var summaryOrder = []string{
	"dim_date", "dim_customer", "dim_product", "dim_channel", "fact_sales",
}

// RunSummary reports rows read, rejected and loaded per table for one
// pipeline run.
type RunSummary struct {
	Started  time.Time
	Finished time.Time

	tables map[string]*TableStats
}

// NewRunSummary creates an empty run summary.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		Started: time.Now(),
		tables:  make(map[string]*TableStats),
	}
}

// Table returns the stats for a table, creating them if needed.
func (s *RunSummary) Table(name string) *TableStats {
	t, ok := s.tables[name]
	if !ok {
		t = &TableStats{Name: name}
		s.tables[name] = t
	}
	return t
}

// Tables returns per-table stats in reporting order.
func (s *RunSummary) Tables() []*TableStats {
	out := make([]*TableStats, 0, len(summaryOrder))
	for _, name := range summaryOrder {
		if t, ok := s.tables[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TotalRejected returns the number of rejected rows across all tables.
func (s *RunSummary) TotalRejected() int {
	n := 0
	for _, t := range s.tables {
		n += t.TotalRejected()
	}
	return n
}

// Log writes the summary to the structured log. Rejections are reported
// as warnings; they do not fail the run.
func (s *RunSummary) Log() {
	for _, t := range s.Tables() {
		ev := logging.Info().
			Str("table", t.Name).
			Int("read", t.Read).
			Int("loaded", t.Loaded).
			Int("skipped", t.Skipped)
		for reason, count := range t.Rejected {
			ev = ev.Int("rejected_"+reason, count)
		}
		ev.Msg("Table loaded")
	}

	if n := s.TotalRejected(); n > 0 {
		logging.Warn().Int("rejected", n).Msg("Run completed with rejected rows")
	}
	logging.Info().
		Dur("elapsed", s.Finished.Sub(s.Started)).
		Msg("Load complete")
}

// rejectReason classifies a transform error into a summary reason.
func rejectReason(err error) string {
	var ri *ReferentialIntegrityError
	if errors.As(err, &ri) {
		return RejectReferential
	}
	return RejectDataQuality
}
