package engine

import (
	"sync/atomic"
	"time"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/observability"
)

// Stats tracks crawl statistics. When metrics are attached every update is
// mirrored into them.
type Stats struct {
	PagesFetched    atomic.Int64
	BytesDownloaded atomic.Int64
	FetchErrors     atomic.Int64
	Candidates      atomic.Int64
	Excluded        atomic.Int64
	Malformed       atomic.Int64
	AnchorsMissing  atomic.Int64
	Inserted        atomic.Int64
	Duplicates      atomic.Int64
	Dropped         atomic.Int64
	StorageErrors   atomic.Int64
	StartTime       time.Time

	metrics *observability.Metrics
}

func newStats(m *observability.Metrics) *Stats {
	return &Stats{StartTime: time.Now(), metrics: m}
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"pages_fetched":    s.PagesFetched.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"fetch_errors":     s.FetchErrors.Load(),
		"candidates":       s.Candidates.Load(),
		"excluded":         s.Excluded.Load(),
		"malformed":        s.Malformed.Load(),
		"anchors_missing":  s.AnchorsMissing.Load(),
		"inserted":         s.Inserted.Load(),
		"duplicates":       s.Duplicates.Load(),
		"dropped":          s.Dropped.Load(),
		"storage_errors":   s.StorageErrors.Load(),
		"elapsed":          time.Since(s.StartTime).String(),
	}
}

func (s *Stats) pageFetched(size int) {
	s.PagesFetched.Add(1)
	s.BytesDownloaded.Add(int64(size))
	if s.metrics != nil {
		s.metrics.PagesFetched.Add(1)
		s.metrics.BytesDownloaded.Add(int64(size))
	}
}

func (s *Stats) fetchFailed() {
	s.FetchErrors.Add(1)
	if s.metrics != nil {
		s.metrics.FetchErrors.Add(1)
	}
}

func (s *Stats) discovered(n int) {
	s.Candidates.Add(int64(n))
	if s.metrics != nil {
		s.metrics.TargetsDiscovered.Add(1)
		s.metrics.CandidatesFound.Add(int64(n))
	}
}

func (s *Stats) rangeFallback() {
	if s.metrics != nil {
		s.metrics.RangeFilterFallback.Add(1)
	}
}

func (s *Stats) excluded() {
	s.Excluded.Add(1)
	if s.metrics != nil {
		s.metrics.CandidatesExcluded.Add(1)
	}
}

func (s *Stats) malformed() {
	s.Malformed.Add(1)
	if s.metrics != nil {
		s.metrics.PagesMalformed.Add(1)
	}
}

func (s *Stats) anchorMissing() {
	s.AnchorsMissing.Add(1)
	if s.metrics != nil {
		s.metrics.AnchorsMissing.Add(1)
	}
}

func (s *Stats) extracted() {
	if s.metrics != nil {
		s.metrics.RecordsExtracted.Add(1)
	}
}

func (s *Stats) inserted() {
	s.Inserted.Add(1)
	if s.metrics != nil {
		s.metrics.RecordsInserted.Add(1)
	}
}

func (s *Stats) duplicate() {
	s.Duplicates.Add(1)
	if s.metrics != nil {
		s.metrics.RecordsDuplicate.Add(1)
	}
}

func (s *Stats) dropped() {
	s.Dropped.Add(1)
	if s.metrics != nil {
		s.metrics.RecordsDropped.Add(1)
	}
}

func (s *Stats) storageFailed() {
	s.StorageErrors.Add(1)
	if s.metrics != nil {
		s.metrics.StorageErrors.Add(1)
	}
}

func (s *Stats) tableReset() {
	if s.metrics != nil {
		s.metrics.TablesReset.Add(1)
	}
}

// TableReport summarises one target's persistence.
type TableReport struct {
	Target        catalog.Target
	Candidates    int
	Inserted      int
	Duplicates    int
	Dropped       int
	StorageErrors int
	Committed     bool
}

// Report summarises a completed run.
type Report struct {
	Tables  []TableReport
	Elapsed time.Duration
}

// Inserted returns the number of rows inserted across all tables.
func (r *Report) Inserted() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}

// Candidates returns the number of candidate URLs across all tables.
func (r *Report) Candidates() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Candidates
	}
	return n
}

// Table returns the report for the named table.
func (r *Report) Table(name string) (TableReport, bool) {
	for _, t := range r.Tables {
		if t.Target.Table() == name {
			return t, true
		}
	}
	return TableReport{}, false
}
