package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for a crawl.
type Metrics struct {
	// Fetch metrics
	PagesFetched    atomic.Int64
	FetchErrors     atomic.Int64
	BytesDownloaded atomic.Int64

	// Discovery metrics
	TargetsDiscovered   atomic.Int64
	CandidatesFound     atomic.Int64
	CandidatesExcluded  atomic.Int64
	RangeFilterFallback atomic.Int64

	// Extraction metrics
	PagesMalformed   atomic.Int64
	AnchorsMissing   atomic.Int64
	RecordsExtracted atomic.Int64

	// Persistence metrics
	RecordsInserted  atomic.Int64
	RecordsDuplicate atomic.Int64
	RecordsDropped   atomic.Int64
	StorageErrors    atomic.Int64
	TablesReset      atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metric struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) list() []metric {
	return []metric{
		{"critterdex_pages_fetched_total", "Total pages fetched", m.PagesFetched.Load()},
		{"critterdex_fetch_errors_total", "Total failed fetches", m.FetchErrors.Load()},
		{"critterdex_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"critterdex_targets_discovered_total", "Total root pages scanned for candidates", m.TargetsDiscovered.Load()},
		{"critterdex_candidates_total", "Total candidate URLs discovered", m.CandidatesFound.Load()},
		{"critterdex_candidates_excluded_total", "Total candidates skipped by the exclusion list", m.CandidatesExcluded.Load()},
		{"critterdex_range_filter_fallbacks_total", "Total range filters that kept the unfiltered list", m.RangeFilterFallback.Load()},
		{"critterdex_pages_malformed_total", "Total pages with an anchor but no usable description", m.PagesMalformed.Load()},
		{"critterdex_anchors_missing_total", "Total pages without the version anchor", m.AnchorsMissing.Load()},
		{"critterdex_records_extracted_total", "Total records extracted", m.RecordsExtracted.Load()},
		{"critterdex_records_inserted_total", "Total records inserted", m.RecordsInserted.Load()},
		{"critterdex_records_duplicate_total", "Total records skipped as duplicates", m.RecordsDuplicate.Load()},
		{"critterdex_records_dropped_total", "Total records dropped by the pipeline", m.RecordsDropped.Load()},
		{"critterdex_storage_errors_total", "Total storage errors", m.StorageErrors.Load()},
		{"critterdex_tables_reset_total", "Total tables recreated", m.TablesReset.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.list() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server in the background. The server
// shuts down when ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}

// Snapshot returns all metrics as a map keyed by name without the
// critterdex_ prefix and _total suffix.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, metric := range m.list() {
		name := strings.TrimSuffix(strings.TrimPrefix(metric.name, "critterdex_"), "_total")
		out[name] = metric.value
	}
	return out
}
