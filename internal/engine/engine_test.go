package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/fetcher"
	"github.com/IshaanNene/critterdex/internal/observability"
	"github.com/IshaanNene/critterdex/internal/storage"
	"github.com/IshaanNene/critterdex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	seaBassText   = "I caught a sea bass! No, wait, it is at least a C+! Sea bass are everywhere along the coast, and they never stop biting my hook..."
	koiText       = "I caught a koi! My luck is sure to improve now. Koi have been kept in ponds for centuries, prized for their colorful scaly patterns."
	daceText      = "I caught a dace! It is a fish that lives in rivers and is known for its silvery body, though it is pretty unremarkable otherwise."
	tarantulaText = "I caught a tarantula! It is big and hairy and very scary, and it wants to bite me. I had better stay calm and keep the net steady."
)

// wiki is an in-memory wiki served over HTTP that counts page hits.
type wiki struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
	srv   *httptest.Server
}

func newWiki(t *testing.T) *wiki {
	t.Helper()
	w := &wiki{pages: make(map[string]string), hits: make(map[string]int)}
	w.srv = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		w.hits[r.URL.Path]++
		body, ok := w.pages[r.URL.Path]
		w.mu.Unlock()
		if !ok {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(rw, body)
	}))
	t.Cleanup(w.srv.Close)
	return w
}

func (w *wiki) set(path, body string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[path] = body
}

func (w *wiki) remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pages, path)
}

func (w *wiki) hitCount(path string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[path]
}

func (w *wiki) url(path string) string {
	return w.srv.URL + path
}

func category(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Category | Animal Crossing Wiki</title></head><body><ul>")
	for _, l := range links {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, l, strings.TrimPrefix(l, "/wiki/"))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

// detail renders a creature page. sections alternate anchor versions and
// the paragraphs that follow them.
func detail(name string, sections map[string][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s | Animal Crossing Wiki | Fandom</title></head><body>", name)
	b.WriteString("<p>The " + name + " is a creature that appears in every game of the series so far.</p>")
	for _, v := range catalog.Versions() {
		paras, ok := sections[string(v)]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, `<h2><span class="mw-headline" id="In_%s">In %s</span></h2>`, v, v)
		for _, p := range paras {
			fmt.Fprintf(&b, "<p>%s</p>\n", p)
		}
	}
	b.WriteString("</body></html>")
	return b.String()
}

const fishRoot = "/wiki/fish_(New_Horizons)"

func seedFish(w *wiki) {
	w.set(fishRoot, category(
		"/wiki/Sea_Bass", "/wiki/sea_bass", "/wiki/Koi", "/wiki/Net",
		"/wiki/Bitterling", "/wiki/Carp", "/wiki/Dace", "/wiki/Dace_Again",
	))
	seaBass := detail("Sea Bass", map[string][]string{
		"New_Leaf":     {strings.Repeat("Older flavor text that must not be picked up. ", 4)},
		"New_Horizons": {"Caption.", `"` + seaBassText + `"`},
	})
	w.set("/wiki/Sea_Bass", seaBass)
	w.set("/wiki/sea_bass", seaBass)
	w.set("/wiki/Koi", detail("Koi", map[string][]string{"New_Horizons": {koiText}}))
	w.set("/wiki/Net", detail("Net", map[string][]string{"New_Horizons": {strings.Repeat("Nets catch bugs. ", 10)}}))
	w.set("/wiki/Bitterling", detail("Bitterling", map[string][]string{"City_Folk": {strings.Repeat("Only in City Folk. ", 10)}}))
	w.set("/wiki/Carp", detail("Carp", map[string][]string{"New_Horizons": {"Too short.", "Still too short."}}))
	w.set("/wiki/Dace", detail("Dace", map[string][]string{"New_Horizons": {daceText}}))
	w.set("/wiki/Dace_Again", detail("Dace", map[string][]string{"New_Horizons": {daceText}}))
}

func testConfig(t *testing.T, w *wiki) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Wiki.BaseURL = w.srv.URL
	cfg.Crawl.Versions = []string{"New_Horizons"}
	cfg.Crawl.Kinds = []string{"fish"}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "dialogue.db")
	cfg.Fetcher.RequestTimeout = 5 * time.Second
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func newCrawler(t *testing.T, cfg *config.Config, opts ...Option) *Crawler {
	t.Helper()
	f, err := fetcher.New(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	c, err := New(cfg, f, testLogger, opts...)
	require.NoError(t, err)
	return c
}

func openStore(t *testing.T, cfg *config.Config) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(cfg.Storage.Path, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func names(t *testing.T, s *storage.SQLiteStore, table string) []string {
	t.Helper()
	recs, err := s.Records(context.Background(), table)
	require.NoError(t, err)
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	require.Equal(t, 130, utf8.RuneCountInString(seaBassText))

	w := newWiki(t)
	seedFish(w)
	cfg := testConfig(t, w)
	metrics := observability.NewMetrics(testLogger)
	c := newCrawler(t, cfg, WithMetrics(metrics))
	store := openStore(t, cfg)
	ctx := context.Background()

	report, err := c.Run(ctx, store)
	require.NoError(t, err)

	recs, err := store.Records(ctx, "new_horizons_fish")
	require.NoError(t, err)
	want := []types.Record{
		{Name: "Sea Bass", Description: seaBassText},
		{Name: "Koi", Description: koiText},
		{Name: "Dace", Description: daceText},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	tr, ok := report.Table("new_horizons_fish")
	require.True(t, ok)
	assert.Equal(t, 7, tr.Candidates)
	assert.Equal(t, 3, tr.Inserted)
	assert.Equal(t, 1, tr.Duplicates)
	assert.Equal(t, 3, tr.Dropped)
	assert.True(t, tr.Committed)
	assert.Equal(t, 3, report.Inserted())

	assert.Equal(t, 0, w.hitCount("/wiki/Net"), "excluded page fetched")
	assert.Equal(t, 0, w.hitCount("/wiki/sea_bass"), "case-folded duplicate fetched")
	assert.Equal(t, 1, w.hitCount("/wiki/Sea_Bass"), "name and description share one fetch")

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Excluded.Load())
	assert.EqualValues(t, 1, stats.Malformed.Load())
	assert.EqualValues(t, 1, stats.AnchorsMissing.Load())
	assert.EqualValues(t, 1, stats.Duplicates.Load())
	assert.EqualValues(t, 7, stats.PagesFetched.Load())
	assert.EqualValues(t, 3, metrics.RecordsInserted.Load())
	assert.EqualValues(t, 7, metrics.PagesFetched.Load())

	// A second run recreates the table instead of appending to it.
	_, err = c.Run(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sea Bass", "Koi", "Dace"}, names(t, store, "new_horizons_fish"))
}

func TestRunFetchFailureRollsBack(t *testing.T) {
	w := newWiki(t)
	seedFish(w)
	cfg := testConfig(t, w)
	c := newCrawler(t, cfg)
	store := openStore(t, cfg)
	ctx := context.Background()

	_, err := c.Run(ctx, store)
	require.NoError(t, err)

	w.set(fishRoot, category("/wiki/Koi", "/wiki/Missing", "/wiki/Dace"))
	report, err := c.Run(ctx, store)
	require.Error(t, err)
	assert.Nil(t, report)

	var fe *types.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, w.url("/wiki/Missing"), fe.URL)
	assert.Equal(t, 1, w.hitCount("/wiki/Dace"), "run stops at the first failed fetch")

	// The previous run's table survives untouched.
	assert.Equal(t, []string{"Sea Bass", "Koi", "Dace"}, names(t, store, "new_horizons_fish"))
}

func TestRunCommitPolicy(t *testing.T) {
	for _, policy := range []string{config.CommitRun, config.CommitTable} {
		t.Run(policy, func(t *testing.T) {
			w := newWiki(t)
			w.set("/wiki/bugs_(New_Horizons)", category("/wiki/Tarantula"))
			w.set("/wiki/Tarantula", detail("Tarantula", map[string][]string{"New_Horizons": {tarantulaText}}))
			w.set(fishRoot, category("/wiki/Koi", "/wiki/Missing"))
			w.set("/wiki/Koi", detail("Koi", map[string][]string{"New_Horizons": {koiText}}))

			cfg := testConfig(t, w)
			cfg.Crawl.Kinds = []string{"bugs", "fish"}
			cfg.Storage.Commit = policy
			c := newCrawler(t, cfg)
			store := openStore(t, cfg)
			ctx := context.Background()

			_, err := c.Run(ctx, store)
			require.Error(t, err)

			bugs, bugsErr := store.Records(ctx, "new_horizons_bugs")
			_, fishErr := store.Records(ctx, "new_horizons_fish")
			assert.Error(t, fishErr, "failing table must not persist")

			if policy == config.CommitTable {
				require.NoError(t, bugsErr)
				assert.Equal(t, []types.Record{{Name: "Tarantula", Description: tarantulaText}}, bugs)
			} else {
				assert.Error(t, bugsErr, "single commit loses every table")
			}
		})
	}
}

func TestRunDiscoversBeforePersisting(t *testing.T) {
	w := newWiki(t)
	w.set("/wiki/bugs_(New_Horizons)", category("/wiki/Tarantula"))
	w.set("/wiki/Tarantula", detail("Tarantula", map[string][]string{"New_Horizons": {tarantulaText}}))

	cfg := testConfig(t, w)
	cfg.Crawl.Kinds = []string{"bugs", "fish"}
	c := newCrawler(t, cfg)
	store := openStore(t, cfg)

	_, err := c.Run(context.Background(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discover fish_(New_Horizons)")
	assert.Equal(t, 0, w.hitCount("/wiki/Tarantula"))

	_, err = store.Records(context.Background(), "new_horizons_bugs")
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	w := newWiki(t)
	seedFish(w)
	cfg := testConfig(t, w)
	c := newCrawler(t, cfg)
	store := openStore(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Run(ctx, store)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDiscoverRangeFilter(t *testing.T) {
	w := newWiki(t)
	w.set(fishRoot, category(
		"/wiki/Fish", "/wiki/Pop", "/wiki/Koi", "/wiki/Dace", "/wiki/Deserted_island", "/wiki/Nook_Miles",
	))
	cfg := testConfig(t, w)
	cfg.Discovery.RangeFilter = true
	c := newCrawler(t, cfg)
	target := c.Targets()[0]

	got, err := c.Discover(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []string{w.url("/wiki/Koi"), w.url("/wiki/Dace")}, got)

	cfg.Discovery.RangeStarts["fish"] = "Missing_Marker"
	got, err = c.Discover(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, got, 6, "missing marker keeps the unfiltered list")

	cfg.Discovery.RangeFilter = false
	got, err = c.Discover(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestExtractor(t *testing.T) {
	w := newWiki(t)
	seedFish(w)
	cfg := testConfig(t, w)
	f, err := fetcher.New(cfg, testLogger)
	require.NoError(t, err)
	defer f.Close()
	x := NewExtractor(cfg, f, testLogger)
	ctx := context.Background()

	assert.True(t, x.IsExcluded(w.url("/wiki/Net")))
	assert.False(t, x.IsExcluded(w.url("/wiki/net")))

	desc, err := x.Description(ctx, w.url("/wiki/Net"), "New_Horizons")
	require.NoError(t, err)
	assert.Empty(t, desc)
	assert.Equal(t, 0, w.hitCount("/wiki/Net"))

	name, err := x.Name(ctx, w.url("/wiki/Koi"))
	require.NoError(t, err)
	assert.Equal(t, "Koi", name)

	desc, err = x.Description(ctx, w.url("/wiki/Bitterling"), "New_Horizons")
	require.NoError(t, err)
	assert.Empty(t, desc)

	desc, err = x.Description(ctx, w.url("/wiki/Bitterling"), "City_Folk")
	require.NoError(t, err)
	assert.NotEmpty(t, desc)

	rec, err := x.Record(ctx, w.url("/wiki/Sea_Bass"), "New_Horizons")
	require.NoError(t, err)
	assert.Equal(t, "Sea Bass", rec.Name)
	assert.Equal(t, seaBassText, rec.Description)

	_, err = x.Record(ctx, w.url("/wiki/Nowhere"), "New_Horizons")
	var fe *types.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestTargets(t *testing.T) {
	w := newWiki(t)
	cfg := testConfig(t, w)
	cfg.Crawl.Versions = nil
	cfg.Crawl.Kinds = nil
	c := newCrawler(t, cfg)

	targets := c.Targets()
	assert.Len(t, targets, 12)
	for _, tg := range targets {
		assert.False(t, tg.Version == catalog.WildWorld && tg.Kind == catalog.DeepSea, "generated %s", tg)
	}
	assert.Equal(t, w.url("/wiki/bugs_(Animal_Crossing)"), targets[0].URL)
}

func TestNewRejectsBadLinkPattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Discovery.LinkPattern = "/wiki/[A-Z"
	_, err := New(cfg, nil, testLogger)
	assert.Error(t, err)
}
