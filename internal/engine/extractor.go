package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/fetcher"
	"github.com/IshaanNene/critterdex/internal/parser"
	"github.com/IshaanNene/critterdex/internal/types"
)

// Extractor turns creature detail pages into records.
type Extractor struct {
	fetcher  fetcher.Fetcher
	policy   parser.Policy
	excluded map[string]struct{}
	stats    *Stats
	logger   *slog.Logger
}

// NewExtractor builds an extractor from the wiki and extractor sections of
// cfg. Exclusions are page titles resolved against the wiki base URL.
func NewExtractor(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger) *Extractor {
	return newExtractor(cfg, f, newStats(nil), logger)
}

func newExtractor(cfg *config.Config, f fetcher.Fetcher, stats *Stats, logger *slog.Logger) *Extractor {
	base := strings.TrimRight(cfg.Wiki.BaseURL, "/")
	excluded := make(map[string]struct{}, len(cfg.Wiki.Exclusions))
	for _, title := range cfg.Wiki.Exclusions {
		excluded[base+"/wiki/"+title] = struct{}{}
	}

	return &Extractor{
		fetcher: f,
		policy: parser.Policy{
			AnchorPrefix: cfg.Extractor.AnchorPrefix,
			Tags:         cfg.Extractor.Tags,
			MinLength:    cfg.Extractor.MinLength,
		},
		excluded: excluded,
		stats:    stats,
		logger:   logger.With("component", "extractor"),
	}
}

// IsExcluded reports whether url is on the exclusion list.
func (x *Extractor) IsExcluded(url string) bool {
	_, ok := x.excluded[url]
	return ok
}

// Name returns the creature name of the page at url. A page whose title
// has no name yields "" and no error.
func (x *Extractor) Name(ctx context.Context, url string) (string, error) {
	page, err := x.page(ctx, url, types.TagDetail)
	if err != nil {
		return "", err
	}
	return x.name(page), nil
}

// Description returns the flavor text for version on the page at url.
// Excluded pages are not fetched and yield "". A page without the version
// anchor, or with an anchor but no usable paragraph, also yields "" and no
// error; only fetch failures are returned.
func (x *Extractor) Description(ctx context.Context, url, version string) (string, error) {
	if x.IsExcluded(url) {
		x.stats.excluded()
		return "", nil
	}
	page, err := x.page(ctx, url, types.TagDetail)
	if err != nil {
		return "", err
	}
	return x.description(page, version), nil
}

// Record extracts name and description from one fetch of url. Excluded
// pages are not fetched and yield an empty record.
func (x *Extractor) Record(ctx context.Context, url, version string) (*types.Record, error) {
	rec := &types.Record{URL: url}
	if x.IsExcluded(url) {
		x.stats.excluded()
		x.logger.Debug("excluded page skipped", "url", url)
		return rec, nil
	}

	page, err := x.page(ctx, url, types.TagDetail)
	if err != nil {
		return nil, err
	}
	rec.Name = x.name(page)
	rec.Description = x.description(page, version)
	x.stats.extracted()
	return rec, nil
}

func (x *Extractor) name(page *parser.Page) string {
	name, err := page.Name()
	if err != nil {
		x.logger.Debug("no name in title", "url", page.URL, "error", err)
		return ""
	}
	return name
}

func (x *Extractor) description(page *parser.Page, version string) string {
	desc, err := page.Description(version, x.policy)
	switch {
	case err == nil:
		return desc
	case errors.Is(err, types.ErrMalformedPage):
		x.stats.malformed()
		x.logger.Warn("malformed page", "url", page.URL, "version", version, "error", err)
	case errors.Is(err, types.ErrNotFound):
		x.stats.anchorMissing()
		x.logger.Debug("version anchor missing", "url", page.URL, "version", version)
	default:
		x.logger.Warn("description extraction failed", "url", page.URL, "version", version, "error", err)
	}
	return ""
}

// fetch retrieves url and accounts for it in the stats.
func (x *Extractor) fetch(ctx context.Context, url, tag string) (*types.Response, error) {
	req, err := types.NewRequest(url)
	if err != nil {
		return nil, err
	}
	req.Tag = tag

	resp, err := x.fetcher.Fetch(ctx, req)
	if err != nil {
		x.stats.fetchFailed()
		return nil, err
	}
	x.stats.pageFetched(len(resp.Body))
	return resp, nil
}

func (x *Extractor) page(ctx context.Context, url, tag string) (*parser.Page, error) {
	resp, err := x.fetch(ctx, url, tag)
	if err != nil {
		return nil, err
	}
	return parser.ParsePage(url, resp.Body)
}
