package engine

import (
	"context"
	"errors"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/parser"
	"github.com/IshaanNene/critterdex/internal/types"
)

// Discover fetches the target's category page and returns the absolute
// candidate URLs it links to, de-duplicated case-insensitively in
// first-seen order.
//
// With discovery.range_filter enabled and a start marker configured for the
// target's kind, only links between the start and end markers are kept. A
// marker that cannot be found leaves the list unfiltered.
func (c *Crawler) Discover(ctx context.Context, t catalog.Target) ([]string, error) {
	resp, err := c.extractor.fetch(ctx, t.URL, types.TagRoot)
	if err != nil {
		return nil, err
	}

	paths := parser.DedupeFold(parser.WikiLinks(resp.Body, c.linkPattern))
	found := len(paths)

	if start, ok := c.cfg.Discovery.RangeStarts[string(t.Kind)]; ok && c.cfg.Discovery.RangeFilter {
		filtered, err := parser.RangeFilter(paths, start, c.cfg.Discovery.RangeEnd)
		switch {
		case err == nil:
			paths = filtered
		case errors.Is(err, types.ErrNotFound):
			c.stats.rangeFallback()
			c.logger.Warn("range filter markers not found, keeping all links",
				"target", t.String(), "start", start, "end", c.cfg.Discovery.RangeEnd, "error", err)
		default:
			return nil, err
		}
	}

	urls := parser.Absolute(c.cfg.Wiki.BaseURL, paths)
	c.stats.discovered(len(urls))
	c.logger.Info("candidates discovered", "target", t.String(), "links", found, "candidates", len(urls))
	return urls, nil
}
