package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/critterdex/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.Record) (*types.Record, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default builds the pipeline every crawl runs before persisting: records
// need a name and a description longer than minDescription characters.
func Default(logger *slog.Logger, minDescription int) *Pipeline {
	p := New(logger)
	p.Use(RequireName{})
	p.Use(MinDescriptionLength{Min: minDescription})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order. A nil record
// with a nil error means the record was dropped.
func (p *Pipeline) Process(rec *types.Record) (*types.Record, error) {
	current := rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  mw.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "name", rec.Name, "url", rec.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequireName drops records whose name could not be extracted.
type RequireName struct{}

func (RequireName) Name() string { return "require_name" }

func (RequireName) Process(rec *types.Record) (*types.Record, error) {
	if rec.Name == "" {
		return nil, nil
	}
	return rec, nil
}

// MinDescriptionLength drops records whose description has Min characters
// or fewer.
type MinDescriptionLength struct {
	Min int
}

func (m MinDescriptionLength) Name() string { return "min_description_length" }

func (m MinDescriptionLength) Process(rec *types.Record) (*types.Record, error) {
	if rec.DescriptionLen() <= m.Min {
		return nil, nil
	}
	return rec, nil
}
