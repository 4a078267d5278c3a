package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/critterdex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Process(*types.Record) (*types.Record, error) {
	return nil, errors.New("boom")
}

type upper struct{}

func (upper) Name() string { return "upper" }

func (upper) Process(rec *types.Record) (*types.Record, error) {
	rec.Name = strings.ToUpper(rec.Name)
	return rec, nil
}

func TestDefaultPipeline(t *testing.T) {
	p := Default(testLogger, 50)
	require.Equal(t, 2, p.Len())

	long := strings.Repeat("x", 51)
	tests := []struct {
		name     string
		rec      types.Record
		wantKept bool
	}{
		{"kept", types.Record{Name: "Koi", Description: long}, true},
		{"no name", types.Record{Description: long}, false},
		{"exactly min", types.Record{Name: "Koi", Description: long[:50]}, false},
		{"empty description", types.Record{Name: "Koi"}, false},
		{"multibyte counted as characters", types.Record{Name: "Koi", Description: strings.Repeat("é", 51)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			got, err := p.Process(&rec)
			require.NoError(t, err)
			if tt.wantKept {
				assert.Same(t, &rec, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestPipelineOrderAndErrors(t *testing.T) {
	p := New(testLogger)
	p.Use(upper{})
	p.Use(RequireName{})

	got, err := p.Process(&types.Record{Name: "sea bass"})
	require.NoError(t, err)
	assert.Equal(t, "SEA BASS", got.Name)

	p.Use(failing{})
	_, err = p.Process(&types.Record{Name: "koi"})
	var pe *types.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "failing", pe.Stage)
	assert.Contains(t, err.Error(), "boom")
}

func TestDroppedRecordStopsChain(t *testing.T) {
	p := New(testLogger)
	p.Use(RequireName{})
	p.Use(failing{})

	got, err := p.Process(&types.Record{Description: "anything"})
	assert.NoError(t, err)
	assert.Nil(t, got)
}
