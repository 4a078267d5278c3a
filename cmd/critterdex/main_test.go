package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/critterdex/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestApplyCLIOverrides(t *testing.T) {
	cmd := crawlCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--db", "out/critters.db",
		"--game", "New_Leaf", "--game", "City_Folk",
		"--kind", "fish",
		"--tags", "i,p",
		"--range-filter",
		"--commit", "table",
	}))

	cfg := config.DefaultConfig()
	applyCLIOverrides(cmd, cfg)

	assert.Equal(t, "out/critters.db", cfg.Storage.Path)
	assert.Equal(t, []string{"New_Leaf", "City_Folk"}, cfg.Crawl.Versions)
	assert.Equal(t, []string{"fish"}, cfg.Crawl.Kinds)
	assert.Equal(t, []string{"i", "p"}, cfg.Extractor.Tags)
	assert.True(t, cfg.Discovery.RangeFilter)
	assert.Equal(t, config.CommitTable, cfg.Storage.Commit)
	assert.Equal(t, 120, cfg.Extractor.MinLength, "unset flags keep config values")
	assert.Equal(t, "sqlite", cfg.Storage.Type)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "critterdex "+config.Version+"\n", out)
}

func TestTargetsCommand(t *testing.T) {
	out, err := execute(t, "targets")
	require.NoError(t, err)
	assert.Contains(t, out, "new_horizons_fish")
	assert.Contains(t, out, "https://animalcrossing.fandom.com/wiki/deep-sea_creatures_(New_Leaf)")
	assert.NotContains(t, out, "wild_world_deep-sea_creatures")
}

func TestDiscoverRejectsIncompatibleTarget(t *testing.T) {
	_, err := execute(t, "discover", "Wild_World", "deep-sea_creatures")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no deep-sea_creatures category")

	_, err = execute(t, "discover", "Pocket_Camp", "fish")
	assert.Error(t, err)
}

func TestDescribeCommand(t *testing.T) {
	desc := strings.Repeat("I caught a tarantula! ", 7)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Tarantula | Animal Crossing Wiki</title></head><body>
<h2 id="In_New_Leaf">In New Leaf</h2><p>%s</p></body></html>`, desc)
	}))
	defer srv.Close()

	out, err := execute(t, "describe", srv.URL+"/wiki/Tarantula", "--game", "New_Leaf")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        Tarantula\n")
	assert.Contains(t, out, "Description: "+strings.TrimSpace(desc)+"\n")

	out, err = execute(t, "describe", srv.URL+"/wiki/Tarantula")
	require.NoError(t, err)
	assert.Contains(t, out, "Length:      0\n")
}
