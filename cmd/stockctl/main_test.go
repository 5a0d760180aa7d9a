package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-service/internal/grid"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTemplateThenExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estoque.xlsx")

	out, err := runCLI(t, "template", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	out, err = runCLI(t, "extract", path, "--view", "ready", "--json")
	require.NoError(t, err)

	var views map[string][]grid.StockEntry
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.NotContains(t, views, grid.ViewGeneral)
	assert.Len(t, views[grid.ViewReady], 4)

	out, err = runCLI(t, "extract", path, "--view", "all", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "general ([G] Saldo): 7 SKUs, 28 units")
	assert.Contains(t, out, "107.0470.025-40")
}

func TestImportDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estoque.xlsx")
	_, err := runCLI(t, "template", path)
	require.NoError(t, err)

	out, err := runCLI(t, "import", path, "--dry-run", "--operator", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "status: VALIDATED")
	assert.Contains(t, out, "Validation only, nothing was saved")
}

func TestExtract_UnknownView(t *testing.T) {
	_, err := runCLI(t, "extract", "missing.xlsx", "--view", "warehouse")
	assert.ErrorContains(t, err, "unknown view")
}

func TestSelectLayouts(t *testing.T) {
	selected, err := selectLayouts("", grid.GeneralStock, grid.ReadyStock)
	require.NoError(t, err)
	assert.Equal(t, []grid.Layout{grid.GeneralStock, grid.ReadyStock}, selected)

	selected, err = selectLayouts(grid.ViewGeneral, grid.GeneralStock, grid.ReadyStock)
	require.NoError(t, err)
	assert.Equal(t, []grid.Layout{grid.GeneralStock}, selected)
}
