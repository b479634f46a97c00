package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUniverse_Default(t *testing.T) {
	u, err := loadUniverse("")
	require.NoError(t, err)
	assert.Equal(t, 10000, u.Days)
	assert.Len(t, u.Symbols, 30)
	assert.Contains(t, u.Symbols, "MSFT")
}

func TestLoadUniverse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: [aapl, ' msft', AAPL, '']\n"), 0o600))

	u, err := loadUniverse(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, u.Symbols)
	assert.Equal(t, 10000, u.Days)
}

func TestParseUniverse_Errors(t *testing.T) {
	_, err := parseUniverse([]byte("days: 10\n"))
	assert.ErrorContains(t, err, "no symbols")

	_, err = parseUniverse([]byte("symbols: {"))
	assert.Error(t, err)

	_, err = loadUniverse(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
