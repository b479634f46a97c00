package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dow30.yaml
var defaultUniverse []byte

// Universe is the set of tickers to download and how far back to go.
type Universe struct {
	Days    int      `yaml:"days"`
	Symbols []string `yaml:"symbols"`
}

// loadUniverse reads a YAML universe file, or the built-in Dow 30 list when
// path is empty. Symbols are upper-cased and de-duplicated in order.
func loadUniverse(path string) (*Universe, error) {
	data := defaultUniverse
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read universe: %w", err)
		}
	}
	return parseUniverse(data)
}

func parseUniverse(data []byte) (*Universe, error) {
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}

	seen := make(map[string]bool, len(u.Symbols))
	symbols := u.Symbols[:0]
	for _, s := range u.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	u.Symbols = symbols

	if len(u.Symbols) == 0 {
		return nil, errors.New("universe has no symbols")
	}
	if u.Days <= 0 {
		u.Days = 10000
	}
	return &u, nil
}
