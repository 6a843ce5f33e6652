// Package config resolves the command-line surface for cmd/server.
// Flag-based, following fenrir/cmd/client/client.go's use of the
// standard flag package rather than a config file format.
package config

import (
	"flag"
	"fmt"
	"strings"
)

// DefaultPairs are pre-seeded at startup purely for operational
// convenience (SPEC_FULL.md's resolution of the pre-seeding Open
// Question) — a pair not in this list is still created lazily on its
// first order.
var DefaultPairs = []string{"BTC/USDT", "ETH/USDT", "SOL/USDT", "ADA/USDT"}

// Config holds the resolved process configuration.
type Config struct {
	Addr    string
	Workers int
	Pairs   []string
}

// Parse reads os.Args-equivalent flags into a Config. port/workers
// mirror the original_source CLI defaults (9090 / 4 workers); pairs
// defaults to DefaultPairs and accepts a comma-separated override.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("fenrir-server", flag.ContinueOnError)
	port := fs.Int("port", 9090, "TCP port to listen on")
	workers := fs.Int("workers", 4, "number of worker goroutines handling connections")
	pairsFlag := fs.String("pairs", strings.Join(DefaultPairs, ","), "comma-separated list of trading pairs to pre-seed")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *workers < 1 {
		return Config{}, fmt.Errorf("config: workers must be at least 1, got %d", *workers)
	}
	if *port < 1 || *port > 65535 {
		return Config{}, fmt.Errorf("config: port out of range: %d", *port)
	}

	var pairs []string
	for _, p := range strings.Split(*pairsFlag, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			pairs = append(pairs, p)
		}
	}

	return Config{
		Addr:    fmt.Sprintf("0.0.0.0:%d", *port),
		Workers: *workers,
		Pairs:   pairs,
	}, nil
}
