package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/teams"
	"github.com/fortuna/tradedesk/internal/trade"
)

const maxInputBytes = 1 << 20

// aliasFlags collects repeated -alias spelling=Team flags.
type aliasFlags teams.AliasTable

func (a aliasFlags) String() string {
	parts := make([]string, 0, len(a))
	for k, v := range a {
		parts = append(parts, k+"="+string(v))
	}
	return strings.Join(parts, ",")
}

func (a aliasFlags) Set(value string) error {
	spelling, team, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(spelling) == "" || strings.TrimSpace(team) == "" {
		return fmt.Errorf("expected spelling=Team, got %q", value)
	}
	a[strings.TrimSpace(spelling)] = teams.Name(strings.TrimSpace(team))
	return nil
}

func main() {
	extra := aliasFlags{}
	var (
		strict  = flag.Bool("strict", false, "Treat declared total mismatches as errors")
		compact = flag.Bool("compact", false, "Print compact JSON")
		check   = flag.Bool("check", false, "Exit with status 2 when the trade is invalid")
	)
	flag.Var(extra, "alias", "Extra team alias as spelling=Team (repeatable)")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	text, err := readInput(flag.Arg(0))
	if err != nil {
		logger.Fatalf("read input: %v", err)
	}

	resolver, err := teams.NewResolver(teams.DefaultAliases, teams.AliasTable(extra))
	if err != nil {
		logger.Fatalf("build team resolver: %v", err)
	}

	result := trade.NewParser(resolver, trade.Options{StrictTotals: *strict}).Parse(text)

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("write result: %v", err)
	}

	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if *check && !result.Valid() {
		os.Exit(2)
	}
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
