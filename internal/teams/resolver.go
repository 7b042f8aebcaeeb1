package teams

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fortuna/tradedesk/internal/names"
)

// Resolver maps raw team tokens to canonical names. It is immutable once
// built and safe for concurrent use.
type Resolver struct {
	aliases map[string]Name
}

// NewResolver merges the given alias tables into one lookup. An alias that
// points at a non-canonical name, or at two different canonical names across
// (or within) the tables, is rejected.
func NewResolver(tables ...AliasTable) (*Resolver, error) {
	merged := make(map[string]Name)
	var problems []string

	for _, table := range tables {
		for alias, target := range table {
			key := names.Normalize(alias)
			if key == "" {
				problems = append(problems, "empty alias")
				continue
			}
			if !IsCanonical(string(target)) {
				problems = append(problems, fmt.Sprintf("alias %q targets unknown team %q", alias, target))
				continue
			}
			if canon, ok := canonicalByKey[key]; ok && canon != target {
				problems = append(problems, fmt.Sprintf("alias %q shadows canonical team %q", alias, canon))
				continue
			}
			if existing, ok := merged[key]; ok && existing != target {
				problems = append(problems, fmt.Sprintf("alias %q maps to both %q and %q", key, existing, target))
				continue
			}
			merged[key] = target
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("invalid alias table: %s", strings.Join(problems, "; "))
	}

	return &Resolver{aliases: merged}, nil
}

// Resolve returns the canonical team for raw, or false when nothing matches.
// A miss is never reported as Free Agents.
func (r *Resolver) Resolve(raw string) (Name, bool) {
	key := names.Normalize(raw)
	if key == "" {
		return "", false
	}
	if n, ok := canonicalByKey[key]; ok {
		return n, true
	}
	if n, ok := r.aliases[key]; ok {
		return n, true
	}
	return "", false
}

// Aliases returns a copy of the merged alias table.
func (r *Resolver) Aliases() AliasTable {
	out := make(AliasTable, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

var defaultResolver = func() *Resolver {
	r, err := NewResolver(DefaultAliases)
	if err != nil {
		panic(err)
	}
	return r
}()

// Default returns the resolver built from DefaultAliases alone.
func Default() *Resolver {
	return defaultResolver
}

// Resolve resolves raw with the default resolver.
func Resolve(raw string) (Name, bool) {
	return defaultResolver.Resolve(raw)
}
