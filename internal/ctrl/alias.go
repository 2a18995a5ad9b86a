package ctrl

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eriksl/esp32ctl/internal/constants"
)

// AliasStore is an ordered string→string lookup, replacing the first
// whitespace-delimited token of a command line (spec §4.5), grounded
// on original_source/main/alias.cpp's Alias class. Access is only
// ever from the intake worker in the single-pipeline configuration,
// but the mutex is kept because the spec allows a multi-worker
// configuration where that invariant wouldn't hold (§5).
type AliasStore struct {
	mu      sync.Mutex
	aliases map[string]string
}

// NewAliasStore creates an empty alias table.
func NewAliasStore() *AliasStore {
	return &AliasStore{aliases: make(map[string]string)}
}

// Expand replaces the first whitespace-delimited token of line with
// its alias target, if one is registered, preserving everything
// after that token verbatim. Lines with no first token, or whose
// first token has no alias, are returned unchanged.
func (a *AliasStore) Expand(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}

	idx := strings.IndexAny(trimmed, " \t")
	var first, rest string
	if idx < 0 {
		first, rest = trimmed, ""
	} else {
		first, rest = trimmed[:idx], trimmed[idx:]
	}

	a.mu.Lock()
	target, ok := a.aliases[first]
	a.mu.Unlock()
	if !ok {
		return line
	}
	return target + rest
}

// Command implements the `alias` CLI command (spec §4.6's command
// table): zero parameters lists every alias, one parameter removes
// that alias, two parameters set it (original_source/main/alias.cpp's
// Alias::command switch on parameter_count).
func (a *AliasStore) Command(call *CommandCall) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch len(call.Parameters) {
	case 0:
		// list only
	case 1:
		delete(a.aliases, call.Parameters[0].String)
	case 2:
		if len(a.aliases) >= constants.MaxAliases {
			if _, exists := a.aliases[call.Parameters[0].String]; !exists {
				return "ERROR: alias table full"
			}
		}
		a.aliases[call.Parameters[0].String] = call.Parameters[1].String
	default:
		return "ERROR: too many parameters"
	}

	names := make([]string, 0, len(a.aliases))
	for name := range a.aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("ALIASES")
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %s", name, a.aliases[name])
	}
	return b.String()
}
