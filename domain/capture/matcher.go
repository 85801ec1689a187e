package capture

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// MatcherFactory builds a matcher backend from NCC tuning options.
type MatcherFactory func(opts NCCOptions) Matcher

var (
	backendsMu sync.RWMutex
	backends   = map[string]MatcherFactory{
		"ncc": func(opts NCCOptions) Matcher { return NewNCCMatcher(opts) },
	}
)

// RegisterMatcher makes a backend selectable by name.
func RegisterMatcher(name string, f MatcherFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = f
}

// Matchers lists registered backend names.
func Matchers() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewMatcher returns the named backend. Unknown names fall back to "ncc".
func NewMatcher(name string, opts NCCOptions, logger *slog.Logger) Matcher {
	backendsMu.RLock()
	f, ok := backends[strings.ToLower(name)]
	backendsMu.RUnlock()
	if !ok {
		if logger != nil {
			logger.Warn("capture.matcher_unknown", "name", name, "available", Matchers(), "using", "ncc")
		}
		return NewNCCMatcher(opts)
	}
	return f(opts)
}
