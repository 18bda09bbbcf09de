package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"conductorctl/internal/registry"
)

var ErrAmbiguousSelection = errors.New("cli: more than one setup registered; select one with --index")

// parseIndexList parses a comma-separated index selection like "0,2".
// An empty string selects nothing, which callers treat as their default.
func parseIndexList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("cli: invalid index list %q", raw)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// soleEntry is the default target for operations that need exactly one
// setup: fine with a single registered entry, ambiguous otherwise.
func soleEntry(entries []registry.Entry) (registry.Entry, error) {
	switch len(entries) {
	case 0:
		return registry.Entry{}, fmt.Errorf("cli: no setups registered; run generate first")
	case 1:
		return entries[0], nil
	default:
		return registry.Entry{}, fmt.Errorf("%w (%d registered)", ErrAmbiguousSelection, len(entries))
	}
}
