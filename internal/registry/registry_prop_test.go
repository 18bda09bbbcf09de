package registry

import (
	"os"
	"testing"

	"pgregory.net/rapid"
)

// The manifest must behave as an ordered sequence under any interleaving
// of appends and single-index removals: removing index i shifts every
// index j > i down by one on the next List.
func TestRegistryMatchesSliceModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp("", "registry-prop-")
		if err != nil {
			rt.Fatalf("tempdir: %v", err)
		}
		defer os.RemoveAll(root)

		reg := Open(root)
		var model []string

		ops := rapid.IntRange(1, 40).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			if len(model) == 0 || rapid.Bool().Draw(rt, "append") {
				path := "/tmp/setup-" + rapid.StringMatching(`[a-z]{4,12}`).Draw(rt, "name")
				idx, err := reg.Append(path)
				if err != nil {
					rt.Fatalf("append: %v", err)
				}
				if idx != len(model) {
					rt.Fatalf("append index: got=%d want=%d", idx, len(model))
				}
				model = append(model, path)
				continue
			}

			idx := rapid.IntRange(0, len(model)-1).Draw(rt, "remove")
			if err := reg.Remove([]int{idx}); err != nil {
				rt.Fatalf("remove %d: %v", idx, err)
			}
			model = append(model[:idx], model[idx+1:]...)
		}

		entries, err := reg.List()
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if len(entries) != len(model) {
			rt.Fatalf("length mismatch: got=%d want=%d", len(entries), len(model))
		}
		for i, e := range entries {
			if e.Index != i || e.Path != model[i] {
				rt.Fatalf("entry %d: got=%+v want index=%d path=%q", i, e, i, model[i])
			}
		}
	})
}
