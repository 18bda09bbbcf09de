package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"conductorctl/internal/registry"
)

func TestParseIndexList(t *testing.T) {
	cases := []struct {
		raw     string
		want    []int
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "0", want: []int{0}},
		{raw: "0,2", want: []int{0, 2}},
		{raw: " 1 , 3 ", want: []int{1, 3}},
		{raw: "a", wantErr: true},
		{raw: "0,", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "1.5", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseIndexList(tc.raw)
		if tc.wantErr {
			require.Error(t, err, "raw=%q", tc.raw)
			continue
		}
		require.NoError(t, err, "raw=%q", tc.raw)
		require.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestSoleEntry(t *testing.T) {
	_, err := soleEntry(nil)
	require.Error(t, err)

	entry, err := soleEntry([]registry.Entry{{Index: 0, Path: "/tmp/s0"}})
	require.NoError(t, err)
	require.Equal(t, "/tmp/s0", entry.Path)

	_, err = soleEntry([]registry.Entry{{Index: 0}, {Index: 1}})
	require.ErrorIs(t, err, ErrAmbiguousSelection)
}
