package verification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractSubjectID(t *testing.T) {
	cases := []struct {
		name   string
		desc   string
		want   uint
		wantOK bool
	}{
		{"marker in sentence", "Review user ID: 42 documents", 42, true},
		{"zero", "user ID: 0", 0, true},
		{"first marker wins", "user ID: 7 then user ID: 9", 7, true},
		{"empty", "", 0, false},
		{"no marker", "no id here", 0, false},
		{"wrong case", "User ID: 42", 0, false},
		{"no space after colon", "user ID:42", 0, false},
		{"marker without digits", "user ID: abc", 0, false},
		{"overflow", "user ID: 999999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractSubjectID(tc.desc)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractSubjectID_AnyNonNegativeInt(t *testing.T) {
	for _, n := range []uint{0, 1, 9, 10, 12345, 4294967295} {
		got, ok := ExtractSubjectID(fmt.Sprintf("KYC batch, user ID: %d, priority high", n))
		require.True(t, ok)
		require.Equal(t, n, got)
	}
}
