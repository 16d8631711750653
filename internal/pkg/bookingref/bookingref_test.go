//go:build unit

package bookingref_test

import (
	"testing"

	"smartqueue/internal/pkg/bookingref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("generated references are well-formed", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			ref, err := bookingref.New()
			require.NoError(t, err)
			assert.True(t, bookingref.IsValid(ref), "generated reference %q failed validation", ref)
		}
	})

	t.Run("collisions are rare", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			ref, err := bookingref.New()
			require.NoError(t, err)
			seen[ref] = struct{}{}
		}
		assert.Len(t, seen, 1000)
	})
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{"valid reference", "SQ-7K2M9QXZ", true},
		{"missing prefix", "7K2M9QXZ", false},
		{"wrong prefix", "XX-7K2M9QXZ", false},
		{"too short", "SQ-7K2M9QX", false},
		{"too long", "SQ-7K2M9QXZA", false},
		{"lowercase code", "SQ-7k2m9qxz", false},
		{"punctuation in code", "SQ-7K2M9QX-", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bookingref.IsValid(tt.ref))
		})
	}
}
