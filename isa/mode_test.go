package isa_test

import (
	"testing"

	"github.com/jscheid/vnmachine/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFromStarCount(t *testing.T) {
	tests := []struct {
		stars int
		want  isa.AddressingMode
		ok    bool
	}{
		{0, isa.Value, true},
		{1, isa.Direct, true},
		{2, isa.Indirect, true},
		{3, 0, false},
		{4, 0, false},
	}
	for _, tt := range tests {
		got, ok := isa.ModeFromStarCount(tt.stars)
		assert.Equal(t, tt.ok, ok, "stars=%d", tt.stars)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []isa.AddressingMode{isa.Value, isa.Direct, isa.Indirect} {
		got, err := isa.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := isa.ParseMode("sideways")
	assert.Error(t, err)
}
