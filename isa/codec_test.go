package isa_test

import (
	"math"
	"testing"

	"github.com/jscheid/vnmachine/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func label(s string) *string { return &s }
func arg(v int32) *int32     { return &v }
func mode(m isa.AddressingMode) *isa.AddressingMode { return &m }

func sampleImage(t *testing.T) isa.Image {
	t.Helper()

	hlt, err := isa.NewInstructionWord(0, 1, isa.HLT, nil, nil, nil)
	require.NoError(t, err)

	ld, err := isa.NewInstructionWord(1, 2, isa.LD, label("loop"), arg(2), mode(isa.Direct))
	require.NoError(t, err)

	jz, err := isa.NewInstructionWord(2, 3, isa.JZ, nil, arg(0), mode(isa.Value))
	require.NoError(t, err)

	data := isa.NewDataWord(3, 4, label("x"), 42)
	negative := isa.NewDataWord(4, 5, label("y"), math.MinInt32)
	positive := isa.NewDataWord(5, 6, label("z"), math.MaxInt32)
	uninitialized := isa.NewDataWord(6, 7, label("scratch"), 0)

	return isa.Image{hlt, ld, jz, data, negative, positive, uninitialized}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := sampleImage(t)

	encoded, err := isa.Encode(img)
	require.NoError(t, err)

	decoded, err := isa.Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, img, decoded, "decode(encode(image)) must equal image")
}

func TestEncodeOmitsNullFields(t *testing.T) {
	hlt, err := isa.NewInstructionWord(0, 1, isa.HLT, nil, nil, nil)
	require.NoError(t, err)

	encoded, err := isa.Encode(isa.Image{hlt})
	require.NoError(t, err)

	s := string(encoded)
	assert.Contains(t, s, `"opcode"`)
	assert.NotContains(t, s, `"label"`)
	assert.NotContains(t, s, `"arg"`)
	assert.NotContains(t, s, `"mode"`)
}

func TestDecodeTriesInstructionThenData(t *testing.T) {
	_, err := isa.Decode([]byte(`[{"index":0,"line":1}]`))
	assert.Error(t, err, "a word with neither opcode nor value must fail to decode")
}

func Test32BitBoundaryValuesSurviveRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, math.MinInt32, math.MaxInt32}
	for _, v := range values {
		w := isa.NewDataWord(0, 1, label("v"), v)
		encoded, err := isa.Encode(isa.Image{w})
		require.NoError(t, err)
		decoded, err := isa.Decode(encoded)
		require.NoError(t, err)
		require.Len(t, decoded, 1)
		assert.Equal(t, v, decoded[0].Value)
	}
}

func TestLayoutInvariantIndexEqualsPosition(t *testing.T) {
	img := sampleImage(t)
	for i, w := range img {
		assert.Equal(t, i, w.Index, "word %d must have Index == position", i)
	}
}

func TestNoOperandModeInvariant(t *testing.T) {
	_, err := isa.NewInstructionWord(0, 1, isa.HLT, nil, nil, mode(isa.Value))
	assert.Error(t, err, "no-operand opcode must not carry a mode")

	_, err = isa.NewInstructionWord(0, 1, isa.LD, nil, arg(1), nil)
	assert.Error(t, err, "data-manipulation opcode must carry a mode")
}
