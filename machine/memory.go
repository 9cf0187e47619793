package machine

import (
	"fmt"

	"github.com/jscheid/vnmachine/isa"
)

// Memory is the flat, word-addressed array backing the machine: every
// cell is a machine word, instruction or data, indexed 0..len-1. Code
// and data share the one address space and there is no MMU, so a
// single slice is the whole story.
type Memory struct {
	words []isa.Word
}

// DefaultMemoryWords is the memory size used when the caller does not
// pick one.
const DefaultMemoryWords = 1 << 16

// NewMemory loads img into the first len(img) cells of a words-sized
// Memory; the remainder is zero-filled data words, giving programs
// scratch space beyond their declared .data section. The image is
// copied so later mutation (via ST or interrupt-save) never aliases
// the caller's slice. A words smaller than the image is raised to the
// image's own length.
func NewMemory(img isa.Image, words int) *Memory {
	if words < len(img) {
		words = len(img)
	}
	cells := make([]isa.Word, words)
	copy(cells, img)
	for i := len(img); i < words; i++ {
		cells[i] = isa.NewDataWord(i, 0, nil, 0)
	}
	return &Memory{words: cells}
}

// Len reports the number of addressable words.
func (m *Memory) Len() int { return len(m.words) }

// InBounds reports whether addr is a valid memory index.
func (m *Memory) InBounds(addr int32) bool {
	return addr >= 0 && int(addr) < len(m.words)
}

// At returns the word at addr without regard to its kind, for
// inspection by the debugger and by the control unit's own fetch step.
func (m *Memory) At(addr int32) (isa.Word, error) {
	if !m.InBounds(addr) {
		return isa.Word{}, fmt.Errorf("machine: address %d out of range [0,%d)", addr, len(m.words))
	}
	return m.words[addr], nil
}

// ReadData returns memory[addr].Value, asserting the slot holds a data
// word; reading through an instruction slot is a runtime error.
func (m *Memory) ReadData(addr int32) (int32, error) {
	w, err := m.At(addr)
	if err != nil {
		return 0, err
	}
	if w.Kind != isa.DataWord {
		return 0, fmt.Errorf("machine: address %d does not hold a data word", addr)
	}
	return w.Value, nil
}

// WriteData sets memory[addr].Value, converting the slot to a data
// word if it wasn't already one; ST and the interrupt-save logic are
// the only writers, and both always intend to deposit a value.
func (m *Memory) WriteData(addr, value int32) error {
	if !m.InBounds(addr) {
		return fmt.Errorf("machine: address %d out of range [0,%d)", addr, len(m.words))
	}
	w := m.words[addr]
	w.Kind = isa.DataWord
	w.Value = value
	m.words[addr] = w
	return nil
}
