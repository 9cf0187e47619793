package isa

import "fmt"

// Kind discriminates the two Word variants. Word is a tagged sum, not a
// base class with overridden behavior: every consumer of a Word is
// expected to switch exhaustively on Kind rather than calling a virtual
// method, per the design note against runtime inheritance.
type Kind int

const (
	InstructionWord Kind = iota
	DataWord
)

func (k Kind) String() string {
	switch k {
	case InstructionWord:
		return "instruction"
	case DataWord:
		return "data"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Word is one memory cell: either a decoded instruction or a data
// value. Index and Line are shared by both variants; Index is the
// word's absolute address in the final image (the layout invariant
// words[i].Index == i holds once layout has run), and Line is the
// 1-based source line the word was produced from (0 for words the
// assembler synthesizes, such as the interrupt vector).
//
// Instruction fields (Kind == InstructionWord):
//   - Opcode is always set.
//   - Label is the instruction's own label, if the source gave it one.
//   - Arg is the resolved integer argument (address or immediate); nil
//     for no-operand opcodes.
//   - Mode is nil if and only if Opcode.IsNoOperand().
//
// Data fields (Kind == DataWord):
//   - Label is normally set (the assembler requires a leading label on every
//     data term) but kept optional to mirror the wire format.
//   - Value is the word's integer contents, always present in the final
//     image; an uninitialized "number declaration" (no literal given in
//     source) defaults to 0.
type Word struct {
	Kind  Kind
	Index int
	Line  int

	Opcode Opcode
	Label  *string
	Arg    *int32
	Mode   *AddressingMode

	Value int32
}

// NewInstructionWord builds an instruction Word, enforcing the
// mode/no-operand invariant.
func NewInstructionWord(index, line int, op Opcode, label *string, arg *int32, mode *AddressingMode) (Word, error) {
	if op.IsNoOperand() && mode != nil {
		return Word{}, fmt.Errorf("isa: no-operand opcode %s must not carry an addressing mode", op)
	}
	if !op.IsNoOperand() && mode == nil {
		return Word{}, fmt.Errorf("isa: opcode %s requires an addressing mode", op)
	}
	return Word{
		Kind:   InstructionWord,
		Index:  index,
		Line:   line,
		Opcode: op,
		Label:  label,
		Arg:    arg,
		Mode:   mode,
	}, nil
}

// NewDataWord builds a data Word.
func NewDataWord(index, line int, label *string, value int32) Word {
	return Word{
		Kind:  DataWord,
		Index: index,
		Line:  line,
		Label: label,
		Value: value,
	}
}

// Image is the ordered, fully addressed sequence of machine words ready
// for execution. The layout invariant Image[i].Index == i holds for
// every well-formed image produced by the assembler.
type Image []Word

// LabelOf returns the word's own label and whether it has one,
// regardless of variant.
func (w Word) LabelOf() (string, bool) {
	if w.Label == nil {
		return "", false
	}
	return *w.Label, true
}
