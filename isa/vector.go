package isa

// The interrupt vector occupies a fixed 11-word prefix of every image:
// eight handler-address slots, two CPU-state save slots, and one
// default handler instruction.
const (
	// VectorSlots is the number of per-interrupt handler address slots
	// (int0..int7).
	VectorSlots = 8

	// IntAccIndex is the save slot for the accumulator on interrupt entry.
	IntAccIndex = VectorSlots

	// IntPCIndex is the save slot for the program counter on interrupt
	// entry.
	IntPCIndex = VectorSlots + 1

	// DefaultHandlerIndex holds the single FI instruction used as the
	// default handler body; every vector slot's default value points
	// here.
	DefaultHandlerIndex = VectorSlots + 2

	// VectorLength is the total size of the fixed prefix (8 + 2 + 1).
	VectorLength = DefaultHandlerIndex + 1

	// MachineStartAddr is the address of the first word of user code or
	// data, immediately following the interrupt vector.
	MachineStartAddr = VectorLength
)

// VectorLabel returns the label name for interrupt vector slot n
// (0..7), e.g. VectorLabel(0) == "int0".
func VectorLabel(n int) string {
	const digits = "0123456789"
	if n < 0 || n >= VectorSlots {
		return ""
	}
	return "int" + string(digits[n])
}

// Reserved labels for the two CPU-state save slots, used by the
// assembler when synthesizing the vector. The default handler slot has
// no label, and the control unit addresses the save slots by index.
const (
	IntAccLabel = "int_acc"
	IntPCLabel  = "int_pc"
)
