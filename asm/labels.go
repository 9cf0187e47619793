package asm

// labelTable holds the two disjoint label namespaces: instruction
// labels (statement targets plus the eight fixed interrupt-vector
// names) and data labels (data-term targets, including the synthesized
// per-character labels a string definition expands to). Both resolve
// into the same absolute address space once layout has run; keeping
// them in separate maps during assembly keeps duplicate-label
// detection and the argument-namespace rules simple.
type labelTable struct {
	instructions map[string]int
	data         map[string]int
}

func newLabelTable() *labelTable {
	return &labelTable{
		instructions: make(map[string]int),
		data:         make(map[string]int),
	}
}

// defineInstruction records label at index, failing if it was already
// defined in the instruction namespace.
func (lt *labelTable) defineInstruction(label string, index, line int) error {
	if _, exists := lt.instructions[label]; exists {
		return newError(line, ResolveError, "instruction label %q already defined", label)
	}
	lt.instructions[label] = index
	return nil
}

// defineData records label at index, failing if it was already defined
// in the data namespace.
func (lt *labelTable) defineData(label string, index, line int) error {
	if _, exists := lt.data[label]; exists {
		return newError(line, ResolveError, "data label %q already defined", label)
	}
	lt.data[label] = index
	return nil
}

func (lt *labelTable) lookupInstruction(label string) (int, bool) {
	i, ok := lt.instructions[label]
	return i, ok
}

func (lt *labelTable) lookupData(label string) (int, bool) {
	i, ok := lt.data[label]
	return i, ok
}

// lookupAny resolves label against either namespace, data first, for
// data-manipulation opcodes whose argument may name a label from any
// defined namespace.
func (lt *labelTable) lookupAny(label string) (int, bool) {
	if i, ok := lt.data[label]; ok {
		return i, true
	}
	if i, ok := lt.instructions[label]; ok {
		return i, true
	}
	return 0, false
}
