// Package asm implements the two-pass assembler: lexed source terms
// in, a linked, laid-out isa.Image out. The label table is built ahead
// of code generation and every argument is resolved in place
// afterward; there is one memory space, no sections to relocate
// between, and no assembler directives beyond the section headers the
// lexer already consumed.
package asm

import (
	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/lexer"
)

// Assemble runs the lexer and all four assembly passes over source,
// producing a finished image or the first error encountered.
func Assemble(source string) (isa.Image, error) {
	terms, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}

	sections, err := lexer.SplitSections(terms)
	if err != nil {
		return nil, err
	}

	dataWords, dataLabels, err := assembleData(sections.Data)
	if err != nil {
		return nil, err
	}

	statements, err := assembleStatements(sections.Text)
	if err != nil {
		return nil, err
	}

	return layout(statements, dataWords, dataLabels)
}

// layout places and links the image: reorder statements so _start
// leads, assign final indices to the vector/statement/data regions,
// populate the label tables against those final indices, then resolve
// every statement's raw argument.
func layout(statements []pendingStatement, dataWords []pendingDataWord, dataLabels map[string]int) (isa.Image, error) {
	ordered, err := reorderFromStart(statements)
	if err != nil {
		return nil, err
	}

	lt := newLabelTable()
	for i := 0; i < isa.VectorSlots; i++ {
		if err := lt.defineInstruction(isa.VectorLabel(i), i, 0); err != nil {
			return nil, err
		}
	}
	if err := lt.defineData(isa.IntAccLabel, isa.IntAccIndex, 0); err != nil {
		return nil, err
	}
	if err := lt.defineData(isa.IntPCLabel, isa.IntPCIndex, 0); err != nil {
		return nil, err
	}

	statementBase := isa.VectorLength
	for i, s := range ordered {
		if s.Label == "" {
			continue
		}
		if err := lt.defineInstruction(s.Label, statementBase+i, s.Line); err != nil {
			return nil, err
		}
	}

	dataBase := statementBase + len(ordered)
	for label, localIndex := range dataLabels {
		if err := lt.defineData(label, dataBase+localIndex, 0); err != nil {
			return nil, err
		}
	}

	img := make(isa.Image, 0, isa.VectorLength+len(ordered)+len(dataWords))
	img = append(img, buildVector()...)

	for i, s := range ordered {
		word, err := linkStatement(s, statementBase+i, lt)
		if err != nil {
			return nil, err
		}
		img = append(img, word)
	}

	for i, d := range dataWords {
		index := dataBase + i
		var label *string
		if d.Label != "" {
			l := d.Label
			label = &l
		}
		img = append(img, isa.NewDataWord(index, d.Line, label, d.Value))
	}

	return img, nil
}

// buildVector synthesizes the fixed 11-word interrupt vector prefix:
// eight handler slots defaulting to the shared FI handler, the two
// CPU-state save slots, and the default handler body itself.
func buildVector() isa.Image {
	img := make(isa.Image, 0, isa.VectorLength)
	for i := 0; i < isa.VectorSlots; i++ {
		label := isa.VectorLabel(i)
		img = append(img, isa.NewDataWord(i, 0, &label, isa.DefaultHandlerIndex))
	}
	accLabel, pcLabel := isa.IntAccLabel, isa.IntPCLabel
	img = append(img, isa.NewDataWord(isa.IntAccIndex, 0, &accLabel, 0))
	img = append(img, isa.NewDataWord(isa.IntPCIndex, 0, &pcLabel, 0))

	fi, err := isa.NewInstructionWord(isa.DefaultHandlerIndex, 0, isa.FI, nil, nil, nil)
	if err != nil {
		// FI is a no-operand opcode; this can only fail on a
		// programming mistake in this file, never on user input.
		panic(err)
	}
	img = append(img, fi)
	return img
}

// reorderFromStart rotates statements so the one labeled _start leads,
// wrapping the statements that preceded it to the end.
func reorderFromStart(statements []pendingStatement) ([]pendingStatement, error) {
	startPos := -1
	for i, s := range statements {
		if s.Label == "_start" {
			startPos = i
			break
		}
	}
	if startPos < 0 {
		return nil, newError(0, ResolveError, "missing _start label in .text")
	}

	ordered := make([]pendingStatement, 0, len(statements))
	ordered = append(ordered, statements[startPos:]...)
	ordered = append(ordered, statements[:startPos]...)
	return ordered, nil
}

// linkStatement resolves s's raw argument (if any) against the label
// tables and builds the final instruction Word.
func linkStatement(s pendingStatement, index int, lt *labelTable) (isa.Word, error) {
	var label *string
	if s.Label != "" {
		l := s.Label
		label = &l
	}

	if s.Opcode.IsNoOperand() {
		return isa.NewInstructionWord(index, s.Line, s.Opcode, label, nil, nil)
	}

	arg, err := resolveArg(s, lt)
	if err != nil {
		return isa.Word{}, err
	}
	return isa.NewInstructionWord(index, s.Line, s.Opcode, label, &arg, s.Mode)
}

// resolveArg resolves one statement's raw argument token to a numeric
// value: a literal integer as-is, otherwise a label looked up in the
// namespace the opcode's class selects: control-flow opcodes in value
// mode resolve against instruction and vector labels, control-flow in
// direct/indirect mode against data labels, and data-manipulation
// opcodes against any defined label.
func resolveArg(s pendingStatement, lt *labelTable) (int32, error) {
	if v, ok := parseInteger(s.RawArg); ok {
		return v, nil
	}

	if s.Opcode.IsControlFlow() {
		if *s.Mode == isa.Value {
			if i, ok := lt.lookupInstruction(s.RawArg); ok {
				return int32(i), nil
			}
			return 0, newError(s.Line, ResolveError, "undefined instruction or interrupt-vector label %q", s.RawArg)
		}
		if i, ok := lt.lookupData(s.RawArg); ok {
			return int32(i), nil
		}
		return 0, newError(s.Line, ResolveError, "undefined data label %q", s.RawArg)
	}

	if i, ok := lt.lookupAny(s.RawArg); ok {
		return int32(i), nil
	}
	return 0, newError(s.Line, ResolveError, "undefined label %q", s.RawArg)
}
