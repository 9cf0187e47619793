package asm

import (
	"strings"

	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/lexer"
)

// pendingStatement is one .text instruction, built by assembleStatements
// before layout assigns it a final memory index or linking resolves its
// argument. RawArg is empty for no-operand opcodes; otherwise it's
// either a literal integer or an unresolved label name.
type pendingStatement struct {
	Label  string
	Opcode isa.Opcode
	Mode   *isa.AddressingMode
	RawArg string
	Line   int
}

// assembleStatements walks .text once, attaching bare labels to the
// statement that follows them and deriving each statement's addressing
// mode from its `*` sigils. Argument resolution against the label
// tables happens later, at link time; by the time linking runs every
// label in the program has already been seen, so label collection
// falls out of building the statement list, and forward references
// are simply unresolved names until then.
func assembleStatements(terms []lexer.SourceTerm) ([]pendingStatement, error) {
	var statements []pendingStatement
	pendingLabel := ""

	for _, term := range terms {
		label, rest, hasLabel := splitLeadingLabel(term)
		if hasLabel && len(rest) == 0 {
			if pendingLabel != "" {
				return nil, newError(term.Line, ParseError, "label %q follows label %q with no statement in between", label, pendingLabel)
			}
			pendingLabel = label
			continue
		}

		stmtLabel := pendingLabel
		if hasLabel {
			if pendingLabel != "" {
				return nil, newError(term.Line, ParseError, "statement cannot carry both label %q and pending label %q", label, pendingLabel)
			}
			stmtLabel = label
		}
		pendingLabel = ""

		stmt, err := buildStatement(term.Line, stmtLabel, rest)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if pendingLabel != "" {
		return nil, newError(0, ParseError, "label %q is not attached to any statement", pendingLabel)
	}

	return statements, nil
}

// splitLeadingLabel reports whether term begins with "label :" and
// returns the label and the remaining tokens (possibly empty).
func splitLeadingLabel(term lexer.SourceTerm) (string, []string, bool) {
	if len(term.Tokens) >= 2 && term.Tokens[1] == ":" && identifierRe.MatchString(term.Tokens[0]) {
		return term.Tokens[0], term.Tokens[2:], true
	}
	return "", term.Tokens, false
}

// buildStatement resolves the mnemonic, `*` count and argument shape
// of one instruction's token list.
func buildStatement(line int, label string, tokens []string) (pendingStatement, error) {
	if len(tokens) == 0 {
		return pendingStatement{}, newError(line, ParseError, "expected an instruction")
	}

	op, ok := isa.LookupMnemonic(strings.ToLower(tokens[0]))
	if !ok {
		return pendingStatement{}, newError(line, ParseError, "unknown mnemonic %q", tokens[0])
	}

	rest := tokens[1:]
	stars := 0
	for len(rest) > 0 && rest[0] == "*" {
		stars++
		rest = rest[1:]
	}
	if stars >= 3 {
		return pendingStatement{}, newError(line, ParseError, "too many * sigils on %q", tokens[0])
	}

	if op.IsNoOperand() {
		if stars != 0 || len(rest) != 0 {
			return pendingStatement{}, newError(line, ParseError, "%s takes no operand", op)
		}
		return pendingStatement{Label: label, Opcode: op, Mode: nil, Line: line}, nil
	}

	mode, _ := isa.ModeFromStarCount(stars)
	if len(rest) != 1 {
		return pendingStatement{}, newError(line, ParseError, "%s requires exactly one argument", op)
	}
	return pendingStatement{Label: label, Opcode: op, Mode: &mode, RawArg: rest[0], Line: line}, nil
}
