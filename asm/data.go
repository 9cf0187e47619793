package asm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/lexer"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// pendingDataWord is one word produced by the data pass, not yet placed at a
// final memory index. The synthesized per-character words of a string
// definition carry "<label>+<k>" labels (see labelForChar).
type pendingDataWord struct {
	Label string
	Value int32
	Line  int
}

// assembleData walks the .data section: it resolves each
// term to one or more pendingDataWords and returns the label→local
// position map used by layout to offset labels into the final image.
func assembleData(terms []lexer.SourceTerm) ([]pendingDataWord, map[string]int, error) {
	var words []pendingDataWord
	labels := make(map[string]int)

	for _, term := range terms {
		label, rest, err := splitDataLabel(term)
		if err != nil {
			return nil, nil, err
		}
		if _, exists := labels[label]; exists {
			return nil, nil, newError(term.Line, ResolveError, "data label %q already defined", label)
		}

		switch {
		case len(rest) == 0:
			// number declaration: value left at its default.
			labels[label] = len(words)
			words = append(words, pendingDataWord{Label: label, Value: 0, Line: term.Line})

		case len(rest) == 1:
			v, ok := parseInteger(rest[0])
			if !ok {
				return nil, nil, newError(term.Line, ParseError, "expected an integer, got %q", rest[0])
			}
			labels[label] = len(words)
			words = append(words, pendingDataWord{Label: label, Value: v, Line: term.Line})

		default:
			size, literal, ok := parseStringDecl(rest)
			if !ok {
				return nil, nil, newError(term.Line, ParseError, "malformed data declaration after %q", label)
			}
			labels[label] = len(words)
			words = append(words, pendingDataWord{Label: label, Value: int32(size), Line: term.Line})
			for i, r := range literal {
				charLabel := labelForChar(label, i+1)
				labels[charLabel] = len(words)
				words = append(words, pendingDataWord{
					Label: charLabel,
					Value: int32(r),
					Line:  term.Line,
				})
			}
		}
	}

	return words, labels, nil
}

// splitDataLabel validates the leading "label :" of a data term and
// returns the label and the remaining tokens.
func splitDataLabel(term lexer.SourceTerm) (string, []string, error) {
	if len(term.Tokens) < 2 || term.Tokens[1] != ":" {
		return "", nil, newError(term.Line, ParseError, "data term must begin with \"label :\"")
	}
	label := term.Tokens[0]
	if !identifierRe.MatchString(label) {
		return "", nil, newError(term.Line, ParseError, "%q is not a valid label", label)
	}
	if isa.IsMnemonic(label) {
		return "", nil, newError(term.Line, ParseError, "%q is an instruction mnemonic, not usable as a label", label)
	}
	return label, term.Tokens[2:], nil
}

// parseStringDecl validates a "size \"literal\"" pair (the lexer hands
// the quoted literal over as a single token; any further tokens are
// joined to it with single spaces) and returns the size and the decoded
// literal (as runes, to preserve multi-byte code points).
func parseStringDecl(rest []string) (int, []rune, bool) {
	size, ok := parseInteger(rest[0])
	if !ok || size <= 0 {
		return 0, nil, false
	}

	literal := strings.Join(rest[1:], " ")
	if len(literal) < 2 || !strings.HasPrefix(literal, `"`) || !strings.HasSuffix(literal, `"`) {
		return 0, nil, false
	}
	content := []rune(literal[1 : len(literal)-1])
	if len(content) != int(size) {
		return 0, nil, false
	}
	return int(size), content, true
}

// labelForChar names the k-th synthesized word of a string definition.
func labelForChar(base string, k int) string {
	return base + "+" + strconv.Itoa(k)
}

// parseInteger parses a base-10 signed integer token, rejecting values
// outside the 32-bit signed range.
func parseInteger(tok string) (int32, bool) {
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
