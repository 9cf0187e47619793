package isa

import (
	"encoding/json"
	"fmt"
)

// wireWord is the JSON-on-the-wire shape shared by both Word variants;
// encoding/json's field-presence tracking (via pointers) is enough to
// tell the two apart on decode.
type wireWord struct {
	Index  int     `json:"index"`
	Line   int     `json:"line"`
	Opcode *string `json:"opcode,omitempty"`
	Label  *string `json:"label,omitempty"`
	Arg    *int32  `json:"arg,omitempty"`
	Mode   *string `json:"mode,omitempty"`
	Value  *int32  `json:"value,omitempty"`
}

// Encode serializes an Image to its JSON array form. Each element
// carries only the non-null fields of the word.
func Encode(img Image) ([]byte, error) {
	wire := make([]wireWord, len(img))
	for i, w := range img {
		switch w.Kind {
		case InstructionWord:
			opStr := string(w.Opcode)
			ww := wireWord{
				Index:  w.Index,
				Line:   w.Line,
				Opcode: &opStr,
				Label:  w.Label,
				Arg:    w.Arg,
			}
			if w.Mode != nil {
				modeStr := w.Mode.String()
				ww.Mode = &modeStr
			}
			wire[i] = ww
		case DataWord:
			value := w.Value
			wire[i] = wireWord{
				Index: w.Index,
				Line:  w.Line,
				Label: w.Label,
				Value: &value,
			}
		default:
			return nil, fmt.Errorf("isa: encode: word %d has unknown kind %v", i, w.Kind)
		}
	}
	return json.MarshalIndent(wire, "", " ")
}

// Decode parses an image previously produced by Encode. Each element is
// tried first as an instruction (requires "opcode"), then as a data word
// (requires "value"); failing both is fatal.
func Decode(data []byte) (Image, error) {
	var wire []wireWord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("isa: decode: %w", err)
	}

	img := make(Image, len(wire))
	for i, ww := range wire {
		switch {
		case ww.Opcode != nil:
			op, err := ParseOpcodeString(*ww.Opcode)
			if err != nil {
				return nil, fmt.Errorf("isa: decode: word %d: %w", i, err)
			}
			var mode *AddressingMode
			if ww.Mode != nil {
				m, err := ParseMode(*ww.Mode)
				if err != nil {
					return nil, fmt.Errorf("isa: decode: word %d: %w", i, err)
				}
				mode = &m
			}
			word, err := NewInstructionWord(ww.Index, ww.Line, op, ww.Label, ww.Arg, mode)
			if err != nil {
				return nil, fmt.Errorf("isa: decode: word %d: %w", i, err)
			}
			img[i] = word
		case ww.Value != nil:
			img[i] = NewDataWord(ww.Index, ww.Line, ww.Label, *ww.Value)
		default:
			return nil, fmt.Errorf("isa: decode: word %d is neither a valid instruction (missing opcode) nor a valid data word (missing value)", i)
		}
	}
	return img, nil
}
