package machine

import (
	"encoding/json"
	"io"

	"github.com/jscheid/vnmachine/isa"
)

// TraceRecord is one line of the optional execution trace: machine
// state right after a command cycle's execute step, before its
// interrupt check (so Tick does not yet include that check's tick).
type TraceRecord struct {
	Tick   uint64 `json:"tick"`
	PC     int32  `json:"pc"`
	Opcode string `json:"opcode"`
	AC     int32  `json:"ac"`
	Z      bool   `json:"z"`
	N      bool   `json:"n"`
}

// Trace writes one TraceRecord per command cycle as a JSON line.
// Attach it to VM.Trace before calling Step/Run to enable it; a nil
// VM.Trace (the default) costs nothing beyond the one nil check per
// Step.
type Trace struct {
	enc *json.Encoder
}

// NewTrace wraps w as a JSON-lines trace sink.
func NewTrace(w io.Writer) *Trace {
	return &Trace{enc: json.NewEncoder(w)}
}

func (t *Trace) record(vm *VM, opcode isa.Opcode) error {
	return t.enc.Encode(TraceRecord{
		Tick:   vm.Ticks,
		PC:     vm.PC,
		Opcode: string(opcode),
		AC:     vm.AC,
		Z:      vm.Z,
		N:      vm.N,
	})
}
