package machine

// Datapath holds the three 32-bit signed registers and the two flags
// the ALU latches after every cycle.
type Datapath struct {
	AC int32 // accumulator
	AR int32 // address register
	BR int32 // buffer register

	Z bool
	N bool
}

// updateFlags latches N and Z from result.
func (d *Datapath) updateFlags(result int32) {
	d.N = result < 0
	d.Z = result == 0
}

// apply runs sel through the ALU against the datapath's current BR/AC
// and latches the resulting flags, returning the computed value for
// the caller to route (into AC, into memory, into PC, ...).
func (d *Datapath) apply(sel Selector) int32 {
	res := aluExecute(sel, d.BR, d.AC)
	d.updateFlags(res.Value)
	return res.Value
}
