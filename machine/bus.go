package machine

// DataBus carries a single 32-bit value between the CPU and whichever
// device the control unit last addressed. Exactly one sender writes it
// per tick; there's no arbitration to model because the command-cycle
// sequencing already guarantees that.
type DataBus struct {
	value int32
}

func (b *DataBus) Write(v int32) { b.value = v }
func (b *DataBus) Read() int32   { return b.value }

// InterruptLine is the single interrupt request line a device raises
// and the control unit polls and clears at the interrupt-check step of
// each command cycle. A discrete signal type, like DataBus above,
// rather than a bare boolean field on VM.
type InterruptLine struct {
	pending bool
}

// Raise asserts the line; called from SignalIntRequest when a device
// asks to be serviced and IE is set.
func (l *InterruptLine) Raise() { l.pending = true }

// Clear deasserts the line once the control unit has begun servicing
// the request.
func (l *InterruptLine) Clear() { l.pending = false }

// Pending reports whether the line is currently asserted.
func (l *InterruptLine) Pending() bool { return l.pending }
