// Package machine implements the datapath, ALU, control unit and
// memory-mapped I/O of the tick-accurate CPU simulator. Every memory
// access and micro-operation costs one tick; a command cycle's total
// tick count depends only on the opcode, the addressing mode and
// whether a branch was taken.
package machine

import (
	"errors"
	"fmt"
	"io"

	"github.com/jscheid/vnmachine/isa"
)

// ErrHalt is returned by Step once HLT has executed. It is not itself
// a failure; callers should treat it as the normal end of a run.
var ErrHalt = errors.New("machine: halt")

// asyncVector is the interrupt-vector slot every asynchronous IRQ
// dispatches through: the buffer source is loaded with 0 on async
// entry, so every device request lands on int0. VectorSource exists so
// a future revision can plug in per-device vector discovery without
// touching the command-cycle logic below.
const asyncVector int32 = 0

// VectorSource supplies the vector number used on an asynchronous
// interrupt entry. Exposed as a package variable, not hardwired into
// enterInterrupt, so tests (and a future device-identity scheme) can
// override it.
var VectorSource = func() int32 { return asyncVector }

// VM is the complete machine: datapath registers, memory, the I/O
// controller, and the control-unit state that drives them one command
// cycle at a time.
type VM struct {
	Datapath

	PC int32
	IR isa.Word

	IE  bool          // interrupt-enable
	IRQ InterruptLine // request pending
	IS  bool          // in-interrupt

	Ticks  uint64
	Halted bool

	Memory *Memory
	IO     *IOController
	Bus    DataBus

	// irqSource is the device slot that last raised IRQ, acknowledged
	// once the control unit begins servicing it. -1 means no device is
	// currently the source of a pending request.
	irqSource int

	// Trace, when non-nil, receives one TraceRecord per completed
	// command cycle. Disabled by default; the fixed machine.log tick
	// log is the caller's responsibility, not the VM's.
	Trace *Trace
}

// NewVM loads img into a fresh machine with memoryWords addressable
// words (memoryWords <= 0 selects DefaultMemoryWords), PC at
// MachineStartAddr, and consoleInput backing the reserved console
// device slot.
func NewVM(img isa.Image, memoryWords int, consoleInput io.Reader) *VM {
	if memoryWords <= 0 {
		memoryWords = DefaultMemoryWords
	}
	return &VM{
		PC:        isa.MachineStartAddr,
		Memory:    NewMemory(img, memoryWords),
		IO:        NewIOController(consoleInput),
		irqSource: -1,
	}
}

// SignalIntRequest marks the device at slot pending and, iff IE is
// set, raises IRQ.
func (vm *VM) SignalIntRequest(slot int) {
	dev, ok := vm.IO.DeviceAt(slot)
	if !ok {
		return
	}
	dev.MarkPending()
	if vm.IE {
		vm.IRQ.Raise()
		vm.irqSource = slot
	}
}

// Step runs exactly one command cycle: fetch, decode, operand fetch,
// execute, interrupt check. It returns the number of ticks the cycle
// consumed. ErrHalt signals normal termination via HLT; any other
// error is a runtime fault that ends the run.
func (vm *VM) Step() (int, error) {
	if vm.Halted {
		return 0, ErrHalt
	}

	ticks, err := vm.fetch()
	if err != nil {
		return ticks, err
	}

	ticks++ // decode: latch opcode + mode

	opTicks, err := vm.fetchOperand()
	ticks += opTicks
	if err != nil {
		return ticks, err
	}

	opcode := vm.IR.Opcode
	execTicks, execErr := vm.execute()
	ticks += execTicks
	vm.Ticks += uint64(ticks)
	if vm.Trace != nil {
		if traceErr := vm.Trace.record(vm, opcode); traceErr != nil {
			return ticks, traceErr
		}
	}

	// Interrupt check is the fifth command-cycle step and runs
	// unconditionally: even when execute signaled ErrHalt or a
	// runtime fault, its tick must still be counted (a bare HLT
	// costs 6 ticks, not 5).
	checkTicks, checkErr := vm.checkInterrupt()
	ticks += checkTicks
	vm.Ticks += uint64(checkTicks)

	if execErr != nil {
		return ticks, execErr
	}
	return ticks, checkErr
}

// Run drives Step until HLT, a runtime fault, or maxTicks is exceeded.
// A tick-limit overflow is reported as (warning=true, err=nil): it is
// a clean, non-fatal stop with whatever output the program produced so
// far.
func (vm *VM) Run(maxTicks uint64) (warning bool, err error) {
	for {
		if maxTicks > 0 && vm.Ticks >= maxTicks {
			return true, nil
		}
		_, err := vm.Step()
		if err != nil {
			if errors.Is(err, ErrHalt) {
				return false, nil
			}
			return false, err
		}
	}
}

func (vm *VM) fetch() (int, error) {
	word, err := vm.Memory.At(vm.PC)
	if err != nil {
		return 1, fmt.Errorf("machine: fetch at PC=%d: %w", vm.PC, err)
	}
	vm.IR = word
	vm.PC++
	if vm.IR.Kind != isa.InstructionWord {
		return 2, fmt.Errorf("machine: PC=%d does not hold an instruction", vm.PC-1)
	}
	return 2, nil
}

func (vm *VM) fetchOperand() (int, error) {
	op := vm.IR.Opcode
	if op.IsNoOperand() {
		return 1, nil
	}

	arg := *vm.IR.Arg
	switch *vm.IR.Mode {
	case isa.Value:
		vm.BR = arg
		return 1, nil
	case isa.Direct:
		vm.AR = arg
		v, err := vm.Memory.ReadData(vm.AR)
		if err != nil {
			return 2, err
		}
		vm.BR = v
		return 2, nil
	case isa.Indirect:
		vm.AR = arg
		v1, err := vm.Memory.ReadData(vm.AR)
		if err != nil {
			return 4, err
		}
		vm.AR = v1
		v2, err := vm.Memory.ReadData(vm.AR)
		if err != nil {
			return 4, err
		}
		vm.BR = v2
		return 4, nil
	default:
		return 0, fmt.Errorf("machine: unknown addressing mode on opcode %s", op)
	}
}

// checkInterrupt is the fifth command-cycle step. The check itself
// always costs one tick; entering an interrupt costs three more (save
// AC, save PC, load the handler address), on top of that baseline.
func (vm *VM) checkInterrupt() (int, error) {
	if !vm.IRQ.Pending() || vm.IS {
		return 1, nil
	}
	vm.IRQ.Clear()
	if dev, ok := vm.IO.DeviceAt(vm.irqSource); ok {
		dev.Acknowledge()
	}
	vm.irqSource = -1
	if err := vm.enterInterrupt(VectorSource()); err != nil {
		return 1 + 3, err
	}
	return 1 + 3, nil
}

// enterInterrupt runs the shared prologue for both synchronous INT and
// asynchronous entry: save AC/PC into their reserved slots, then load
// PC from the handler address stored at the given vector slot.
func (vm *VM) enterInterrupt(vector int32) error {
	if err := vm.Memory.WriteData(isa.IntAccIndex, vm.AC); err != nil {
		return err
	}
	if err := vm.Memory.WriteData(isa.IntPCIndex, vm.PC); err != nil {
		return err
	}
	handler, err := vm.Memory.ReadData(vector)
	if err != nil {
		return err
	}
	vm.PC = handler
	vm.IS = true
	return nil
}
