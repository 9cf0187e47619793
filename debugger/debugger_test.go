package debugger_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/jscheid/vnmachine/asm"
	"github.com/jscheid/vnmachine/debugger"
	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDebugger(t *testing.T, src string) *debugger.Debugger {
	t.Helper()
	img, err := asm.Assemble(src)
	require.NoError(t, err)
	vm := machine.NewVM(img, 0, strings.NewReader(""))
	return debugger.NewDebugger(vm, 100, 1000)
}

func TestStepAdvancesOneCommandCycle(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: ld 5\nhlt")

	require.NoError(t, d.ExecuteCommand("step"))
	assert.Equal(t, int32(5), d.VM.AC)
	assert.Contains(t, d.GetOutput(), "AC=5")
}

func TestEmptyCommandRepeatsLast(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: inc\ninc\nhlt")

	require.NoError(t, d.ExecuteCommand("step"))
	d.GetOutput()
	require.NoError(t, d.ExecuteCommand(""))
	assert.Equal(t, int32(2), d.VM.AC)
}

func TestBreakpointStopsContinueAtAddress(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: nop\nnop\nhlt")

	target := isa.MachineStartAddr + 1
	require.NoError(t, d.ExecuteCommand("break "+strconv.Itoa(target)))
	require.NoError(t, d.ExecuteCommand("continue"))

	assert.Equal(t, int32(target), d.VM.PC)
	assert.Contains(t, d.GetOutput(), "breakpoint 1")
}

func TestTemporaryBreakpointIsConsumedOnHit(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: nop\nnop\nhlt")

	target := isa.MachineStartAddr + 1
	require.NoError(t, d.ExecuteCommand("tbreak "+strconv.Itoa(target)))
	require.NoError(t, d.ExecuteCommand("continue"))

	assert.False(t, d.Breakpoints.HasBreakpoint(int32(target)))
}

func TestDeleteEnableDisableBreakpoint(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: nop\nhlt")

	require.NoError(t, d.ExecuteCommand("break 12"))
	require.NoError(t, d.ExecuteCommand("disable 1"))
	bp := d.Breakpoints.GetBreakpoint(12)
	require.NotNil(t, bp)
	assert.False(t, bp.Enabled)

	require.NoError(t, d.ExecuteCommand("enable 1"))
	assert.True(t, bp.Enabled)

	require.NoError(t, d.ExecuteCommand("delete 1"))
	assert.Nil(t, d.Breakpoints.GetBreakpoint(12))
}

func TestWatchStopsContinueOnRegisterChange(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: nop\nld 7\nhlt")

	require.NoError(t, d.ExecuteCommand("watch ac"))
	require.NoError(t, d.ExecuteCommand("continue"))

	assert.Equal(t, int32(7), d.VM.AC)
	assert.Contains(t, d.GetOutput(), "watchpoint 1: ac")
}

func TestContinueRunsToHaltWithoutBreakpoints(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: nop\nnop\nhlt")

	require.NoError(t, d.ExecuteCommand("continue"))
	assert.True(t, d.VM.Halted)
	assert.Contains(t, d.GetOutput(), "halted")
}

func TestUnknownCommandReturnsError(t *testing.T) {
	d := newDebugger(t, "section .text:\n_start: hlt")
	assert.Error(t, d.ExecuteCommand("frobnicate"))
}

