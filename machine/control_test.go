package machine_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jscheid/vnmachine/asm"
	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(t *testing.T, src string) isa.Image {
	t.Helper()
	img, err := asm.Assemble(src)
	require.NoError(t, err)
	return img
}

func TestMinimalHaltStopsAtExpectedPCAndTicks(t *testing.T) {
	img := assemble(t, "section .text:\n_start: hlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	warning, err := vm.Run(0)
	require.NoError(t, err)
	assert.False(t, warning)

	assert.True(t, vm.Halted)
	assert.Equal(t, int32(isa.MachineStartAddr+1), vm.PC)
	assert.Equal(t, uint64(6), vm.Ticks)
}

func TestDataSectionExpandsStringLiteralByteByByte(t *testing.T) {
	img := assemble(t, "section .data:\nmsg: 5 \"hello\"\nsection .text:\n_start: hlt")

	dataStart := isa.VectorLength + 1
	for i, r := range "hello" {
		assert.Equal(t, int32(r), img[dataStart+1+i].Value)
	}
}

func TestOutputDeviceWritesByteAtPort3(t *testing.T) {
	var out strings.Builder
	img := assemble(t, "section .text:\n_start: ld 65\nout 3\nhlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))
	require.NoError(t, vm.IO.Attach(1, machine.NewOutputDevice(&out)))

	_, err := vm.Run(0)
	require.NoError(t, err)
	assert.Equal(t, "A", out.String())
}

func TestCatEchoesConsoleInputUntilLF(t *testing.T) {
	var out strings.Builder
	img := assemble(t, "section .text:\n"+
		"_start: in 13\n"+
		"out 3\n"+
		"cmp 10\n"+
		"jz done\n"+
		"jmp _start\n"+
		"done: hlt\n")
	vm := machine.NewVM(img, 0, strings.NewReader("a\n"))
	require.NoError(t, vm.IO.Attach(1, machine.NewOutputDevice(&out)))

	_, err := vm.Run(100000)
	require.NoError(t, err)
	assert.Equal(t, "a\n", out.String())
}

func TestTickCostDependsOnlyOnOpcodeAndMode(t *testing.T) {
	// The addressing mode alone decides the operand-fetch cost: one
	// tick for an immediate, two for one memory level, four for two.
	cases := []struct {
		name      string
		src       string
		wantTicks int
	}{
		{
			"value operand",
			"section .text:\n_start: ld 7\nhlt",
			6, // fetch 2 + decode 1 + operand 1 + execute 1 + check 1
		},
		{
			"direct operand",
			"section .data:\nx: 7\nsection .text:\n_start: ld *x\nhlt",
			7,
		},
		{
			// p holds x's absolute address: 11 vector slots, then the
			// two statements, put x at 13.
			"indirect operand",
			"section .data:\nx: 7\np: 13\nsection .text:\n_start: ld **p\nhlt",
			9,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vm := machine.NewVM(assemble(t, c.src), 0, strings.NewReader(""))
			ticks, err := vm.Step()
			require.NoError(t, err)
			assert.Equal(t, c.wantTicks, ticks)
			assert.Equal(t, int32(7), vm.AC)
		})
	}
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	img := assemble(t, "section .text:\n_start: div 0\nhlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	_, err := vm.Run(0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, machine.ErrHalt))
}

func TestRunWarnsOnTickLimitOverflowWithoutError(t *testing.T) {
	img := assemble(t, "section .text:\n_start: nop\njmp _start")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	warning, err := vm.Run(20)
	require.NoError(t, err)
	assert.True(t, warning)
	assert.False(t, vm.Halted)
}

func TestInterruptHandlerRunsExactlyOnceAndClearsIS(t *testing.T) {
	img := assemble(t, "section .text:\n"+
		"_start: ld handler\n"+
		"st int0\n"+
		"eni\n"+
		"loop: nop\n"+
		"jmp loop\n"+
		"handler: ld 88\n"+
		"out 3\n"+
		"fi\n")
	var out strings.Builder
	vm := machine.NewVM(img, 0, strings.NewReader(""))
	require.NoError(t, vm.IO.Attach(1, machine.NewOutputDevice(&out)))
	source := machine.NewOutputDevice(io.Discard)
	require.NoError(t, vm.IO.Attach(0, source))

	for i := 0; i < 3; i++ { // ld handler; st int0; eni
		_, err := vm.Step()
		require.NoError(t, err)
	}

	vm.SignalIntRequest(0)
	assert.Equal(t, int32(1), source.Int(), "signaling latches the device's status register")

	for i := 0; i < 8; i++ {
		_, err := vm.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, "X", out.String())
	assert.False(t, vm.IS)
	assert.False(t, vm.IRQ.Pending())
	assert.Equal(t, int32(0), source.Int(), "servicing the interrupt acknowledges the originating device")
}

func TestSignalIntRequestIgnoredWithoutIE(t *testing.T) {
	img := assemble(t, "section .text:\n_start: nop")
	vm := machine.NewVM(img, 0, strings.NewReader(""))
	require.NoError(t, vm.IO.Attach(0, machine.NewOutputDevice(io.Discard)))
	vm.SignalIntRequest(0)
	assert.False(t, vm.IRQ.Pending())
}

func TestHelloPrintsEachCharacterOfStringLiteral(t *testing.T) {
	var out strings.Builder
	img := assemble(t, "section .data:\n"+
		"msg: 5 \"hello\"\n"+
		"section .text:\n"+
		"_start: ld *msg+1\n"+
		"out 3\n"+
		"ld *msg+2\n"+
		"out 3\n"+
		"ld *msg+3\n"+
		"out 3\n"+
		"ld *msg+4\n"+
		"out 3\n"+
		"ld *msg+5\n"+
		"out 3\n"+
		"hlt\n")
	vm := machine.NewVM(img, 0, strings.NewReader(""))
	require.NoError(t, vm.IO.Attach(1, machine.NewOutputDevice(&out)))

	_, err := vm.Run(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.String())
}

func TestSumOfMultiplesOfThreeOrFiveBelowThousand(t *testing.T) {
	// The binary ops compute operand-op-AC, so each modulo loads the
	// divisor into AC first and takes the running value through the
	// operand side; same for the place-value divisions when printing.
	src := "section .data:\n" +
		"sum: 0\n" +
		"i: 1\n" +
		"q: 0\n" +
		"section .text:\n" +
		"_start: ld *i\n" +
		"cmp 1000\n" +
		"jz emit\n" +
		"ld 3\n" +
		"mod *i\n" +
		"jz keep\n" +
		"ld 5\n" +
		"mod *i\n" +
		"jz keep\n" +
		"jmp next\n" +
		"keep: ld *i\n" +
		"add *sum\n" +
		"st sum\n" +
		"next: ld *i\n" +
		"inc\n" +
		"st i\n" +
		"jmp _start\n" +
		"emit:\n"
	for _, place := range []int{100000, 10000, 1000, 100, 10, 1} {
		src += fmt.Sprintf("ld %d\ndiv *sum\nst q\nld 10\nmod *q\nadd 48\nout 3\n", place)
	}
	src += "hlt\n"

	var out strings.Builder
	vm := machine.NewVM(assemble(t, src), 0, strings.NewReader(""))
	require.NoError(t, vm.IO.Attach(1, machine.NewOutputDevice(&out)))

	warning, err := vm.Run(5000000)
	require.NoError(t, err)
	assert.False(t, warning)
	assert.Equal(t, "233168", out.String())
}

func TestALULoadIncDecFlagsConsistency(t *testing.T) {
	img := assemble(t, "section .text:\n_start: ld 0\ninc\ndec\nhlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	_, err := vm.Run(0)
	require.NoError(t, err)
	assert.Equal(t, int32(0), vm.AC)
	assert.True(t, vm.Z)
	assert.False(t, vm.N)
}

func TestJumpZeroTakenWhenFlagSet(t *testing.T) {
	img := assemble(t, "section .text:\n"+
		"_start: ld 0\n"+
		"cmp 0\n"+
		"jz taken\n"+
		"hlt\n"+
		"taken: nop\n"+
		"hlt\n")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	_, err := vm.Run(0)
	require.NoError(t, err)

	var takenIdx int32
	for _, w := range img {
		if lbl, ok := w.LabelOf(); ok && lbl == "taken" {
			takenIdx = int32(w.Index)
		}
	}
	assert.Greater(t, vm.PC, takenIdx)
}
