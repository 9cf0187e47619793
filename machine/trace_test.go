package machine_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jscheid/vnmachine/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRecordsOneLinePerCommandCycle(t *testing.T) {
	img := assemble(t, "section .text:\n_start: inc\ninc\nhlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	var buf bytes.Buffer
	vm.Trace = machine.NewTrace(&buf)

	_, err := vm.Run(0)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var last machine.TraceRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, "increment", last.Opcode)
	assert.Equal(t, int32(2), last.AC)
}

func TestNilTraceDoesNotAffectExecution(t *testing.T) {
	img := assemble(t, "section .text:\n_start: hlt")
	vm := machine.NewVM(img, 0, strings.NewReader(""))

	_, err := vm.Run(0)
	require.NoError(t, err)
	assert.True(t, vm.Halted)
}
