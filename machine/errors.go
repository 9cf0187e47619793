package machine

import (
	"errors"
	"fmt"

	"github.com/jscheid/vnmachine/isa"
)

// errDivisionByZero is returned when DIV or MOD executes with AC == 0.
var errDivisionByZero = errors.New("machine: division by zero")

func unknownOpcodeError(op isa.Opcode) error {
	return fmt.Errorf("machine: unknown opcode %s", op)
}
