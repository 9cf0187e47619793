package machine

import "github.com/jscheid/vnmachine/isa"

// execute runs the decoded instruction's execute step and returns its
// tick cost.
func (vm *VM) execute() (int, error) {
	op := vm.IR.Opcode

	switch op {
	case isa.LD:
		vm.AC = vm.apply(Selector{Load: LatchLeft, Neg: LatchNone, Inc: LatchNone, Dec: LatchNone, Op: OpOr})
		return 1, nil

	case isa.ST:
		vm.AR = vm.BR
		if err := vm.Memory.WriteData(vm.AR, vm.AC); err != nil {
			return 2, err
		}
		return 2, nil

	case isa.ADD, isa.SUB, isa.MUL, isa.DIV, isa.MOD, isa.AND, isa.OR:
		if (op == isa.DIV || op == isa.MOD) && vm.AC == 0 {
			return 1, errDivisionByZero
		}
		vm.AC = vm.apply(Selector{Load: LatchBoth, Neg: LatchNone, Inc: LatchNone, Dec: LatchNone, Op: arithOp(op)})
		return 1, nil

	case isa.CMP:
		vm.apply(Selector{Load: LatchBoth, Neg: LatchNone, Inc: LatchNone, Dec: LatchNone, Op: OpSub})
		return 1, nil

	case isa.INC:
		vm.AC = vm.apply(Selector{Load: LatchRight, Neg: LatchNone, Inc: LatchRight, Dec: LatchNone, Op: OpAdd})
		return 1, nil

	case isa.DEC:
		vm.AC = vm.apply(Selector{Load: LatchRight, Neg: LatchNone, Inc: LatchNone, Dec: LatchRight, Op: OpAdd})
		return 1, nil

	case isa.LSL:
		vm.AC = vm.apply(Selector{Load: LatchRight, Neg: LatchNone, Inc: LatchNone, Dec: LatchNone, Op: OpLsl})
		return 1, nil

	case isa.ASR:
		vm.AC = vm.apply(Selector{Load: LatchRight, Neg: LatchNone, Inc: LatchNone, Dec: LatchNone, Op: OpAsr})
		return 1, nil

	case isa.JMP:
		vm.PC = vm.BR
		return 1, nil

	case isa.JZ:
		if vm.Z {
			vm.PC = vm.BR
		}
		return 1, nil
	case isa.JNZ:
		if !vm.Z {
			vm.PC = vm.BR
		}
		return 1, nil
	case isa.JN:
		if vm.N {
			vm.PC = vm.BR
		}
		return 1, nil
	case isa.JP:
		if !vm.N {
			vm.PC = vm.BR
		}
		return 1, nil

	case isa.IN:
		v, err := vm.IO.Read(vm.BR)
		if err != nil {
			return 2, err
		}
		vm.Bus.Write(v)
		vm.AC = vm.Bus.Read()
		return 2, nil

	case isa.OUT:
		vm.Bus.Write(vm.AC)
		if err := vm.IO.Write(vm.BR, vm.Bus.Read()); err != nil {
			return 1, err
		}
		return 1, nil

	case isa.ENI:
		vm.IE = true
		return 1, nil
	case isa.DII:
		vm.IE = false
		return 1, nil

	case isa.INT:
		if err := vm.enterInterrupt(vm.BR); err != nil {
			return 3, err
		}
		return 3, nil

	case isa.FI:
		acc, err := vm.Memory.ReadData(isa.IntAccIndex)
		if err != nil {
			return 3, err
		}
		pc, err := vm.Memory.ReadData(isa.IntPCIndex)
		if err != nil {
			return 3, err
		}
		vm.AC = acc
		vm.PC = pc
		vm.IS = false
		return 3, nil

	case isa.NOP:
		return 1, nil

	case isa.HLT:
		vm.Halted = true
		return 1, ErrHalt

	default:
		return 0, unknownOpcodeError(op)
	}
}

// arithOp maps the shared-shape opcodes (AC ← ALU(BR op AC)) to their
// ALU operation.
func arithOp(op isa.Opcode) Op {
	switch op {
	case isa.ADD:
		return OpAdd
	case isa.SUB:
		return OpSub
	case isa.MUL:
		return OpMul
	case isa.DIV:
		return OpDiv
	case isa.MOD:
		return OpMod
	case isa.AND:
		return OpAnd
	default: // isa.OR
		return OpOr
	}
}
