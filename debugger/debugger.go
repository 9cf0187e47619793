package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jscheid/vnmachine/machine"
)

// Debugger drives a machine.VM one Step at a time under interactive
// control. There is no watch-expression language, no symbol table
// beyond what the assembler already resolves into the image, and no
// call/return instructions to track call depth against, so commands
// operate directly on addresses and register names.
type Debugger struct {
	VM *machine.VM

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory

	Running     bool
	StepMode    StepMode
	LastCommand string
	MaxTicks    uint64
	LastStopWhy string
	Output      strings.Builder
}

// StepMode selects how far cmdContinue runs before stopping. There is
// no step-over or step-out: the machine has no call stack.
type StepMode int

const (
	StepNone StepMode = iota
	StepSingle
)

// NewDebugger creates a debugger attached to vm. historySize is
// forwarded to NewCommandHistory; maxTicks bounds a "continue" so a
// runaway program can't hang the session.
func NewDebugger(vm *machine.VM, historySize int, maxTicks uint64) *Debugger {
	return &Debugger{
		VM:          vm,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(historySize),
		StepMode:    StepNone,
		MaxTicks:    maxTicks,
	}
}

// ExecuteCommand processes and executes a single debugger command
// line. Empty input repeats the last command; non-empty input is
// recorded in history before dispatch.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}
	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "continue", "c", "run", "r":
		return d.cmdContinue()
	case "step", "s":
		return d.cmdStep()
	case "break", "b":
		return d.cmdBreak(args, false)
	case "tbreak", "tb":
		return d.cmdBreak(args, true)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnableDisable(args, true)
	case "disable":
		return d.cmdEnableDisable(args, false)
	case "watch", "w":
		return d.cmdWatch(args)
	case "unwatch":
		return d.cmdUnwatch(args)
	case "print", "p", "info", "i":
		d.cmdPrint()
		return nil
	case "quit", "q":
		d.Running = false
		return nil
	case "help", "h", "?":
		d.cmdHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func (d *Debugger) cmdStep() error {
	d.StepMode = StepSingle
	_, err := d.VM.Step()
	d.StepMode = StepNone
	if err != nil && err != machine.ErrHalt {
		return err
	}
	d.Println(d.registerLine())
	return nil
}

// cmdContinue steps the machine until ShouldBreak reports a stop
// reason, the machine halts, an error occurs, or MaxTicks is
// exceeded; the last case is reported as a plain stop, not an
// error, matching machine.VM.Run's tolerant treatment of tick
// overruns.
func (d *Debugger) cmdContinue() error {
	for {
		if d.MaxTicks > 0 && d.VM.Ticks >= d.MaxTicks {
			d.Println("stopped: tick limit reached")
			return nil
		}
		if stop, why := d.ShouldBreak(); stop {
			d.LastStopWhy = why
			d.Println("stopped: " + why)
			return nil
		}

		_, err := d.VM.Step()
		if err == machine.ErrHalt {
			d.Println("halted")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ShouldBreak checks stop conditions in priority order: step-mode
// first, then breakpoints, then watchpoints.
func (d *Debugger) ShouldBreak() (bool, string) {
	if d.StepMode == StepSingle {
		d.StepMode = StepNone
		return true, "single step"
	}

	if bp := d.Breakpoints.ProcessHit(d.VM.PC); bp != nil {
		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.VM); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Register)
	}

	return false, ""
}

func (d *Debugger) cmdBreak(args []string, temporary bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <address>")
	}
	addr, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid address: %s", args[0])
	}
	bp := d.Breakpoints.AddBreakpoint(int32(addr), temporary)
	d.Printf("breakpoint %d at %d\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id: %s", args[0])
	}
	return d.Breakpoints.DeleteBreakpoint(id)
}

func (d *Debugger) cmdEnableDisable(args []string, enabled bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: enable|disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id: %s", args[0])
	}
	if enabled {
		return d.Breakpoints.EnableBreakpoint(id)
	}
	return d.Breakpoints.DisableBreakpoint(id)
}

func (d *Debugger) cmdWatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: watch <register>")
	}
	wp, err := d.Watchpoints.AddWatchpoint(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.VM); err != nil {
		return err
	}
	d.Printf("watchpoint %d on %s\n", wp.ID, wp.Register)
	return nil
}

func (d *Debugger) cmdUnwatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unwatch <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id: %s", args[0])
	}
	return d.Watchpoints.DeleteWatchpoint(id)
}

func (d *Debugger) cmdPrint() {
	d.Println(d.registerLine())
	for _, bp := range d.Breakpoints.GetAllBreakpoints() {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		d.Printf("  bp %d @ %d (%s, hits=%d)\n", bp.ID, bp.Address, state, bp.HitCount)
	}
	for _, wp := range d.Watchpoints.GetAllWatchpoints() {
		d.Printf("  watch %d on %s (hits=%d)\n", wp.ID, wp.Register, wp.HitCount)
	}
}

func (d *Debugger) registerLine() string {
	vm := d.VM
	return fmt.Sprintf("PC=%d AC=%d AR=%d BR=%d Z=%t N=%t IE=%t IRQ=%t IS=%t ticks=%d",
		vm.PC, vm.AC, vm.AR, vm.BR, vm.Z, vm.N, vm.IE, vm.IRQ.Pending(), vm.IS, vm.Ticks)
}

func (d *Debugger) cmdHelp() {
	d.Println("commands: step(s) continue(c) break(b) tbreak(tb) delete(d)")
	d.Println("          enable disable watch(w) unwatch print(p) quit(q)")
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}
