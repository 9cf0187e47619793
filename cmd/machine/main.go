// Command machine loads a JSON machine image and runs it. Argument
// parsing and device/logging wiring only; the tick-accurate execution
// itself lives entirely in the machine package.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/jscheid/vnmachine/config"
	"github.com/jscheid/vnmachine/debugger"
	"github.com/jscheid/vnmachine/isa"
	"github.com/jscheid/vnmachine/machine"
)

// outputSlot is the device slot program output goes through: port 3,
// the conventional output port, resolves to slot 1 (port 2k+1, k=1).
const outputSlot = 1

func main() {
	app := cli.NewApp()
	app.Name = "machine"
	app.Usage = "run a JSON machine image against an optional input schedule"
	app.ArgsUsage = "<image.bin> <schedule>"
	app.Flags = []cli.Flag{
		cli.Uint64Flag{
			Name:  "max-ticks",
			Usage: "override the configured tick limit (0 = unlimited)",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "write a JSON-lines execution trace",
		},
		cli.StringFlag{
			Name:  "trace-file",
			Usage: "override the configured trace output path",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "launch the step debugger TUI instead of running headlessly",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("expected exactly 2 arguments: <image.bin> <schedule>", 1)
	}
	imagePath := c.Args().Get(0)
	schedulePath := c.Args().Get(1)

	cfg, err := config.Load()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("loading config: %v", err), 1)
	}

	logger, closeLog, err := openMachineLog()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("opening log: %v", err), 1)
	}
	defer closeLog()

	imgBytes, err := os.ReadFile(imagePath) // #nosec G304 -- CLI-supplied path
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("cannot read %s: %v", imagePath, err), 1)
	}
	img, err := isa.Decode(imgBytes)
	if err != nil {
		logger.Printf("decoding %s: %v", imagePath, err)
		return cli.NewExitError(fmt.Sprintf("decode failed: %v", err), 1)
	}

	schedFile, err := os.Open(schedulePath) // #nosec G304 -- CLI-supplied path
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("cannot read %s: %v", schedulePath, err), 1)
	}
	sched, err := parseSchedule(schedFile)
	_ = schedFile.Close()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid schedule: %v", err), 1)
	}

	vm := machine.NewVM(img, cfg.Execution.MemoryWords, os.Stdin)
	if err := vm.IO.Attach(outputSlot, machine.NewOutputDevice(os.Stdout)); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	maxTicks := cfg.Execution.MaxTicks
	if c.IsSet("max-ticks") {
		maxTicks = c.Uint64("max-ticks")
	}

	if c.Bool("trace") || cfg.Trace.Enabled {
		traceFile, closeTrace, err := openTraceFile(c, cfg)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("opening trace file: %v", err), 1)
		}
		defer closeTrace()
		vm.Trace = machine.NewTrace(traceFile)
	}

	if c.Bool("debug") {
		dbg := debugger.NewDebugger(vm, cfg.Debugger.HistorySize, maxTicks)
		return debugger.RunTUI(dbg)
	}

	warning, err := runWithSchedule(vm, sched, maxTicks)
	if err != nil {
		logger.Printf("runtime error: %v", err)
		return cli.NewExitError(fmt.Sprintf("runtime error: %v", err), 1)
	}
	if warning {
		logger.Printf("tick limit %d exceeded; stopped with partial output", maxTicks)
	}
	logger.Printf("completed: %d ticks, halted=%t", vm.Ticks, vm.Halted)
	return nil
}

// runWithSchedule drives vm one command cycle at a time, injecting
// scheduled console input before any cycle whose start tick has
// reached the next pending entry. It steps the VM directly instead of
// calling machine.VM.Run because the schedule needs to observe
// vm.Ticks between cycles.
func runWithSchedule(vm *machine.VM, sched []scheduleEntry, maxTicks uint64) (warning bool, err error) {
	idx := 0
	for {
		if maxTicks > 0 && vm.Ticks >= maxTicks {
			return true, nil
		}
		for idx < len(sched) && vm.Ticks >= uint64(sched[idx].Tick) {
			vm.IO.Console().Inject(sched[idx].Ch)
			vm.SignalIntRequest(machine.ConsoleSlot)
			idx++
		}

		_, stepErr := vm.Step()
		if stepErr != nil {
			if errors.Is(stepErr, machine.ErrHalt) {
				return false, nil
			}
			return false, stepErr
		}
	}
}

func openMachineLog() (*log.Logger, func(), error) {
	path := filepath.Join(config.GetLogPath(), "machine.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- fixed, config-derived path
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }, nil
}

func openTraceFile(c *cli.Context, cfg *config.Config) (*os.File, func(), error) {
	path := cfg.Trace.OutputFile
	if c.IsSet("trace-file") {
		path = c.String("trace-file")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- config/CLI-supplied path
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
