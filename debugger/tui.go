package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jscheid/vnmachine/isa"
)

// TUI is the tview/tcell step debugger front end: a register pane, a
// memory pane scrolling around PC, a breakpoints/watchpoints pane, an
// output log and a command line, laid out as a Flex of TextViews with
// an InputField-driven command loop. There is no source pane: the
// assembler does not carry a source map from the image back to the
// original .asm text.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex

	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress int32
}

// NewTUI builds a TUI bound to dbg, laid out but not yet running.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{
		Debugger:      dbg,
		App:           tview.NewApplication(),
		MemoryAddress: -1, // sentinel: follow PC until the user scrolls
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints / Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 8, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.MemoryView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 3, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.executeCommand(cmd)
	t.CommandInput.SetText("")
	if !t.Debugger.Running {
		t.App.Stop()
	}
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	if output := t.Debugger.GetOutput(); output != "" {
		t.WriteOutput(output)
	}
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output log and scrolls to the end.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll repaints every pane from the current VM state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateMemoryView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	vm := t.Debugger.VM
	lines := []string{
		fmt.Sprintf("PC: %-10d AC: %d", vm.PC, vm.AC),
		fmt.Sprintf("AR: %-10d BR: %d", vm.AR, vm.BR),
		"",
		fmt.Sprintf("Z: %s  N: %s", flagGlyph(vm.Z), flagGlyph(vm.N)),
		fmt.Sprintf("IE: %s  IRQ: %s  IS: %s", flagGlyph(vm.IE), flagGlyph(vm.IRQ.Pending()), flagGlyph(vm.IS)),
		"",
		fmt.Sprintf("ticks: %d", vm.Ticks),
	}
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func flagGlyph(b bool) string {
	if b {
		return "[green]1[white]"
	}
	return "0"
}

// updateMemoryView shows MemoryViewRows words centered on either the
// user's scrolled-to address or the current PC.
func (t *TUI) updateMemoryView() {
	vm := t.Debugger.VM
	center := t.MemoryAddress
	if center < 0 {
		center = vm.PC
	}

	start := center - MemoryViewRows/2
	if start < 0 {
		start = 0
	}

	var lines []string
	for addr := start; addr < start+MemoryViewRows; addr++ {
		word, err := vm.Memory.At(addr)
		if err != nil {
			break
		}

		marker := "  "
		if addr == vm.PC {
			marker = "->"
		}
		if t.Debugger.Breakpoints.HasBreakpoint(addr) {
			marker = "* "
		}

		lines = append(lines, fmt.Sprintf("%s %4d: %s", marker, addr, formatWord(word)))
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func formatWord(w isa.Word) string {
	if w.Kind == isa.DataWord {
		label := ""
		if l, ok := w.LabelOf(); ok {
			label = " <" + l + ">"
		}
		return fmt.Sprintf("data  %d%s", w.Value, label)
	}

	arg := ""
	if w.Arg != nil {
		mode := ""
		if w.Mode != nil {
			mode = w.Mode.String() + " "
		}
		arg = fmt.Sprintf(" %s%d", mode, *w.Arg)
	}
	label := ""
	if l, ok := w.LabelOf(); ok {
		label = " <" + l + ">"
	}
	return fmt.Sprintf("%s%s%s", w.Opcode, arg, label)
}

func (t *TUI) updateBreakpointsView() {
	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) == 0 {
		lines = append(lines, "[yellow]no breakpoints[white]")
	}
	for _, bp := range bps {
		status := "[green]enabled[white]"
		if !bp.Enabled {
			status = "[red]disabled[white]"
		}
		lines = append(lines, fmt.Sprintf("  %d: %s @ %d (hits=%d)", bp.ID, status, bp.Address, bp.HitCount))
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) == 0 {
		lines = append(lines, "[yellow]no watchpoints[white]")
	}
	for _, wp := range wps {
		lines = append(lines, fmt.Sprintf("  %d: watch %s (hits=%d)", wp.ID, wp.Register, wp.HitCount))
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI event loop; it returns once the application is
// stopped, either via Ctrl-C or the "quit" command clearing
// Debugger.Running.
func (t *TUI) Run() error {
	t.Debugger.Running = true
	t.RefreshAll()
	t.WriteOutput("[green]step debugger[white] (F1 help, F5 continue, F11 step, ctrl-c quit)\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop halts the TUI's event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
