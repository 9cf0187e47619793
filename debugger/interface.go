package debugger

import (
	"bufio"
	"fmt"
	"io"
)

// RunCLI drives dbg from an interactive read-eval-print loop: each
// line typed at prompt is handed to ExecuteCommand, and whatever ends
// up in dbg.Output is flushed to out before the next prompt. There is
// no readline-style history navigation; CommandHistory.Add already
// records everything ExecuteCommand sees.
func RunCLI(dbg *Debugger, in io.Reader, out io.Writer, prompt string) error {
	scanner := bufio.NewScanner(in)
	dbg.Running = true

	for dbg.Running {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			break
		}

		if err := dbg.ExecuteCommand(scanner.Text()); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		fmt.Fprint(out, dbg.GetOutput())
	}

	return scanner.Err()
}

// RunTUI launches the tview/tcell step debugger front end over dbg.
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
