package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// scheduleEntry is one (tick, char) pair from an input schedule file:
// the character to inject into the console device and the tick at
// which it becomes available.
type scheduleEntry struct {
	Tick int64
	Ch   rune
}

// parseSchedule reads one entry per non-blank line: a decimal tick,
// whitespace, then a single Go rune literal (e.g. 'a', '\n'). An empty
// file is a valid, empty schedule.
func parseSchedule(r io.Reader) ([]scheduleEntry, error) {
	var entries []scheduleEntry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sep := strings.IndexAny(line, " \t")
		if sep < 0 {
			return nil, fmt.Errorf("schedule line %d: expected \"<tick> '<char>'\", got %q", lineNo, line)
		}

		tick, err := strconv.ParseInt(line[:sep], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("schedule line %d: invalid tick: %w", lineNo, err)
		}

		literal := strings.TrimSpace(line[sep+1:])
		unquoted, err := strconv.Unquote(literal)
		if err != nil || len([]rune(unquoted)) != 1 {
			return nil, fmt.Errorf("schedule line %d: invalid char literal %q", lineNo, literal)
		}

		entries = append(entries, scheduleEntry{Tick: tick, Ch: []rune(unquoted)[0]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
