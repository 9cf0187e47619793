package debugger

// DisplayUpdateFrequency is not read by the TUI: the panes are
// repainted once after each command, including after a whole
// "continue", and not during one.
const DisplayUpdateFrequency = 200

// MemoryViewRows is the number of memory words shown in the TUI's
// memory pane, centered on the current PC.
const MemoryViewRows = 16
