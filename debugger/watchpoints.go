package debugger

import (
	"fmt"
	"sync"

	"github.com/jscheid/vnmachine/machine"
)

// Watchpoint fires when a named register or flag changes value.
// Register is one of "ac", "ar", "br", "pc", "z", "n", "ie", "irq",
// "is", one named field per watch; the register file is small enough
// that no expression language is needed.
type Watchpoint struct {
	ID       int
	Register string
	Enabled  bool
	HitCount int
	last     int64
	haveLast bool
}

// WatchpointManager manages all watchpoints.
type WatchpointManager struct {
	mu          sync.Mutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates a new watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint registers a new watch on register, which must be one
// of the names readRegister recognizes.
func (wm *WatchpointManager) AddWatchpoint(register string) (*Watchpoint, error) {
	if _, err := readRegister(nil, register); err != nil {
		return nil, err
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{ID: wm.nextID, Register: register, Enabled: true}
	wm.watchpoints[wp.ID] = wp
	wm.nextID++
	return wp, nil
}

// DeleteWatchpoint removes a watchpoint by ID.
func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(wm.watchpoints, id)
	return nil
}

// EnableWatchpoint enables a watchpoint by ID.
func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	return wm.setEnabled(id, true)
}

// DisableWatchpoint disables a watchpoint by ID.
func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	return wm.setEnabled(id, false)
}

func (wm *WatchpointManager) setEnabled(id int, enabled bool) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	wp.Enabled = enabled
	return nil
}

// GetWatchpoint gets a watchpoint by ID.
func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	return wm.watchpoints[id]
}

// GetAllWatchpoints returns every watchpoint, in no particular order.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}
	return result
}

// InitializeWatchpoint seeds a watchpoint's last-known value without
// treating it as a change, so the first CheckWatchpoints call after
// arming doesn't spuriously fire.
func (wm *WatchpointManager) InitializeWatchpoint(id int, vm *machine.VM) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	v, err := readRegister(vm, wp.Register)
	if err != nil {
		return err
	}
	wp.last, wp.haveLast = v, true
	return nil
}

// CheckWatchpoints evaluates every enabled watchpoint against vm's
// current state, returning the first whose value changed since the
// last check (or initialization).
func (wm *WatchpointManager) CheckWatchpoints(vm *machine.VM) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}
		v, err := readRegister(vm, wp.Register)
		if err != nil {
			continue
		}
		changed := wp.haveLast && v != wp.last
		wp.last, wp.haveLast = v, true
		if changed {
			wp.HitCount++
			return wp, true
		}
	}
	return nil, false
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	return len(wm.watchpoints)
}

// readRegister reads a named register/flag off vm as an int64. Called
// with vm == nil purely to validate that name is recognized.
func readRegister(vm *machine.VM, name string) (int64, error) {
	if vm == nil {
		switch name {
		case "ac", "ar", "br", "pc", "z", "n", "ie", "irq", "is":
			return 0, nil
		default:
			return 0, fmt.Errorf("unknown register %q", name)
		}
	}

	switch name {
	case "ac":
		return int64(vm.AC), nil
	case "ar":
		return int64(vm.AR), nil
	case "br":
		return int64(vm.BR), nil
	case "pc":
		return int64(vm.PC), nil
	case "z":
		return boolToInt64(vm.Z), nil
	case "n":
		return boolToInt64(vm.N), nil
	case "ie":
		return boolToInt64(vm.IE), nil
	case "irq":
		return boolToInt64(vm.IRQ.Pending()), nil
	case "is":
		return boolToInt64(vm.IS), nil
	default:
		return 0, fmt.Errorf("unknown register %q", name)
	}
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
