package cache

import "sync/atomic"

// Switch gates whether cached associations touch the Store at all. When it is
// off every loader behaves like its uncached counterpart.
type Switch struct {
	on atomic.Bool
}

// NewSwitch returns a switch in the given state.
func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

var process = NewSwitch(false)

// Default returns the process-wide switch. It starts off.
func Default() *Switch {
	return process
}

// SetActive flips the process-wide switch.
func SetActive(on bool) {
	process.Set(on)
}

// Active reports the process-wide switch state.
func Active() bool {
	return process.Active()
}

// Active reports whether caching is on. A nil switch defers to the
// process-wide one.
func (s *Switch) Active() bool {
	if s == nil {
		return process.on.Load()
	}
	return s.on.Load()
}

// Set changes the state.
func (s *Switch) Set(on bool) {
	s.on.Store(on)
}

// Enable turns caching on and returns a func restoring the previous state,
// suitable for defer or t.Cleanup.
func (s *Switch) Enable() (restore func()) {
	prev := s.on.Swap(true)
	return func() { s.on.Store(prev) }
}

// Disable turns caching off and returns a func restoring the previous state.
func (s *Switch) Disable() (restore func()) {
	prev := s.on.Swap(false)
	return func() { s.on.Store(prev) }
}
