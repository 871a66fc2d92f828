package terminal

// Terminator kills a shell process together with every process it spawned.
// One implementation exists per OS family, selected at build time.
type Terminator interface {
	Terminate(pid int) error
}

// TerminatorFunc adapts a function to the Terminator interface.
type TerminatorFunc func(pid int) error

// Terminate calls f(pid).
func (f TerminatorFunc) Terminate(pid int) error { return f(pid) }
