package kernel

import "fmt"

// AlreadyRunError indicates a re-entrancy bug in the caller: stepping a
// complete sim, finalizing twice, or re-initializing without constructing a
// new sim. These are never silently ignored.
type AlreadyRunError struct {
	Msg string
}

func (e *AlreadyRunError) Error() string { return e.Msg }

func alreadyRun(format string, args ...any) error {
	return &AlreadyRunError{Msg: fmt.Sprintf(format, args...)}
}

// MissingModuleError indicates a module declared a requirement that is
// absent from the simulation's module set. Raised at initialization so the
// failure is detected before any simulated time elapses.
type MissingModuleError struct {
	Module   string
	Requires string
}

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("module %q requires module %q but the sim does not contain it", e.Module, e.Requires)
}
