package errors

import "fmt"

// InternalError is raised by a panic when a phase finds an invariant
// violation that should have been impossible given well-formed upstream
// output — an ObjectRef surviving name binding, a Case statement
// surviving enum lowering, and so on. The CLI driver recovers these and reports
// them distinctly from ordinary diagnostics.
type InternalError struct {
	Phase   string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error in phase %q: %s", e.Phase, e.Message)
}

// Panic raises an InternalError.
func Panic(phase, format string, args ...any) {
	panic(&InternalError{Phase: phase, Message: fmt.Sprintf(format, args...)})
}
