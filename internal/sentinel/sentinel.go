package sentinel

var _ error = Error("")

// Error is the type of every portshim sentinel, such as the bind failure and
// stop timeout errors. Declared as const, a sentinel cannot be reassigned by
// an importing package, and errors.Is finds it behind any number of %w
// wrappers because equal text means equal values.
type Error string

// Error returns the message.
func (e Error) Error() string {
	return string(e)
}
