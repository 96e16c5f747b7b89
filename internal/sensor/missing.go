package sensor

// Missing stands in for a sensor that failed to initialize. Every read
// fails with the initialization error, which keeps the light in its error
// state without special cases in the loop.
type Missing struct {
	Err error
}

// Touched always fails.
func (m Missing) Touched() (uint16, error) {
	if m.Err == nil {
		return 0, ErrNotDetected
	}
	return 0, m.Err
}
