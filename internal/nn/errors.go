package nn

import "fmt"

// DimensionMismatchError reports a feature-width disagreement between the
// data a model was fit or compiled on and the data it was later handed.
// Widths are never silently truncated or padded.
type DimensionMismatchError struct {
	Stage string
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: got width %d, fitted for %d", e.Stage, e.Got, e.Want)
}
