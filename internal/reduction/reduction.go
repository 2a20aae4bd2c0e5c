// =============================
// Dimensionality Reduction
// =============================
// Compresses standardized sensor feature matrices into a fixed-width latent
// representation. Strategies are interchangeable behind the Reducer
// capability: a learned autoencoder, a variance-threshold principal-component
// projection, or ensemble-importance top-K feature selection.

package reduction

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mujeebjan09/Human-activity-recognition/internal/nn"
)

// Reducer is the common capability over all reduction strategies. Fit learns
// the projection from a training matrix; Apply projects any matrix of the
// same feature width. The output width is fixed for an entire run.
type Reducer interface {
	Fit(x *mat.Dense) error
	Apply(x *mat.Dense) (*mat.Dense, error)
	OutputWidth() int
}

// DimensionMismatchError is the width-inconsistency failure shared across
// the numeric stages. Aliased here so reduction callers can match it without
// importing the neural substrate.
type DimensionMismatchError = nn.DimensionMismatchError
