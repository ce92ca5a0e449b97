package mesh

import "fmt"

// Validation failure codes reported by Load.
const (
	CodeIndexOutOfRange     = "INDEX_OUT_OF_RANGE"
	CodeTooFewFaces         = "TOO_FEW_FACES"
	CodeOpenBoundary        = "OPEN_BOUNDARY"
	CodeNonManifoldEdge     = "NON_MANIFOLD_EDGE"
	CodeNonManifoldVertex   = "NON_MANIFOLD_VERTEX"
	CodeInconsistentWinding = "INCONSISTENT_WINDING"
	CodeDegenerateFace      = "DEGENERATE_FACE"
	CodeDuplicateFace       = "DUPLICATE_FACE"
	CodeInvertedOrientation = "INVERTED_ORIENTATION"
)

// InvalidError reports a mesh that violates an input invariant. It is
// terminal for the job: malformed meshes are rejected, not healed.
type InvalidError struct {
	Code   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("mesh invalid: %s: %s", e.Code, e.Reason)
}
