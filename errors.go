package gotdoa

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidInput is returned for malformed control points, non-positive
	// velocities, horizons or time steps, and mismatched dimensions.
	ErrInvalidInput = errors.New("gotdoa: invalid input")
	// ErrIllFormedGeometry is returned when the receiver pair cannot define a hyperbola.
	ErrIllFormedGeometry = errors.New("gotdoa: ill-formed geometry")
	// ErrUninitializedHistory is returned when exporting a history with no records.
	ErrUninitializedHistory = errors.New("gotdoa: uninitialized history")
	// ErrSolverFailed is returned by a Solver which could not produce a decision vector.
	ErrSolverFailed = errors.New("gotdoa: solver failed")
)

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	dimErrMsg                    = "dimensions must agree: "
	rows2rows DimensionAgreement = iota + 1
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement.
// The returned error wraps ErrInvalidInput.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	switch method {
	case rows2rows:
		if r1 != r2 {
			return fmt.Errorf("%w: %s%s(%dx...) %s(%dx...)", ErrInvalidInput, dimErrMsg, name1, r1, name2, r2)
		}
	case rowsAndcols:
		if c1 != c2 || r1 != r2 {
			return fmt.Errorf("%w: %s%s(%dx%d) %s(%dx%d)", ErrInvalidInput, dimErrMsg, name1, r1, c1, name2, r2, c2)
		}
	}
	return nil
}
