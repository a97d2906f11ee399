package gotdoa

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// MeasurementNoise perturbs the measurements used to localize the target.
type MeasurementNoise interface {
	RangeDifference(k int) float64   // Returns the range difference noise at step k
	Position(k, tracker int) Point2D // Returns the self-localization noise of a tracker at step k
	String() string                  // Stringer interface implementation
}

// Noiseless implements the MeasurementNoise interface without any noise.
type Noiseless struct{}

// RangeDifference implements the MeasurementNoise interface.
func (n Noiseless) RangeDifference(k int) float64 {
	return 0
}

// Position implements the MeasurementNoise interface.
func (n Noiseless) Position(k, tracker int) Point2D {
	return Point2D{}
}

// String implements the Stringer interface.
func (n Noiseless) String() string {
	return "Noiseless"
}

// BatchNoise replays previously drawn noise values.
type BatchNoise struct {
	ranges    []float64
	positions [][2]Point2D
}

// NewBatchNoise returns a BatchNoise replaying the provided values: one range
// difference and one position offset per tracker at each step.
func NewBatchNoise(ranges []float64, positions [][2]Point2D) *BatchNoise {
	return &BatchNoise{ranges, positions}
}

// RangeDifference implements the MeasurementNoise interface.
func (n BatchNoise) RangeDifference(k int) float64 {
	if k >= len(n.ranges) {
		panic(fmt.Errorf("no range difference noise defined at step k=%d", k))
	}
	return n.ranges[k]
}

// Position implements the MeasurementNoise interface.
func (n BatchNoise) Position(k, tracker int) Point2D {
	if k >= len(n.positions) {
		panic(fmt.Errorf("no position noise defined at step k=%d", k))
	}
	return n.positions[k][tracker]
}

// String implements the Stringer interface.
func (n BatchNoise) String() string {
	return fmt.Sprintf("BatchNoise{ranges=%d, positions=%d}", len(n.ranges), len(n.positions))
}

// AWGN implements the MeasurementNoise interface with additive white Gaussian
// noise: σ on the range difference and P on each tracker position.
type AWGN struct {
	σ        float64
	P        mat.Symmetric
	rng      *distuv.Normal
	position *distmv.Normal
}

// NewAWGN creates new AWGN noise from the range difference standard deviation
// and the position covariance. A nil or zero P disables the position noise.
func NewAWGN(σ float64, P mat.Symmetric, seed uint64) (*AWGN, error) {
	if !(σ >= 0) {
		return nil, fmt.Errorf("%w: negative standard deviation %f", ErrInvalidInput, σ)
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	n := &AWGN{σ: σ, P: P, rng: &distuv.Normal{Mu: 0, Sigma: σ, Src: src}}
	if P != nil && !IsNil(P) {
		if err := checkMatDims(P, Identity(2), "P", "I2", rowsAndcols); err != nil {
			return nil, err
		}
		position, ok := distmv.NewNormal([]float64{0, 0}, P, src)
		if !ok {
			return nil, fmt.Errorf("%w: position covariance is not positive definite", ErrInvalidInput)
		}
		n.position = position
	}
	return n, nil
}

// RangeDifference implements the MeasurementNoise interface.
func (n AWGN) RangeDifference(k int) float64 {
	if n.σ == 0 {
		return 0
	}
	return n.rng.Rand()
}

// Position implements the MeasurementNoise interface. Each call is an
// independent draw, whatever the tracker.
func (n AWGN) Position(k, tracker int) Point2D {
	if n.position == nil {
		return Point2D{}
	}
	r := n.position.Rand(nil)
	return Point2D{r[0], r[1]}
}

// String implements the Stringer interface.
func (n AWGN) String() string {
	if n.P == nil {
		return fmt.Sprintf("AWGN{σ=%f}", n.σ)
	}
	return fmt.Sprintf("AWGN{σ=%f\nP=%v}\n", n.σ, mat.Formatted(n.P, mat.Prefix("  ")))
}
