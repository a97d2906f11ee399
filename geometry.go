package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point2D is a position in meters.
type Point2D struct {
	X, Y float64
}

// Sub returns p-q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Add returns p+q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Y + q.Y}
}

// Scale returns s*p.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{s * p.X, s * p.Y}
}

// Norm returns the Euclidean norm of p.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Norm()
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Pose2D is a position in meters and a heading in radians.
type Pose2D struct {
	X, Y, Heading float64
}

// Position returns the position part of the pose.
func (p Pose2D) Position() Point2D {
	return Point2D{p.X, p.Y}
}

// Vector returns the pose as a state vector (x, y, θ).
func (p Pose2D) Vector() *mat.VecDense {
	return mat.NewVecDense(3, []float64{p.X, p.Y, p.Heading})
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f rad)", p.X, p.Y, p.Heading)
}

// PoseFromVector builds a pose from a state vector (x, y, θ).
func PoseFromVector(v mat.Vector) Pose2D {
	return Pose2D{v.AtVec(0), v.AtVec(1), v.AtVec(2)}
}
