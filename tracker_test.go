package gotdoa

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewTrackerErrors(t *testing.T) {
	for _, N := range []int{0, -3} {
		if _, err := NewTracker("t", N); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("N=%d: expected ErrInvalidInput, got %v", N, err)
		}
	}
}

func TestTrackerLayout(t *testing.T) {
	tr, err := NewTracker("tracker1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if tr.StateSize() != 3 || tr.ControlSize() != 2 || tr.Horizon() != 4 {
		t.Fatal("wrong sizes")
	}
	if tr.DecisionSize() != 3*5+2*4 {
		t.Fatalf("decision size %d", tr.DecisionSize())
	}
	if tr.ConstraintSize() != 15 || tr.ReferenceSize() != 20 {
		t.Fatalf("constraint size %d, reference size %d", tr.ConstraintSize(), tr.ReferenceSize())
	}
	if tr.StateOffset(4) != 12 || tr.ControlOffset(0) != 15 || tr.ControlOffset(3) != 21 {
		t.Fatal("wrong offsets")
	}
	names := append(tr.StateNames(), tr.ControlNames()...)
	exp := []string{"tracker1_x", "tracker1_y", "tracker1_theta", "tracker1_v", "tracker1_omega"}
	for i := range exp {
		if names[i] != exp[i] {
			t.Fatalf("name %d: %s != %s", i, names[i], exp[i])
		}
	}

	x := make([]float64, tr.DecisionSize())
	for i := range x {
		x[i] = float64(i)
	}
	S := tr.PredictedStates(x)
	if r, c := S.Dims(); r != 3 || c != 5 {
		t.Fatalf("predicted states are %dx%d", r, c)
	}
	if S.At(2, 4) != 14 {
		t.Fatalf("θ4=%f", S.At(2, 4))
	}
	U := tr.PredictedControls(x)
	if r, c := U.Dims(); r != 2 || c != 4 {
		t.Fatalf("predicted controls are %dx%d", r, c)
	}
	if U.At(0, 0) != 15 || U.At(1, 3) != 22 {
		t.Fatal("wrong controls")
	}
	// Views share the decision vector.
	tr.PredictedControl(x, 1).SetVec(0, -1)
	if x[17] != -1 {
		t.Fatal("PredictedControl does not share its data")
	}
	assertPanic(t, func() {
		tr.PredictedStates(x[1:])
	})
}

func TestParameters(t *testing.T) {
	tr, _ := NewTracker("t", 2)
	p := tr.NewParameters()
	if err := p.Validate(tr.Layout); err != nil {
		t.Fatal(err)
	}
	if err := (Parameters{}).Validate(tr.Layout); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := (Parameters{Initial: mat.NewVecDense(2, nil), Reference: p.Reference}).Validate(tr.Layout); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	p.Reference = mat.NewVecDense(5, nil)
	if err := p.Validate(tr.Layout); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	p.Reference = mat.NewVecDense(10, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if !mat.Equal(p.ReferenceState(1), mat.NewVecDense(3, []float64{6, 7, 8})) {
		t.Fatal("wrong reference state")
	}
	if !mat.Equal(p.ReferenceControl(0), mat.NewVecDense(2, []float64{4, 5})) {
		t.Fatal("wrong reference control")
	}
}

func TestInitialAndShiftedGuess(t *testing.T) {
	tr, _ := NewTracker("t", 2)
	p := Parameters{
		Initial:   mat.NewVecDense(3, []float64{-1, -2, -3}),
		Reference: mat.NewVecDense(10, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}),
	}
	x := tr.InitialGuess(p)
	exp := []float64{-1, -2, -3, 6, 7, 8, 6, 7, 8, 4, 5, 9, 10}
	for i := range exp {
		if x[i] != exp[i] {
			t.Fatalf("initial guess %v != %v", x, exp)
		}
	}
	shifted := tr.ShiftGuess(x)
	exp = []float64{6, 7, 8, 6, 7, 8, 6, 7, 8, 9, 10, 9, 10}
	for i := range exp {
		if shifted[i] != exp[i] {
			t.Fatalf("shifted guess %v != %v", shifted, exp)
		}
	}
}

func TestTrackerHistory(t *testing.T) {
	tr, _ := NewTracker("t", 2)
	if _, err := tr.ExportHistory(); !errors.Is(err, ErrUninitializedHistory) {
		t.Fatalf("expected ErrUninitializedHistory, got %v", err)
	}
	if err := tr.RecordState(mat.NewVecDense(2, nil)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := tr.RecordControl(mat.NewVecDense(3, nil)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := tr.RecordPrediction(mat.NewDense(3, 2, nil)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	state := mat.NewVecDense(3, []float64{1, 2, 3})
	if err := tr.RecordState(state); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.ExportHistory(); !errors.Is(err, ErrUninitializedHistory) {
		t.Fatal("a history without controls cannot be exported")
	}
	// Recording copies.
	state.SetVec(0, 100)

	x := make([]float64, tr.DecisionSize())
	for i := range x {
		x[i] = float64(i)
	}
	if err := tr.RecordSolution(x); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordSolution(x[1:]); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	h, err := tr.ExportHistory()
	if err != nil {
		t.Fatal(err)
	}
	if r, c := h.States.Dims(); r != 3 || c != 2 || h.Steps() != 2 {
		t.Fatalf("states are %dx%d", r, c)
	}
	if h.States.At(0, 0) != 1 || h.States.At(2, 1) != 2 {
		t.Fatalf("states\n%v", mat.Formatted(h.States))
	}
	if r, c := h.Controls.Dims(); r != 1 || c != 2 {
		t.Fatalf("controls are %dx%d", r, c)
	}
	if h.Controls.At(0, 0) != 9 || h.Controls.At(0, 1) != 10 {
		t.Fatalf("controls\n%v", mat.Formatted(h.Controls))
	}
	P, err := h.PredictionAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := P.Dims(); r != 3 || c != 3 || P.At(1, 2) != 7 {
		t.Fatalf("prediction\n%v", mat.Formatted(P))
	}
	if _, err := h.PredictionAt(1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
