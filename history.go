package gotdoa

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// History is the exported record of a tracker over a simulation.
type History struct {
	// States is 3xT, one realized state per column.
	States *mat.Dense
	// Controls is Tx2, one applied control per row.
	Controls *mat.Dense
	// Predictions holds one 3x(N+1) predicted trajectory per step.
	Predictions []*mat.Dense
}

// Steps returns the number of recorded states.
func (h *History) Steps() int {
	_, c := h.States.Dims()
	return c
}

// PredictionAt returns the predicted trajectory recorded at the provided step.
func (h *History) PredictionAt(step int) (*mat.Dense, error) {
	if step < 0 || step >= len(h.Predictions) {
		return nil, fmt.Errorf("%w: no prediction at step %d (%d recorded)", ErrInvalidInput, step, len(h.Predictions))
	}
	return h.Predictions[step], nil
}

// RecordState appends a copy of the realized state to the history.
func (tr *Tracker) RecordState(state mat.Vector) error {
	if err := checkMatDims(state, Identity(StateSize), "state", "I3", rows2rows); err != nil {
		return err
	}
	tr.states = append(tr.states, mat.VecDenseCopyOf(state))
	return nil
}

// RecordControl appends a copy of the applied control to the history.
func (tr *Tracker) RecordControl(control mat.Vector) error {
	if err := checkMatDims(control, Identity(ControlSize), "control", "I2", rows2rows); err != nil {
		return err
	}
	tr.controls = append(tr.controls, mat.VecDenseCopyOf(control))
	return nil
}

// RecordPrediction appends a copy of the 3x(N+1) predicted trajectory to the history.
func (tr *Tracker) RecordPrediction(states mat.Matrix) error {
	if err := checkMatDims(states, mat.NewDense(StateSize, tr.horizon+1, nil), "prediction", "3x(N+1)", rowsAndcols); err != nil {
		return err
	}
	tr.predictions = append(tr.predictions, mat.DenseCopyOf(states))
	return nil
}

// RecordSolution records the first predicted state as realized state, the
// first control as applied control and the whole prediction.
func (tr *Tracker) RecordSolution(x []float64) error {
	if len(x) != tr.DecisionSize() {
		return fmt.Errorf("%w: decision vector has %d elements, expected %d", ErrInvalidInput, len(x), tr.DecisionSize())
	}
	if err := tr.RecordState(tr.PredictedState(x, 0)); err != nil {
		return err
	}
	if err := tr.RecordControl(tr.PredictedControl(x, 0)); err != nil {
		return err
	}
	return tr.RecordPrediction(tr.PredictedStates(x))
}

// ExportHistory returns the concatenated history of the tracker.
func (tr *Tracker) ExportHistory() (*History, error) {
	if len(tr.states) == 0 || len(tr.controls) == 0 {
		return nil, fmt.Errorf("%w: %s has %d states and %d controls", ErrUninitializedHistory, tr.label, len(tr.states), len(tr.controls))
	}
	S := mat.NewDense(StateSize, len(tr.states), nil)
	for j, s := range tr.states {
		S.SetCol(j, s.RawVector().Data)
	}
	U := mat.NewDense(len(tr.controls), ControlSize, nil)
	for i, u := range tr.controls {
		U.SetRow(i, u.RawVector().Data)
	}
	P := make([]*mat.Dense, len(tr.predictions))
	for i, p := range tr.predictions {
		P[i] = mat.DenseCopyOf(p)
	}
	return &History{States: S, Controls: U, Predictions: P}, nil
}
