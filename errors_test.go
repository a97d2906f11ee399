package gotdoa

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCheckDims(t *testing.T) {
	i22 := Identity(2)
	i33 := Identity(3)
	methods := []DimensionAgreement{rows2rows, rowsAndcols}
	for _, meth := range methods {
		if err := checkMatDims(i22, i22, "i22", "i22", meth); err != nil {
			t.Fatalf("method %+v fails: %s", meth, err)
		}
		err := checkMatDims(i22, i33, "i22", "i33", meth)
		if err == nil {
			t.Fatalf("method %+v does not error when using i22 and i33 ", meth)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("method %+v error does not wrap ErrInvalidInput: %s", meth, err)
		}
	}
}

func TestCheckDimsRows(t *testing.T) {
	// A vector only agrees on its rows with a square matrix.
	v := mat.NewVecDense(3, nil)
	if err := checkMatDims(v, Identity(3), "v", "I3", rows2rows); err != nil {
		t.Fatal(err)
	}
	if err := checkMatDims(v, Identity(3), "v", "I3", rowsAndcols); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
