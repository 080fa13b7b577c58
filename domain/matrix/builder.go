package matrix

import (
	"dropweight/domain/core"
	"dropweight/domain/dataset"
)

// CountMatrix holds aggregated transformation counts. Counts[k][j] is the
// (possibly fractional) number of observed transformations from input item k
// to output item j. Square, sized by the item index.
type CountMatrix struct {
	Counts [][]float64
	Index  *ItemIndex

	// OutputIDs are the items observed as outputs, in index order. Reported
	// weight maps are keyed by these; items that only ever appear as inputs
	// carry no output evidence.
	OutputIDs []dataset.ItemID
}

// Size returns the matrix dimension
func (m *CountMatrix) Size() int {
	return len(m.Counts)
}

// RowTotal returns the total outgoing count for input row k. Self-transition
// cells are stored but never counted toward a row's total: a drop table does
// not produce itself as a distinguishable output class.
func (m *CountMatrix) RowTotal(k int) float64 {
	total := 0.0
	for j, c := range m.Counts[k] {
		if j == k {
			continue
		}
		total += c
	}
	return total
}

// Validate checks the matrix is square and consistent with its index
func (m *CountMatrix) Validate() error {
	if m == nil || len(m.Counts) == 0 {
		return core.NewInvalidMatrixError("matrix is empty")
	}
	n := len(m.Counts)
	for k, row := range m.Counts {
		if len(row) != n {
			return core.NewInvalidMatrixError("matrix is not square")
		}
		_ = k
	}
	if m.Index == nil || m.Index.Len() != n {
		return core.NewInvalidMatrixError("item index size does not match matrix dimensions")
	}
	return nil
}

// BuildCountMatrix turns a dataset collection into a dense transformation
// count matrix plus the item index both estimators share.
//
// A dataset listing M input items credits each output count C as C/M to every
// listed input row: any of the M items could equally have been the actual
// input. A dataset with no input items treats the unknown input as uniform
// across all N indexed items and credits C/N to every row.
func BuildCountMatrix(datasets []dataset.Dataset) (*CountMatrix, error) {
	if err := dataset.ValidateAll(datasets); err != nil {
		return nil, err
	}

	// Index every output before any input so outputs are always indexed
	// even when never used as inputs.
	index := NewItemIndex()
	for _, d := range datasets {
		for _, out := range d.Items {
			index.Add(out.ID)
		}
	}
	outputCount := index.Len()
	for _, d := range datasets {
		for _, in := range d.InputItems {
			index.Add(in.ID)
		}
	}

	n := index.Len()
	counts := make([][]float64, n)
	for k := range counts {
		counts[k] = make([]float64, n)
	}

	for _, d := range datasets {
		if len(d.InputItems) > 0 {
			share := 1.0 / float64(len(d.InputItems))
			for _, in := range d.InputItems {
				k, _ := index.IndexOf(in.ID)
				for _, out := range d.Items {
					j, _ := index.IndexOf(out.ID)
					counts[k][j] += out.Count * share
				}
			}
			continue
		}
		// Unknown input: distribute uniformly across every indexed item.
		share := 1.0 / float64(n)
		for _, out := range d.Items {
			j, _ := index.IndexOf(out.ID)
			for k := 0; k < n; k++ {
				counts[k][j] += out.Count * share
			}
		}
	}

	return &CountMatrix{
		Counts:    counts,
		Index:     index,
		OutputIDs: index.IDs()[:outputCount],
	}, nil
}
