package matrix

import (
	"math"
	"testing"

	"dropweight/domain/core"
	"dropweight/domain/dataset"
)

func TestBuildCountMatrix_OutputsIndexedFirst(t *testing.T) {
	datasets := []dataset.Dataset{
		{
			Name:       "d1",
			InputItems: []dataset.InputItem{{ID: "ore"}},
			Items:      []dataset.OutputItem{{ID: "gem", Count: 3}, {ID: "dust", Count: 7}},
		},
	}

	m, err := BuildCountMatrix(datasets)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ids := m.Index.IDs()
	want := []dataset.ItemID{"gem", "dust", "ore"}
	if len(ids) != len(want) {
		t.Fatalf("got %d indexed items, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("index position %d = %s, want %s", i, ids[i], want[i])
		}
	}
	if len(m.OutputIDs) != 2 || m.OutputIDs[0] != "gem" || m.OutputIDs[1] != "dust" {
		t.Errorf("output ids = %v, want [gem dust]", m.OutputIDs)
	}
}

func TestBuildCountMatrix_KnownInputCredit(t *testing.T) {
	datasets := []dataset.Dataset{
		{
			Name:       "d1",
			InputItems: []dataset.InputItem{{ID: "a"}, {ID: "b"}},
			Items:      []dataset.OutputItem{{ID: "x", Count: 10}},
		},
	}

	m, err := BuildCountMatrix(datasets)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Two candidate inputs: each credited count/2.
	xPos, _ := m.Index.IndexOf("x")
	aPos, _ := m.Index.IndexOf("a")
	bPos, _ := m.Index.IndexOf("b")
	if m.Counts[aPos][xPos] != 5 || m.Counts[bPos][xPos] != 5 {
		t.Errorf("counts not split across inputs: a->x=%f b->x=%f", m.Counts[aPos][xPos], m.Counts[bPos][xPos])
	}
}

func TestBuildCountMatrix_UnknownInputUniform(t *testing.T) {
	datasets := []dataset.Dataset{
		{
			Name:  "anon",
			Items: []dataset.OutputItem{{ID: "x", Count: 9}, {ID: "y", Count: 3}, {ID: "z", Count: 6}},
		},
	}

	m, err := BuildCountMatrix(datasets)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	n := m.Size()
	if n != 3 {
		t.Fatalf("size = %d, want 3", n)
	}
	for _, out := range datasets[0].Items {
		j, _ := m.Index.IndexOf(out.ID)
		want := out.Count / float64(n)
		for k := 0; k < n; k++ {
			if math.Abs(m.Counts[k][j]-want) > 1e-12 {
				t.Errorf("counts[%d][%d] = %f, want %f", k, j, m.Counts[k][j], want)
			}
		}
	}
}

func TestCountMatrix_RowTotalExcludesSelf(t *testing.T) {
	datasets := []dataset.Dataset{
		{
			Name:  "anon",
			Items: []dataset.OutputItem{{ID: "x", Count: 12}, {ID: "y", Count: 6}},
		},
	}

	m, err := BuildCountMatrix(datasets)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Each row received count/2 for both x and y; the self cell is stored
	// but must not count toward the row total.
	xPos, _ := m.Index.IndexOf("x")
	if m.Counts[xPos][xPos] != 6 {
		t.Errorf("self cell should be filled like any other, got %f", m.Counts[xPos][xPos])
	}
	if got := m.RowTotal(xPos); got != 3 {
		t.Errorf("row total for x = %f, want 3 (self excluded)", got)
	}
}

func TestBuildCountMatrix_InvalidInputs(t *testing.T) {
	cases := []struct {
		name     string
		datasets []dataset.Dataset
	}{
		{"empty collection", nil},
		{"no items", []dataset.Dataset{{Name: "bad"}}},
		{"missing id", []dataset.Dataset{{Name: "bad", Items: []dataset.OutputItem{{Count: 1}}}}},
		{"negative count", []dataset.Dataset{{Name: "bad", Items: []dataset.OutputItem{{ID: "x", Count: -1}}}}},
		{"nan count", []dataset.Dataset{{Name: "bad", Items: []dataset.OutputItem{{ID: "x", Count: math.NaN()}}}}},
		{"blank input id", []dataset.Dataset{{
			Name:       "bad",
			InputItems: []dataset.InputItem{{}},
			Items:      []dataset.OutputItem{{ID: "x", Count: 1}},
		}}},
	}

	for _, tc := range cases {
		if _, err := BuildCountMatrix(tc.datasets); !core.IsInvalidInputError(err) {
			t.Errorf("%s: expected InvalidInput error, got %v", tc.name, err)
		}
	}
}

func TestBuildCountMatrix_AggregatesAcrossDatasets(t *testing.T) {
	datasets := []dataset.Dataset{
		{
			Name:       "week1",
			InputItems: []dataset.InputItem{{ID: "chest"}},
			Items:      []dataset.OutputItem{{ID: "coin", Count: 4}},
		},
		{
			Name:       "week2",
			InputItems: []dataset.InputItem{{ID: "chest"}},
			Items:      []dataset.OutputItem{{ID: "coin", Count: 6}},
		},
	}

	m, err := BuildCountMatrix(datasets)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	coinPos, _ := m.Index.IndexOf("coin")
	chestPos, _ := m.Index.IndexOf("chest")
	if m.Counts[chestPos][coinPos] != 10 {
		t.Errorf("counts should aggregate across datasets, got %f", m.Counts[chestPos][coinPos])
	}
}
