package dataset

import (
	"math"
	"testing"

	"dropweight/domain/core"
)

func TestValidate_WellFormed(t *testing.T) {
	d := Dataset{
		Name:       "sample",
		InputItems: []InputItem{{ID: "ore"}},
		Items:      []OutputItem{{ID: "gem", Count: 12}, {ID: "dust", Count: 0}},
	}
	if err := d.Validate(); err != nil {
		t.Errorf("well-formed dataset should validate, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	cases := []struct {
		name string
		d    Dataset
	}{
		{"no items", Dataset{Name: "x"}},
		{"blank output id", Dataset{Name: "x", Items: []OutputItem{{Count: 1}}}},
		{"negative count", Dataset{Name: "x", Items: []OutputItem{{ID: "a", Count: -2}}}},
		{"infinite count", Dataset{Name: "x", Items: []OutputItem{{ID: "a", Count: math.Inf(1)}}}},
		{"blank input id", Dataset{Name: "x", InputItems: []InputItem{{}}, Items: []OutputItem{{ID: "a", Count: 1}}}},
	}
	for _, tc := range cases {
		if err := tc.d.Validate(); !core.IsInvalidInputError(err) {
			t.Errorf("%s: expected InvalidInput error, got %v", tc.name, err)
		}
	}
}

func TestValidateAll_EmptyCollection(t *testing.T) {
	if err := ValidateAll(nil); !core.IsInvalidInputError(err) {
		t.Errorf("empty collection should fail with InvalidInput, got %v", err)
	}
}

func TestFingerprint_OrderInsensitive(t *testing.T) {
	a := Dataset{Name: "a", Items: []OutputItem{{ID: "x", Count: 1}}}
	b := Dataset{Name: "b", Items: []OutputItem{{ID: "y", Count: 2}}}

	fp1 := Fingerprint([]Dataset{a, b})
	fp2 := Fingerprint([]Dataset{b, a})
	if !fp1.Equals(fp2) {
		t.Errorf("fingerprint should not depend on dataset order: %s vs %s", fp1, fp2)
	}

	c := Dataset{Name: "b", Items: []OutputItem{{ID: "y", Count: 3}}}
	if Fingerprint([]Dataset{a, b}).Equals(Fingerprint([]Dataset{a, c})) {
		t.Error("different observations should fingerprint differently")
	}
}
