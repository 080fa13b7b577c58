package dataset

import (
	"encoding/json"
	"fmt"
	"math"

	"dropweight/domain/core"
)

// ItemID identifies a game item
type ItemID string

// String returns the string representation
func (id ItemID) String() string { return string(id) }

// Source records where a dataset's observations came from
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// InputItem is an item that may have been consumed to produce a dataset's outputs
type InputItem struct {
	ID ItemID `json:"id"`
}

// OutputItem is an observed output with its occurrence count.
// Counts may be fractional after distribution across ambiguous inputs.
type OutputItem struct {
	ID    ItemID  `json:"id"`
	Count float64 `json:"count"`
}

// Dataset is one observed transformation record: input item(s) consumed to
// produce a multiset of output items. InputItems is optional; when absent the
// actual input is treated as unknown among all items ever observed.
type Dataset struct {
	Name        string       `json:"name"`
	Date        string       `json:"date,omitempty"`
	Patch       string       `json:"patch,omitempty"`
	Description string       `json:"description,omitempty"`
	Sources     []Source     `json:"sources,omitempty"`
	InputItems  []InputItem  `json:"input_items,omitempty"`
	Items       []OutputItem `json:"items"`
}

// Validate checks the structural invariants of a single dataset
func (d Dataset) Validate() error {
	if len(d.Items) == 0 {
		return core.NewInvalidInputError(fmt.Sprintf("dataset %q has no items", d.Name))
	}
	for i, out := range d.Items {
		if out.ID == "" {
			return core.NewInvalidInputError(fmt.Sprintf("dataset %q item %d has no id", d.Name, i))
		}
		if math.IsNaN(out.Count) || math.IsInf(out.Count, 0) || out.Count < 0 {
			return core.NewInvalidInputError(fmt.Sprintf("dataset %q item %q has invalid count %v", d.Name, out.ID, out.Count))
		}
	}
	for i, in := range d.InputItems {
		if in.ID == "" {
			return core.NewInvalidInputError(fmt.Sprintf("dataset %q input item %d has no id", d.Name, i))
		}
	}
	return nil
}

// ValidateAll checks a dataset collection, rejecting empty collections
func ValidateAll(datasets []Dataset) error {
	if len(datasets) == 0 {
		return core.ErrNoDatasets
	}
	for _, d := range datasets {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint computes an order-insensitive hash over the dataset collection,
// used as the cache key component for a set of observations.
func Fingerprint(datasets []Dataset) core.Hash {
	members := make([][]byte, 0, len(datasets))
	for _, d := range datasets {
		// Marshal cannot fail for these types; ignore the error like a
		// canonical-form writer would.
		raw, _ := json.Marshal(d)
		members = append(members, raw)
	}
	return core.ComputeSetHash(members)
}
