package matrix

import (
	"dropweight/domain/dataset"
)

// ItemIndex is a bijection between item identifiers and dense positions
// 0..N-1. It is insertion-ordered: outputs are indexed before inputs so that
// output items always receive the lowest indices.
type ItemIndex struct {
	byID map[dataset.ItemID]int
	ids  []dataset.ItemID
}

// NewItemIndex creates an empty item index
func NewItemIndex() *ItemIndex {
	return &ItemIndex{byID: make(map[dataset.ItemID]int)}
}

// Add inserts an item if unseen and returns its position
func (ix *ItemIndex) Add(id dataset.ItemID) int {
	if pos, ok := ix.byID[id]; ok {
		return pos
	}
	pos := len(ix.ids)
	ix.byID[id] = pos
	ix.ids = append(ix.ids, id)
	return pos
}

// IndexOf returns the position of an item, if indexed
func (ix *ItemIndex) IndexOf(id dataset.ItemID) (int, bool) {
	pos, ok := ix.byID[id]
	return pos, ok
}

// IDAt returns the item at a position
func (ix *ItemIndex) IDAt(pos int) dataset.ItemID {
	return ix.ids[pos]
}

// Len returns the number of indexed items
func (ix *ItemIndex) Len() int {
	return len(ix.ids)
}

// IDs returns the items in index order
func (ix *ItemIndex) IDs() []dataset.ItemID {
	out := make([]dataset.ItemID, len(ix.ids))
	copy(out, ix.ids)
	return out
}
