package ingest

import "github.com/roach88/costcore/internal/model"

// AssignBundleKeys groups part rows that share one price.
//
// A row without a unit price belongs with the priced row above it; a run
// of unpriced rows at the top of the sheet belongs with the first priced
// row below it. Each group of two or more rows gets a key, numbered from 1
// in sheet order; every other row keeps a nil key. A sheet with no priced
// row has no bundles.
func AssignBundleKeys(items []model.Item) {
	for i := range items {
		items[i].BundleKey = nil
	}

	first := -1
	for i := range items {
		if items[i].UnitPrice.Valid {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}

	// owner[i] is the index of the priced row that row i belongs to.
	owner := make([]int, len(items))
	for i := range items {
		switch {
		case i < first:
			owner[i] = first
		case items[i].UnitPrice.Valid:
			owner[i] = i
		default:
			owner[i] = owner[i-1]
		}
	}

	size := make(map[int]int)
	for _, o := range owner {
		size[o]++
	}

	keys := make(map[int]int64)
	var next int64
	for i, o := range owner {
		if size[o] < 2 {
			continue
		}
		k, ok := keys[o]
		if !ok {
			next++
			k = next
			keys[o] = k
		}
		key := k
		items[i].BundleKey = &key
	}
}
