package knapsack

import (
	"cmp"
	"slices"
)

// Item orderings used by the greedy fills and the branch-and-bound pre-sort.
// Every ordering is stable on the original index, so equal keys keep input
// order and runs are reproducible.

func byWeightAsc(a, b Item) int {
	if c := cmp.Compare(a.Weight, b.Weight); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

func byWeightDesc(a, b Item) int {
	if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

func byValueDesc(a, b Item) int {
	if c := cmp.Compare(b.Value, a.Value); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

func byDensityDesc(a, b Item) int {
	if c := cmp.Compare(b.Density(), a.Density()); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// sortedCopy returns the items reordered by cmpFn without touching the input.
func sortedCopy(items []Item, cmpFn func(a, b Item) int) []Item {
	out := slices.Clone(items)
	slices.SortFunc(out, cmpFn)
	return out
}

// SortByDensity returns a copy of items in descending value/weight density,
// ties broken by original index.
func SortByDensity(items []Item) []Item {
	return sortedCopy(items, byDensityDesc)
}
