package knapsack

// UpperBound returns the fractional (LP relaxation) bound for a partial
// assignment: starting from partial, it adds whole items from position depth
// onwards in the given order while they fit, then a fraction
// capacityLeft/weight of the first item that does not fit, and stops.
//
// items must be sorted by descending density for the bound to be valid; the
// optimum of the remaining subproblem never exceeds the returned value. When
// every remaining item fits no fractional term is added.
func UpperBound(depth int, items []Item, capacityLeft int64, partial int64) float64 {
	bound := float64(partial)
	for _, it := range items[depth:] {
		if it.Weight <= capacityLeft {
			bound += float64(it.Value)
			capacityLeft -= it.Weight
			continue
		}
		// it.Weight > capacityLeft >= 0, so the division is safe.
		bound += float64(capacityLeft) / float64(it.Weight) * float64(it.Value)
		break
	}
	return bound
}

// LowerBound returns the value of the greedy completion of a partial
// assignment: items from position depth onwards are taken whole, in order,
// whenever they fit, and skipped otherwise. The result is always achievable.
func LowerBound(depth int, items []Item, capacityLeft int64, partial int64) int64 {
	bound := partial
	for _, it := range items[depth:] {
		if it.Weight <= capacityLeft {
			bound += it.Value
			capacityLeft -= it.Weight
		}
	}
	return bound
}

// greedyCompletion writes the choices made by LowerBound into sel[depth:]
// and returns the same value LowerBound would.
func greedyCompletion(depth int, items []Item, capacityLeft int64, partial int64, sel []uint8) int64 {
	bound := partial
	for i := depth; i < len(items); i++ {
		if items[i].Weight <= capacityLeft {
			bound += items[i].Value
			capacityLeft -= items[i].Weight
			sel[i] = 1
		} else {
			sel[i] = 0
		}
	}
	return bound
}
