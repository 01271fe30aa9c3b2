package io

import (
	"encoding/json"
	"fmt"
	"io"

	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// ProblemJSON is the JSON form of a problem. Item order is input order.
type ProblemJSON struct {
	Capacity int64      `json:"capacity"`
	Items    []ItemJSON `json:"items"`
}

// ItemJSON is one item of a ProblemJSON.
type ItemJSON struct {
	Value  int64 `json:"value"`
	Weight int64 `json:"weight"`
}

// SolutionJSON is the JSON form of a solution. Selection uses numbers
// rather than a byte string so clients can index it directly.
type SolutionJSON struct {
	Objective int64 `json:"objective"`
	Weight    int64 `json:"weight"`
	Selection []int `json:"selection"`
	Selected  []int `json:"selected"`
}

// Problem converts pj into a validated problem. Validation failures are
// reported as INVALID_INPUT.
func (pj ProblemJSON) Problem() (*knapsack.Problem, error) {
	items := make([]knapsack.Item, len(pj.Items))
	for i, it := range pj.Items {
		items[i] = knapsack.Item{Value: it.Value, Weight: it.Weight}
	}
	p, err := knapsack.NewProblem(pj.Capacity, items)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid problem")
	}
	return p, nil
}

// NewProblemJSON converts p to its JSON form.
func NewProblemJSON(p *knapsack.Problem) ProblemJSON {
	pj := ProblemJSON{Capacity: p.Capacity, Items: make([]ItemJSON, len(p.Items))}
	for i, it := range p.Items {
		pj.Items[i] = ItemJSON{Value: it.Value, Weight: it.Weight}
	}
	return pj
}

// NewSolutionJSON converts s, a solution of p, to its JSON form.
func NewSolutionJSON(p *knapsack.Problem, s knapsack.Solution) SolutionJSON {
	sj := SolutionJSON{
		Objective: s.Objective,
		Weight:    s.Weight(p),
		Selection: make([]int, len(s.Selection)),
		Selected:  s.Selected(),
	}
	for i, x := range s.Selection {
		sj.Selection[i] = int(x)
	}
	if sj.Selected == nil {
		sj.Selected = []int{}
	}
	return sj
}

// ReadProblemJSON decodes a JSON problem from r. Unknown fields are
// rejected. ReadProblemJSON does not close r.
func ReadProblemJSON(r io.Reader) (*knapsack.Problem, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var pj ProblemJSON
	if err := dec.Decode(&pj); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "decode problem")
	}
	return pj.Problem()
}

// WriteSolutionJSON encodes s, a solution of p, as indented JSON.
func WriteSolutionJSON(w io.Writer, p *knapsack.Problem, s knapsack.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSolutionJSON(p, s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
