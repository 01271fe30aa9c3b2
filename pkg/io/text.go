package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/knapsack"
)

// maxPrealloc caps the item slice capacity taken from an untrusted header.
const maxPrealloc = 1 << 16

// ReadProblem decodes a text problem from r.
//
// ReadProblem returns an INVALID_FORMAT error if the header is not two
// non-negative integers, if fewer item lines than announced are present, if
// an item line does not hold exactly two non-negative integers, or if
// non-blank content follows the last item. ReadProblem does not close r.
func ReadProblem(r io.Reader) (*knapsack.Problem, error) {
	sc := newScanner(r)

	header, lineNo, ok := sc.next()
	if !ok {
		if err := sc.err(); err != nil {
			return nil, err
		}
		return nil, kerrors.New(kerrors.ErrCodeInvalidFormat, "empty input")
	}
	fields, err := parseFields(header, lineNo, 2, "item count and capacity")
	if err != nil {
		return nil, err
	}
	n, capacity := fields[0], fields[1]
	if n > int64(^uint(0)>>1) {
		return nil, kerrors.New(kerrors.ErrCodeInvalidFormat, "line %d: item count %d too large", lineNo, n)
	}

	items := make([]knapsack.Item, 0, min(n, maxPrealloc))
	for i := int64(0); i < n; i++ {
		line, lineNo, ok := sc.next()
		if !ok {
			if err := sc.err(); err != nil {
				return nil, err
			}
			return nil, kerrors.New(kerrors.ErrCodeInvalidFormat, "expected %d items, found %d", n, i)
		}
		f, err := parseFields(line, lineNo, 2, "value and weight")
		if err != nil {
			return nil, err
		}
		items = append(items, knapsack.Item{Index: int(i), Value: f[0], Weight: f[1]})
	}

	if err := sc.rest(); err != nil {
		return nil, err
	}
	return &knapsack.Problem{Capacity: capacity, Items: items}, nil
}

// ImportProblem reads a text problem file at path.
//
// A missing file yields a FILE_NOT_FOUND error; other open failures and
// parse errors are returned as [ReadProblem] reports them, wrapped with the
// path.
func ImportProblem(path string) (*knapsack.Problem, error) {
	if err := kerrors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "input file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadProblem(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteSolution encodes s as two lines: the objective, then the selection
// vector separated by single spaces.
func WriteSolution(w io.Writer, s knapsack.Solution) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.FormatInt(s.Objective, 10))
	bw.WriteByte('\n')
	for i, x := range s.Selection {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteByte('0' + x)
	}
	bw.WriteByte('\n')
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write solution: %w", err)
	}
	return nil
}

// ExportSolution writes s to a file at path, creating or truncating it.
func ExportSolution(path string, s knapsack.Solution) error {
	if err := kerrors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSolution(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSolution decodes a solution written by [WriteSolution]. An empty
// selection line is accepted for problems without items.
func ReadSolution(r io.Reader) (knapsack.Solution, error) {
	sc := newScanner(r)

	line, lineNo, ok := sc.next()
	if !ok {
		if err := sc.err(); err != nil {
			return knapsack.Solution{}, err
		}
		return knapsack.Solution{}, kerrors.New(kerrors.ErrCodeInvalidFormat, "empty solution")
	}
	f, err := parseFields(line, lineNo, 1, "objective")
	if err != nil {
		return knapsack.Solution{}, err
	}
	sol := knapsack.Solution{Objective: f[0], Selection: []uint8{}}

	line, lineNo, ok = sc.next()
	if ok {
		for _, tok := range strings.Fields(line) {
			switch tok {
			case "0":
				sol.Selection = append(sol.Selection, 0)
			case "1":
				sol.Selection = append(sol.Selection, 1)
			default:
				return knapsack.Solution{}, kerrors.New(kerrors.ErrCodeInvalidFormat,
					"line %d: selection entry %q is not 0 or 1", lineNo, tok)
			}
		}
	}
	if err := sc.rest(); err != nil {
		return knapsack.Solution{}, err
	}
	return sol, nil
}

func parseFields(line string, lineNo, want int, what string) ([]int64, error) {
	parts := strings.Fields(line)
	if len(parts) != want {
		return nil, kerrors.New(kerrors.ErrCodeInvalidFormat,
			"line %d: expected %s (%d fields), got %d", lineNo, what, want, len(parts))
	}
	out := make([]int64, want)
	for i, s := range parts {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "line %d: %q is not an integer", lineNo, s)
		}
		if v < 0 {
			return nil, kerrors.New(kerrors.ErrCodeInvalidFormat, "line %d: %d must be non-negative", lineNo, v)
		}
		out[i] = v
	}
	return out, nil
}

// lineScanner tracks line numbers over a bufio.Scanner.
type lineScanner struct {
	sc   *bufio.Scanner
	line int
}

func newScanner(r io.Reader) *lineScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineScanner{sc: sc}
}

// next returns the next line and its 1-based number.
func (s *lineScanner) next() (string, int, bool) {
	if !s.sc.Scan() {
		return "", s.line, false
	}
	s.line++
	return s.sc.Text(), s.line, true
}

// rest consumes the remaining input and rejects anything but blank lines.
func (s *lineScanner) rest() error {
	for {
		line, lineNo, ok := s.next()
		if !ok {
			return s.err()
		}
		if strings.TrimSpace(line) != "" {
			return kerrors.New(kerrors.ErrCodeInvalidFormat, "line %d: unexpected trailing content", lineNo)
		}
	}
}

func (s *lineScanner) err() error {
	if err := s.sc.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
