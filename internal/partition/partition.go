// Package partition splits a closed interval into contiguous sub-intervals
// for parallel processing.
package partition

import (
	"fmt"
	"math/bits"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/primes"
)

// Part is one slot of a Plan. Empty parts carry no range and must not be
// dispatched.
type Part struct {
	Index int
	Range primes.Range
	Empty bool
}

// Plan is the ordered result of Divide. The non-empty parts cover Bounds
// exactly: every integer belongs to one part and no part overlaps another.
type Plan struct {
	Bounds primes.Range
	// Block is the nominal part size. It is zero only for a single part
	// spanning all 2^64 values.
	Block uint64
	Parts []Part
}

// NonEmpty returns the parts that hold at least one integer.
func (p Plan) NonEmpty() []Part {
	out := make([]Part, 0, len(p.Parts))
	for _, part := range p.Parts {
		if !part.Empty {
			out = append(out, part)
		}
	}
	return out
}

// Divide splits [low, high] into jobs contiguous parts of
// ceil((high-low+1)/jobs) integers each; the last non-empty part may be
// shorter and trailing parts may be empty when jobs exceeds the count.
//
// It fails with ErrInvalidArgument when jobs < 1 and with ErrInvalidRange
// when low > high.
func Divide(low, high uint64, jobs int) (Plan, error) {
	if jobs < 1 {
		return Plan{}, apperrors.ValidationError{Field: "jobs", Message: fmt.Sprintf("must be at least 1, got %d", jobs)}
	}
	bounds, err := primes.NewRange(low, high)
	if err != nil {
		return Plan{}, err
	}

	span := bounds.Span()
	if jobs == 1 {
		return Plan{Bounds: bounds, Block: span + 1, Parts: []Part{{Index: 0, Range: bounds}}}, nil
	}

	// ceil((span+1)/jobs) == span/jobs + 1, which cannot overflow.
	block := span/uint64(jobs) + 1

	plan := Plan{Bounds: bounds, Block: block, Parts: make([]Part, jobs)}
	for i := range jobs {
		plan.Parts[i] = Part{Index: i, Empty: true}

		hi, offset := bits.Mul64(uint64(i), block)
		if hi != 0 || offset > span {
			continue
		}
		end := offset + min(block-1, span-offset)
		plan.Parts[i].Range = primes.Range{Low: low + offset, High: low + end}
		plan.Parts[i].Empty = false
	}
	return plan, nil
}
