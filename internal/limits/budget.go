package limits

import "fmt"

// Budget counts bytecode instructions executed inside one simulation tick.
// A zero limit means unlimited (the budget still counts, for the query
// surface, but Charge never fails).
type Budget struct {
	limit int64
	used  int64
}

func NewBudget(limit int64) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used
}

// Remaining reports how many instructions the tick may still spend.
// Unlimited budgets report a negative value.
func (b *Budget) Remaining() int64 {
	if b == nil || b.limit == 0 {
		return -1
	}
	r := b.limit - b.used
	if r < 0 {
		return 0
	}
	return r
}

// Reset zeroes the used counter. The host loop calls this once per tick.
func (b *Budget) Reset() {
	if b == nil {
		return
	}
	b.used = 0
}

func ExhaustedMessage(limit int64) string {
	return fmt.Sprintf("instruction budget exceeded (%d)", limit)
}

// ExhaustedError reports that a tick's aggregate instruction budget ran out.
// It is advisory: the scheduler decides what to do with the remaining work.
type ExhaustedError struct {
	Limit int64
}

func (e ExhaustedError) Error() string {
	return ExhaustedMessage(e.Limit)
}

// Charge adds n executed instructions. It always records the spend, so the
// query surface stays accurate, and reports ExhaustedError once the total
// crosses the limit.
func (b *Budget) Charge(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	b.used += n
	if b.limit != 0 && b.used > b.limit {
		return ExhaustedError{Limit: b.limit}
	}
	return nil
}
