package recovery

// DefaultRetryBudget caps consecutive retries of allow-listed errors within
// one read call.
const DefaultRetryBudget = 5

// RetryBudget counts allow-listed failures within a single read call. It is
// never shared between calls.
type RetryBudget struct {
	limit int
	used  int
}

// NewRetryBudget returns a budget of limit failures; limit <= 0 selects
// DefaultRetryBudget.
func NewRetryBudget(limit int) *RetryBudget {
	if limit <= 0 {
		limit = DefaultRetryBudget
	}
	return &RetryBudget{limit: limit}
}

// Spend records a failure and reports whether another attempt is allowed.
func (b *RetryBudget) Spend() bool {
	b.used++
	return b.used < b.limit
}

func (b *RetryBudget) Used() int { return b.used }

func (b *RetryBudget) Limit() int { return b.limit }

// Exhausted reports whether no attempts remain.
func (b *RetryBudget) Exhausted() bool { return b.used >= b.limit }
