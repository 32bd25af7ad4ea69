package gokeyset

import "fmt"

const (
	// NoLimit is accepted by the limit helpers for API compatibility, but a
	// keyset page always needs a bound: the pager rejects it.
	// MaxLimit is the default page size cap of a pager, see WithMaxLimit.
	NoLimit      = -1
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedLimitMax clamps limit into [1, maxLimit], substituting
// DefaultLimit for non-positive values. The boolean reports whether limit was
// already in range.
func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool) {
	if limit <= 0 {
		return DefaultLimit, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

func NormalizeLimitMax(limit int, maxLimit int) int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}

func NormalizeLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxLimit)
}

// validatePerPage checks a page size before it reaches the query as
// "LIMIT per_page + 1". A non-positive maxPerPage means MaxLimit.
func validatePerPage(perPage int, maxPerPage int) error {
	if maxPerPage <= 0 {
		maxPerPage = MaxLimit
	}

	if perPage == NoLimit {
		return fmt.Errorf("%w: cannot apply keyset paging without a limit", ErrPageSize)
	}
	if perPage <= 0 {
		return fmt.Errorf("%w: %d is not positive", ErrPageSize, perPage)
	}
	if perPage > maxPerPage {
		return fmt.Errorf("%w: %d exceeds the maximum of %d", ErrPageSize, perPage, maxPerPage)
	}

	return nil
}
