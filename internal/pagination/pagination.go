// Package pagination turns raw page/limit query values into an offset window.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 4
)

// Page is a 1-based page number together with its page size.
type Page struct {
	Number int
	Limit  int
}

// Parse coerces raw query values into a Page. Missing or non-numeric values
// fall back to the defaults and values below one become one.
func Parse(rawPage, rawLimit string) Page {
	return Page{
		Number: coerce(rawPage, DefaultPage),
		Limit:  coerce(rawLimit, DefaultLimit),
	}
}

// Offset is the number of items that precede this page. It saturates at
// math.MaxInt instead of overflowing for pages far past any real data.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total-1)/int64(p.Limit) + 1)
}

// coerce reads the leading integer of raw, the same way a lenient query
// parser would ("3abc" is 3, "2.9" is 2).
func coerce(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return def
	}
	return max(n, 1)
}
