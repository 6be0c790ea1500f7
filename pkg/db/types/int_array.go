package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// IntArray persists a list of integers as a JSON array so the same column works
// on Postgres (jsonb) and SQLite (text).
type IntArray []int

func (a *IntArray) Scan(src any) error {
	if src == nil {
		*a = IntArray{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("IntArray: unsupported Scan type %T", src)
	}
	if len(raw) == 0 {
		*a = IntArray{}
		return nil
	}

	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("IntArray: decode %q: %w", string(raw), err)
	}
	if out == nil {
		out = []int{}
	}
	*a = IntArray(out)
	return nil
}

func (a IntArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]int(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Max returns the largest element, or 0 for an empty list.
func (a IntArray) Max() int {
	max := 0
	for _, n := range a {
		if n > max {
			max = n
		}
	}
	return max
}

// Sorted returns an ascending copy.
func (a IntArray) Sorted() []int {
	out := append([]int(nil), a...)
	sort.Ints(out)
	return out
}
