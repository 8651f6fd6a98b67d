package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a currency or XP quantity. It is an int64 everywhere in Go code
// and at rest, but serializes as a decimal string on the wire so clients
// whose native number type cannot hold 64-bit integers never lose precision.
type Amount int64

func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) String() string { return strconv.FormatInt(int64(a), 10) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts both "123" and 123 so hand-written clients keep working.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = Amount(n)
	return nil
}
