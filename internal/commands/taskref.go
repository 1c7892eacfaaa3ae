package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ItemRef addresses one item: a list name and a 1-based position.
type ItemRef struct {
	List string
	N    int
}

// ErrItemRefRequired indicates the list name or item number is missing.
var ErrItemRefRequired = errors.New("list name and item number required")

// ParseItemRef parses "<list...> <n>". The last argument is the item
// number; everything before it, joined by spaces, is the list name.
// Zero and negative numbers parse; the cache reports them as out of range.
func ParseItemRef(args []string) (ItemRef, error) {
	if len(args) < 2 {
		return ItemRef{}, ErrItemRefRequired
	}

	last := args[len(args)-1]
	if !isInteger(last) {
		return ItemRef{}, fmt.Errorf("invalid item number: %s", last)
	}
	n, err := strconv.Atoi(last)
	if err != nil {
		return ItemRef{}, fmt.Errorf("invalid item number: %s", last)
	}

	name := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if name == "" {
		return ItemRef{}, ErrItemRefRequired
	}
	return ItemRef{List: name, N: n}, nil
}

// isInteger returns true if s is an optionally signed run of ASCII digits.
func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
