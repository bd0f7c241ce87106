package rings

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoveSegment is one "start,end,route" entry of a move list. Start and End
// are decimal clock hours (e.g. 10.50 = 10:30).
type MoveSegment struct {
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
	Route string          `json:"route"`
}

// Hours returns max(0, End-Start).
func (m MoveSegment) Hours() decimal.Decimal {
	h := m.End.Sub(m.Start)
	if h.IsNegative() {
		return decimal.Zero
	}
	return h
}

// ParseMoves parses a comma-separated move list. Blank, "none" and
// "no moves" yield no segments.
func ParseMoves(s string) ([]MoveSegment, error) {
	if isBlank(s) {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts)%3 != 0 {
		return nil, fmt.Errorf("move list has %d fields, want triples of start,end,route", len(parts))
	}

	segments := make([]MoveSegment, 0, len(parts)/3)
	for i := 0; i < len(parts); i += 3 {
		start, err := decimal.NewFromString(strings.TrimSpace(parts[i]))
		if err != nil {
			return nil, fmt.Errorf("move %d: invalid start %q", i/3+1, parts[i])
		}
		end, err := decimal.NewFromString(strings.TrimSpace(parts[i+1]))
		if err != nil {
			return nil, fmt.Errorf("move %d: invalid end %q", i/3+1, parts[i+1])
		}
		route := strings.TrimSpace(parts[i+2])
		if route == "" {
			return nil, fmt.Errorf("move %d: missing route", i/3+1)
		}
		segments = append(segments, MoveSegment{Start: start, End: end, Route: route})
	}
	return segments, nil
}

// joinMoves concatenates the move lists of several rows for one carrier-day.
func joinMoves(lists []string) string {
	var kept []string
	for _, l := range lists {
		if !isBlank(l) {
			kept = append(kept, strings.TrimSpace(l))
		}
	}
	return strings.Join(kept, ",")
}
