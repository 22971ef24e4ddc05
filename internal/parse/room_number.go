package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var roomNumberRe = regexp.MustCompile(`^([A-Za-z]*)\s*(\d+)(\d{2})$`)

// ParsedRoomNumber holds the structured parts of a room number such as
// "101" (floor 1, seq 1) or "B1204" (wing B, floor 12, seq 4).
type ParsedRoomNumber struct {
	Wing  string
	Floor int
	Seq   int
}

// RoomNumber formats a floor and a sequence on that floor.
func RoomNumber(floor, seq int) string {
	return fmt.Sprintf("%d%02d", floor, seq)
}

// ParseRoomNumber splits a raw room number into wing, floor and sequence.
// The last two digits are the sequence, the leading digits the floor.
func ParseRoomNumber(raw string) (ParsedRoomNumber, error) {
	s := strings.TrimSpace(raw)
	m := roomNumberRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedRoomNumber{}, fmt.Errorf("unable to parse room number: %q", raw)
	}

	floor, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedRoomNumber{}, fmt.Errorf("unable to parse floor from room number %q: %w", raw, err)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ParsedRoomNumber{}, fmt.Errorf("unable to parse sequence from room number %q: %w", raw, err)
	}

	return ParsedRoomNumber{Wing: strings.ToUpper(m[1]), Floor: floor, Seq: seq}, nil
}

// LessRoomNumber orders room numbers by wing, floor and sequence, so that
// "201" sorts before "1001". Unparseable numbers sort after parseable ones,
// lexically among themselves.
func LessRoomNumber(a, b string) bool {
	pa, errA := ParseRoomNumber(a)
	pb, errB := ParseRoomNumber(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	if pa.Wing != pb.Wing {
		return pa.Wing < pb.Wing
	}
	if pa.Floor != pb.Floor {
		return pa.Floor < pb.Floor
	}
	return pa.Seq < pb.Seq
}
