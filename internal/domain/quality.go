package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidQuality is returned when a rating outside [0, 5] is
// supplied to the scheduler.
var ErrInvalidQuality = errors.New("quality rating outside 0-5")

// ErrInvalidInput is returned when a card is created with an empty
// question or answer.
var ErrInvalidInput = errors.New("question and answer must be non-empty")

// Quality is the 0-5 self-assessment of recall supplied after a
// card's answer is revealed. 0 is a total failure to recall, 5 is a
// perfect, effortless recall.
type Quality int

const (
	Blackout  Quality = 0 // no recall at all
	Wrong     Quality = 1 // wrong, but recognized the answer
	Hard      Quality = 2 // wrong, answer felt familiar
	Difficult Quality = 3 // correct with serious effort
	Good      Quality = 4 // correct after some hesitation
	Easy      Quality = 5 // correct without hesitation
)

var qualityNames = [...]string{
	Blackout:  "Blackout",
	Wrong:     "Wrong",
	Hard:      "Hard",
	Difficult: "Difficult",
	Good:      "Good",
	Easy:      "Easy",
}

// Valid reports whether q lies in the accepted [0, 5] range.
func (q Quality) Valid() bool {
	return q >= Blackout && q <= Easy
}

// Correct reports whether q counts as a successful recall. Ratings of
// 3 and above are correct.
func (q Quality) Correct() bool {
	return q >= Difficult
}

// String returns the rating's name, or "Quality(n)" for out-of-range
// values.
func (q Quality) String() string {
	if q.Valid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}
