// Package deck reads markdown deck files into card content and
// fingerprints that content for import deduplication.
package deck

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/ciaranbyrne/revise/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	separator      = "---"
)

type readState int

const (
	seeking readState = iota
	inQuestion
	inAnswer
)

// ParseFile reads the deck file at path and returns its cards.
func ParseFile(path string) ([]domain.CardInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse extracts cards from a deck. A card is a "Q:" block followed
// by an "A:" block; either may span multiple lines. A "---" line or a
// new "Q:" ends the current card. Entries missing a question or an
// answer are dropped.
func Parse(r io.Reader) ([]domain.CardInput, error) {
	var (
		cards   []domain.CardInput
		current domain.CardInput
		block   []string
		state   = seeking
	)

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case inQuestion:
			current.Question = text
		case inAnswer:
			current.Answer = text
		}
		block = nil
	}

	closeCard := func() {
		closeBlock()
		if current.Question != "" && current.Answer != "" {
			cards = append(cards, current)
		}
		current = domain.CardInput{}
		state = seeking
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == separator:
			closeCard()
		case strings.HasPrefix(line, questionPrefix):
			closeCard()
			state = inQuestion
			block = append(block, strings.TrimPrefix(line[len(questionPrefix):], " "))
		case strings.HasPrefix(line, answerPrefix):
			closeBlock()
			state = inAnswer
			block = append(block, strings.TrimPrefix(line[len(answerPrefix):], " "))
		case state != seeking:
			block = append(block, line)
		}
	}
	closeCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}
