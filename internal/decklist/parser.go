// Package decklist parses raw text deck lists into the canonical shape the
// legality engine consumes: main-deck entries, a blank line, then the
// commander line.
package decklist

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Entry is one deck list line: a card name and how many copies are claimed.
type Entry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// DeckList is the canonical parsed deck: an ordered main deck plus the
// commander. Built once per check request and immutable afterwards.
type DeckList struct {
	MainDeck  []Entry `json:"main_deck"`
	Commander Entry   `json:"commander"`
}

// FormatError reports a structurally malformed deck list.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed deck list: %s", e.Reason)
}

// InvalidQuantityError reports a line whose leading token is not a positive
// integer.
type InvalidQuantityError struct {
	Line  int    // 1-based line number in the input
	Token string // the offending quantity token
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("line %d: invalid quantity %q", e.Line, e.Token)
}

// Parse parses a raw deck list. The expected format is one "<quantity>
// <card name>" entry per line, a blank line, then the commander line. Lines
// after the commander line are ignored. Any malformed line aborts the parse;
// no partial deck list is returned.
func Parse(raw string) (*DeckList, error) {
	lines := strings.Split(raw, "\n")

	separator := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			separator = i
			break
		}
	}
	if separator == -1 {
		return nil, &FormatError{Reason: "no blank line between main deck and commander"}
	}

	deck := &DeckList{MainDeck: make([]Entry, 0, separator)}

	for i := 0; i < separator; i++ {
		entry, err := parseLine(lines[i], i+1)
		if err != nil {
			return nil, err
		}
		deck.MainDeck = append(deck.MainDeck, entry)
	}

	commanderLine := -1
	for i := separator + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			commanderLine = i
			break
		}
	}
	if commanderLine == -1 {
		return nil, &FormatError{Reason: "no commander line after the blank separator"}
	}

	commander, err := parseLine(lines[commanderLine], commanderLine+1)
	if err != nil {
		return nil, err
	}
	deck.Commander = commander

	return deck, nil
}

// parseLine splits a line on the first run of whitespace into a quantity
// token and the card name. Names keep their internal spacing and
// punctuation; only the first split matters.
func parseLine(line string, lineNo int) (Entry, error) {
	trimmed := strings.TrimSpace(line)

	cut := strings.IndexFunc(trimmed, unicode.IsSpace)
	if cut == -1 {
		return Entry{}, &FormatError{Reason: fmt.Sprintf("line %d: expected \"<quantity> <card name>\", got %q", lineNo, trimmed)}
	}

	token := trimmed[:cut]
	name := strings.TrimSpace(trimmed[cut:])
	if name == "" {
		return Entry{}, &FormatError{Reason: fmt.Sprintf("line %d: missing card name", lineNo)}
	}

	quantity, err := strconv.Atoi(token)
	if err != nil || quantity < 1 {
		return Entry{}, &InvalidQuantityError{Line: lineNo, Token: token}
	}

	return Entry{Name: name, Quantity: quantity}, nil
}

// Names returns the distinct card names in the deck, commander included, in
// first-appearance order. This is the flat multiset handed to the bracket
// classifier.
func (d *DeckList) Names() []string {
	seen := make(map[string]struct{}, len(d.MainDeck)+1)
	names := make([]string, 0, len(d.MainDeck)+1)

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	add(d.Commander.Name)
	for _, entry := range d.MainDeck {
		add(entry.Name)
	}

	return names
}
