// Package fitshdr reads and rewrites FITS primary headers.
//
// Only the header is handled here: 2880-byte blocks of 36 80-byte cards,
// terminated by an END card. Image data is passed through untouched by
// Rewrite. Parsing follows version 3.0 of the FITS standard: the value
// indicator "= " must sit at columns 9-10, string values are quoted with
// '' escaping, and a "/" begins an inline comment.
package fitshdr

import (
	"io"
	"strconv"
	"strings"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

const (
	// BlockSize is the FITS block size in bytes.
	BlockSize = 2880
	// CardSize is the size of a single header card in bytes.
	CardSize = 80
	cardsPerBlock = BlockSize / CardSize
)

// Card is a single header card.
type Card struct {
	// Name is the keyword name, uppercase, at most 8 characters.
	Name string
	// Value is the card value with quotes stripped and whitespace trimmed.
	// For commentary cards (HISTORY, COMMENT, blank) it is the card text.
	Value string
	// Comment is the inline comment following "/", if any.
	Comment string
	// Quoted records whether the value is a FITS string (written in quotes).
	Quoted bool
	// HasValue records whether the card carries the "= " value indicator.
	HasValue bool
}

// Header is an ordered FITS primary header.
type Header struct {
	cards []Card
}

// Cards returns the cards in file order, excluding END.
func (h *Header) Cards() []Card {
	return h.cards
}

// Get returns the trimmed string value for a keyword, case-insensitively.
// The second return is false when the keyword is absent.
func (h *Header) Get(name string) (string, bool) {
	name = normalizeName(name)
	for i := range h.cards {
		if h.cards[i].HasValue && h.cards[i].Name == name {
			return h.cards[i].Value, true
		}
	}
	return "", false
}

// Has reports whether the keyword is present with a value card.
func (h *Header) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Int returns the keyword value parsed as an integer.
func (h *Header) Int(name string) (int, bool) {
	s, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set replaces the value of an existing keyword or appends a new value card.
func (h *Header) Set(name, value string, quoted bool, comment string) {
	name = normalizeName(name)
	for i := range h.cards {
		if h.cards[i].HasValue && h.cards[i].Name == name {
			h.cards[i].Value = value
			h.cards[i].Quoted = quoted
			if comment != "" {
				h.cards[i].Comment = comment
			}
			return
		}
	}
	h.cards = append(h.cards, Card{
		Name:     name,
		Value:    value,
		Comment:  comment,
		Quoted:   quoted,
		HasValue: true,
	})
}

// SetString sets a quoted string keyword.
func (h *Header) SetString(name, value, comment string) {
	h.Set(name, value, true, comment)
}

// SetNumber sets an unquoted (numeric or logical) keyword from its literal.
func (h *Header) SetNumber(name, literal, comment string) {
	h.Set(name, literal, false, comment)
}

// AddHistory appends a HISTORY card.
func (h *Header) AddHistory(text string) {
	h.cards = append(h.cards, Card{Name: "HISTORY", Value: text})
}

// Map returns keyword name to value for all value cards.
// Keys are uppercase; duplicate keywords keep the first occurrence,
// matching Get.
func (h *Header) Map() map[string]string {
	m := make(map[string]string, len(h.cards))
	for i := range h.cards {
		c := &h.cards[i]
		if !c.HasValue {
			continue
		}
		if _, seen := m[c.Name]; !seen {
			m[c.Name] = c.Value
		}
	}
	return m
}

// ParseHeader reads a primary header from r. Reads are block-aligned, so
// after a successful parse r is positioned at the first data block.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	buf := make([]byte, BlockSize)
	first := true

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, herderrors.New(herderrors.ErrCodeNotFITS,
				"header ended before END card", err)
		}

		for i := 0; i < cardsPerBlock; i++ {
			card := string(buf[i*CardSize : (i+1)*CardSize])
			name := strings.TrimSpace(card[:8])

			if first {
				// A primary header must open with SIMPLE; extensions
				// open with XTENSION.
				if name != "SIMPLE" && name != "XTENSION" {
					return nil, herderrors.New(herderrors.ErrCodeNotFITS,
						"file does not begin with a SIMPLE card", nil)
				}
				first = false
			}

			if name == "END" {
				return h, nil
			}

			// The standard is strict about the value indicator position.
			if card[8:10] != "= " {
				text := strings.TrimRight(card[8:], " ")
				h.cards = append(h.cards, Card{Name: name, Value: strings.TrimPrefix(text, " ")})
				continue
			}

			value, quoted, comment := parseValue(card[10:])
			h.cards = append(h.cards, Card{
				Name:     name,
				Value:    value,
				Comment:  comment,
				Quoted:   quoted,
				HasValue: true,
			})
		}
	}
}

// parseValue splits the value field of a card into value, quoted flag and
// inline comment.
func parseValue(field string) (value string, quoted bool, comment string) {
	s := strings.TrimSpace(field)
	if s == "" {
		return "", false, ""
	}

	if s[0] == '\'' {
		// Quoted string; '' is an escaped quote.
		var b strings.Builder
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			b.WriteByte(s[i])
			i++
		}
		rest := strings.TrimSpace(s[i:])
		if strings.HasPrefix(rest, "/") {
			comment = strings.TrimSpace(rest[1:])
		}
		// Trailing blanks in a FITS string are not significant.
		return strings.TrimRight(b.String(), " "), true, comment
	}

	if j := strings.Index(s, "/"); j != -1 {
		comment = strings.TrimSpace(s[j+1:])
		s = s[:j]
	}
	return strings.TrimSpace(s), false, comment
}

// normalizeName uppercases and truncates a keyword name to 8 characters.
func normalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) > 8 {
		name = name[:8]
	}
	return name
}
