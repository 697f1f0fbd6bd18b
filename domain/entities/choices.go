package entities

import (
	"fmt"
	"strings"
)

// ChoiceCount is the number of private flags a participant picks per entry
const ChoiceCount = 3

// Choices is the private boolean triple a participant commits to
type Choices [ChoiceCount]bool

// ChoicesFromBits builds a triple from the low three bits of b, most significant bit first
func ChoicesFromBits(b uint8) Choices {
	var c Choices
	for i := 0; i < ChoiceCount; i++ {
		c[i] = b&(1<<(ChoiceCount-1-i)) != 0
	}
	return c
}

// Bits packs the triple into the low three bits, most significant bit first
func (c Choices) Bits() uint8 {
	var b uint8
	for i, v := range c {
		if v {
			b |= 1 << (ChoiceCount - 1 - i)
		}
	}
	return b
}

// Flip returns a copy with the flag at position i inverted
func (c Choices) Flip(i int) Choices {
	c[i] = !c[i]
	return c
}

// String renders the triple as a binary string, e.g. "101"
func (c Choices) String() string {
	var sb strings.Builder
	for _, v := range c {
		if v {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseChoices accepts "101", "1,0,1" or "true,false,true"
func ParseChoices(s string) (Choices, error) {
	var c Choices
	s = strings.TrimSpace(s)

	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Split(s, "")
	}
	if len(parts) != ChoiceCount {
		return c, fmt.Errorf("expected %d choices, got %d in %q", ChoiceCount, len(parts), s)
	}

	for i, p := range parts {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "1", "true", "t":
			c[i] = true
		case "0", "false", "f":
			c[i] = false
		default:
			return c, fmt.Errorf("invalid choice %q at position %d", p, i)
		}
	}
	return c, nil
}
