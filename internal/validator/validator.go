package validator

import (
	"fmt"

	"github.com/arcanaland/proxymancer/internal/deck"
)

// maxQuantity is where a quantity stops looking like a deck count and
// starts looking like a card name that begins with digits
const maxQuantity = 99

type ValidationResults struct {
	Errors   []string
	Warnings []string
	Lines    []deck.Line
}

type Validator struct {
	Source  deck.Source
	Results ValidationResults
}

func NewValidator(src deck.Source) *Validator {
	return &Validator{
		Source:  src,
		Results: ValidationResults{},
	}
}

// Validate checks a deck list without touching the network. The returned
// error is reserved for input that cannot be read at all
func (v *Validator) Validate() (ValidationResults, error) {
	lines, bad, err := deck.Load(v.Source)
	if err != nil {
		return v.Results, err
	}
	v.Results.Lines = lines

	for _, pe := range bad {
		v.Results.Errors = append(v.Results.Errors, pe.Error())
	}

	if len(lines) == 0 && len(bad) == 0 {
		v.Results.Errors = append(v.Results.Errors, "deck list has no card entries")
	}

	v.validateDuplicates(lines)
	v.validateQuantities(lines)

	return v.Results, nil
}

// validateDuplicates warns about repeated entries for the same printing
func (v *Validator) validateDuplicates(lines []deck.Line) {
	first := make(map[string]deck.Line)
	for _, l := range lines {
		if prev, ok := first[l.Key()]; ok {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("line %d: %q repeats line %d; copies will be numbered after it", l.Number, l.Name, prev.Number))
			continue
		}
		first[l.Key()] = l
	}
}

// validateQuantities flags suspicious copy counts
func (v *Validator) validateQuantities(lines []deck.Line) {
	for _, l := range lines {
		if l.Quantity > maxQuantity {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("line %d: quantity %d for %q is unusually large", l.Number, l.Quantity, l.Name))
		}
	}
}

// Total returns the number of card copies the deck asks for
func (r ValidationResults) Total() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Quantity
	}
	return n
}
