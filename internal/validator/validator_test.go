package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/proxymancer/internal/deck"
)

func TestValidateCleanDeck(t *testing.T) {
	v := NewValidator(deck.Source{Stdin: strings.NewReader("4 Lightning Bolt\n2 Island (ZNR)\n")})

	results, err := v.Validate()
	require.NoError(t, err)
	assert.Empty(t, results.Errors)
	assert.Empty(t, results.Warnings)
	assert.Equal(t, 6, results.Total())
}

func TestValidateReportsProblems(t *testing.T) {
	input := strings.Join([]string{
		"4 Lightning Bolt",
		"0 Island",
		"2 lightning bolt",
		"1996 World Champion",
	}, "\n")
	v := NewValidator(deck.Source{Stdin: strings.NewReader(input)})

	results, err := v.Validate()
	require.NoError(t, err)
	require.Len(t, results.Errors, 1)
	assert.Contains(t, results.Errors[0], "line 2")
	require.Len(t, results.Warnings, 2)
	assert.Contains(t, results.Warnings[0], "repeats line 1")
	assert.Contains(t, results.Warnings[1], "unusually large")
}

func TestValidateEmptyDeck(t *testing.T) {
	v := NewValidator(deck.Source{Stdin: strings.NewReader("# nothing here\n")})

	results, err := v.Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"deck list has no card entries"}, results.Errors)
}

func TestValidateMissingFile(t *testing.T) {
	v := NewValidator(deck.Source{File: "does/not/exist.txt"})

	_, err := v.Validate()
	assert.Error(t, err)
}
