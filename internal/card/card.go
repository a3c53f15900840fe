package card

import (
	"strings"

	"github.com/google/uuid"
)

// Face is one printable side of a card
type Face struct {
	Name     string
	ImageURL string
}

// Card represents a resolved card printing
type Card struct {
	ID              uuid.UUID
	Name            string // Canonical name (e.g., "Delver of Secrets // Insectile Aberration")
	Set             string // Set code, lower case as reported by the service
	SetName         string
	Block           string // Empty for sets outside a block
	CollectorNumber string
	Layout          string
	Front           Face
	Back            *Face // Present only for double-faced layouts
}

// Faces returns the printable faces in print order
func (c Card) Faces() []Face {
	if c.Back == nil {
		return []Face{c.Front}
	}
	return []Face{c.Front, *c.Back}
}

// IsDoubleFaced reports whether the card has a separate back image
func (c Card) IsDoubleFaced() bool {
	return c.Back != nil
}

// filenameTokens replaces characters that are unsafe in file names on
// common filesystems with reversible tokens
var filenameTokens = []string{
	"/", "__SLASH__",
	"\\", "__BSLASH__",
	"<", "__LT__",
	">", "__GT__",
	"|", "__PIPE__",
	"\"", "__QUOTE__",
	"*", "__STAR__",
	"?", "__QUEST__",
	":", "__COLON__",
}

var (
	sanitizer   = strings.NewReplacer(filenameTokens...)
	unsanitizer = strings.NewReplacer(reversed(filenameTokens)...)
)

func reversed(pairs []string) []string {
	out := make([]string, 0, len(pairs))
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, pairs[i+1], pairs[i])
	}
	return out
}

// SanitizeName turns a card name into a file name component
func SanitizeName(name string) string {
	return sanitizer.Replace(name)
}

// UnsanitizeName reverses SanitizeName
func UnsanitizeName(name string) string {
	return unsanitizer.Replace(name)
}
