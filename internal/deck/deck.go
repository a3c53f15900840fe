package deck

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arcanaland/proxymancer/internal/errs"
)

// Line is one entry of a deck list
type Line struct {
	Number          int // 1-based position in the input or argument list
	Raw             string
	Quantity        int
	Name            string
	Set             string // Optional set code as written by the user
	SetName         string
	CollectorNumber string
}

// Key identifies the printing a line asks for, ignoring quantity
func (l Line) Key() string {
	return strings.ToLower(l.Name) + "|" + strings.ToLower(l.Set)
}

func (l Line) String() string {
	s := fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	if l.Set != "" {
		s += fmt.Sprintf(" (%s)", l.Set)
	}
	if l.CollectorNumber != "" {
		s += " " + l.CollectorNumber
	}
	return s
}

// Format is a deck list file format
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

var (
	lineRe            = regexp.MustCompile(`^(?:(\d+)x?\s+)?(.+?)(?:\s*\(([^()]+)\)(?:\s+(.+?))?)?\s*$`)
	collectorNumberRe = regexp.MustCompile(`^\d+\S*$`)
	sectionRe         = regexp.MustCompile(`^\[.*\]$`)
)

// ParseLine parses a single deck list entry. ok is false for blank lines,
// comments and section headers
func ParseLine(s string) (line Line, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//") || sectionRe.MatchString(s) {
		return Line{}, false, nil
	}

	m := lineRe.FindStringSubmatch(s)
	if m == nil {
		return Line{}, false, errs.E("parse line", errs.KindInvalidInput, "", fmt.Errorf("cannot parse %q", s))
	}

	line = Line{Raw: s, Quantity: 1, Name: strings.TrimSpace(m[2]), Set: strings.TrimSpace(m[3])}
	if m[1] != "" {
		q, err := strconv.Atoi(m[1])
		if err != nil {
			return Line{}, false, errs.E("parse line", errs.KindInvalidInput, "", fmt.Errorf("bad quantity in %q: %w", s, err))
		}
		line.Quantity = q
	}
	if line.Quantity < 1 {
		return Line{}, false, errs.E("parse line", errs.KindInvalidInput, "", fmt.Errorf("quantity must be at least 1 in %q", s))
	}

	if trailer := strings.TrimSpace(m[4]); trailer != "" {
		if collectorNumberRe.MatchString(trailer) {
			line.CollectorNumber = trailer
		} else {
			line.SetName = trailer
		}
	}

	return line, true, nil
}

// ParseError collects the lines that could not be parsed
type ParseError struct {
	Number int
	Err    error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Number, e.Err)
}

// Parse reads every entry from r. Unparsable lines are returned separately so
// that callers can report them and carry on with the rest
func Parse(r io.Reader, format Format) ([]Line, []ParseError, error) {
	if format == FormatCSV {
		return parseCSV(r)
	}

	var lines []Line
	var bad []ParseError

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line, ok, err := ParseLine(scanner.Text())
		if err != nil {
			bad = append(bad, ParseError{Number: n, Err: err})
			continue
		}
		if !ok {
			continue
		}
		line.Number = n
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading deck list: %w", err)
	}

	return lines, bad, nil
}

// parseCSV reads a ManaBox style collection export. The first row is a
// header; the name column defaults to the first one
func parseCSV(r io.Reader) ([]Line, []ParseError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error reading csv header: %w", err)
	}

	cols := map[string]int{"name": 0}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var lines []Line
	var bad []ParseError
	n := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		n++
		if err != nil {
			bad = append(bad, ParseError{Number: n, Err: err})
			continue
		}

		line := Line{
			Number:          n,
			Raw:             strings.Join(rec, ","),
			Quantity:        1,
			Name:            field(rec, "name"),
			Set:             field(rec, "set code"),
			SetName:         field(rec, "set name"),
			CollectorNumber: field(rec, "collector number"),
		}
		if line.Name == "" {
			continue
		}
		if q := field(rec, "quantity"); q != "" {
			line.Quantity, err = strconv.Atoi(q)
			if err != nil || line.Quantity < 1 {
				bad = append(bad, ParseError{Number: n, Err: errs.E("parse csv", errs.KindInvalidInput, "", fmt.Errorf("bad quantity %q", q))})
				continue
			}
		}
		lines = append(lines, line)
	}

	return lines, bad, nil
}

// DetectFormat picks a parser from the file name
func DetectFormat(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatText
}

// Source describes where a deck list comes from: literal card arguments,
// a file, or standard input, checked in that order
type Source struct {
	Cards []string
	File  string
	Stdin io.Reader
}

// Load reads and parses the deck list described by src
func Load(src Source) ([]Line, []ParseError, error) {
	if len(src.Cards) > 0 {
		var lines []Line
		var bad []ParseError
		for i, c := range src.Cards {
			line, ok, err := ParseLine(c)
			if err != nil {
				bad = append(bad, ParseError{Number: i + 1, Err: err})
				continue
			}
			if ok {
				line.Number = i + 1
				lines = append(lines, line)
			}
		}
		return lines, bad, nil
	}

	if src.File != "" {
		f, err := os.Open(src.File)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening deck list: %w", err)
		}
		defer f.Close()
		return Parse(f, DetectFormat(src.File))
	}

	if src.Stdin == nil {
		return nil, nil, errs.E("load deck", errs.KindInvalidInput, "", fmt.Errorf("no cards, input file or stdin given"))
	}
	return Parse(src.Stdin, FormatText)
}
