// Package scryfalltest provides an in-process fake of the card-data service
// for tests
package scryfalltest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Card describes a card the fake server knows about
type Card struct {
	ID              string
	Name            string
	Set             string
	SetName         string
	Block           string
	CollectorNumber string
	// BackName makes the card double-faced with images on its faces
	BackName string
	// BrokenImage serves bytes that do not decode as an image
	BrokenImage bool
	// MissingImage answers image requests with 404
	MissingImage bool
}

// Server is a fake card-data service
type Server struct {
	*httptest.Server
	PageSize int

	mu       sync.Mutex
	cards    []Card
	requests []string
}

// NewServer starts a fake service that is closed when the test ends
func NewServer(t testing.TB, cards ...Card) *Server {
	t.Helper()
	s := &Server{PageSize: 175, cards: cards}

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/named", s.named)
	mux.HandleFunc("/cards/search", s.search)
	mux.HandleFunc("/cards/{set}/{number}", s.printing)
	mux.HandleFunc("/img/", s.image)
	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// Requests returns the request URIs seen so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests counts requests whose path starts with prefix
func (s *Server) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, typ, details string) {
	body := map[string]any{"object": "error", "status": status, "code": code, "details": details}
	if typ != "" {
		body["type"] = typ
	}
	writeJSON(w, status, body)
}

func (s *Server) object(c Card) map[string]any {
	img := func(suffix string) map[string]string {
		u := fmt.Sprintf("%s/img/%s%s.png", s.URL, c.ID, suffix)
		return map[string]string{"png": u, "large": u}
	}

	obj := map[string]any{
		"object":           "card",
		"id":               c.ID,
		"name":             c.Name,
		"set":              c.Set,
		"set_name":         c.SetName,
		"collector_number": c.CollectorNumber,
		"layout":           "normal",
	}
	if c.Block != "" {
		obj["block"] = c.Block
	}
	if c.BackName == "" {
		obj["image_uris"] = img("")
		return obj
	}

	front := strings.SplitN(c.Name, " // ", 2)[0]
	obj["layout"] = "transform"
	obj["card_faces"] = []map[string]any{
		{"object": "card_face", "name": front, "image_uris": img("")},
		{"object": "card_face", "name": c.BackName, "image_uris": img("-back")},
	}
	return obj
}

func (s *Server) named(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	set := strings.ToLower(q.Get("set"))

	var candidates []Card
	for _, c := range s.cards {
		if set != "" && strings.ToLower(c.Set) != set {
			continue
		}
		candidates = append(candidates, c)
	}

	if exact := q.Get("exact"); exact != "" {
		for _, c := range candidates {
			if strings.EqualFold(c.Name, exact) {
				writeJSON(w, http.StatusOK, s.object(c))
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "", "No cards found matching “"+exact+"”")
		return
	}

	fuzzy := strings.ToLower(q.Get("fuzzy"))
	names := map[string]Card{}
	for _, c := range candidates {
		if strings.ToLower(c.Name) == fuzzy {
			writeJSON(w, http.StatusOK, s.object(c))
			return
		}
		if strings.Contains(strings.ToLower(c.Name), fuzzy) {
			if _, ok := names[c.Name]; !ok {
				names[c.Name] = c
			}
		}
	}
	switch len(names) {
	case 0:
		writeError(w, http.StatusNotFound, "not_found", "", "No cards found matching “"+fuzzy+"”")
	case 1:
		for _, c := range names {
			writeJSON(w, http.StatusOK, s.object(c))
		}
	default:
		writeError(w, http.StatusNotFound, "not_found", "ambiguous", "Too many cards match ambiguous name “"+fuzzy+"”.")
	}
}

func (s *Server) printing(w http.ResponseWriter, r *http.Request) {
	set, number := r.PathValue("set"), r.PathValue("number")
	for _, c := range s.cards {
		if strings.EqualFold(c.Set, set) && c.CollectorNumber == number {
			writeJSON(w, http.StatusOK, s.object(c))
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "", "No card found with the given ID or set code and collector number.")
}

// matches supports plain substrings, set:xxx and !"exact name" terms
func matches(c Card, query string) bool {
	for _, term := range splitTerms(query) {
		switch {
		case strings.HasPrefix(term, "set:"):
			if !strings.EqualFold(c.Set, strings.TrimPrefix(term, "set:")) {
				return false
			}
		case strings.HasPrefix(term, "!"):
			if !strings.EqualFold(c.Name, strings.Trim(strings.TrimPrefix(term, "!"), `"`)) {
				return false
			}
		default:
			if !strings.Contains(strings.ToLower(c.Name), strings.ToLower(strings.Trim(term, `"`))) {
				return false
			}
		}
	}
	return true
}

func splitTerms(q string) []string {
	var terms []string
	var cur strings.Builder
	quoted := false
	for _, r := range q {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				terms = append(terms, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		terms = append(terms, cur.String())
	}
	return terms
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.Contains(q, "invalid:") {
		writeError(w, http.StatusBadRequest, "bad_request", "", "All of your terms were ignored.")
		return
	}

	var found []Card
	for _, c := range s.cards {
		if matches(c, q) {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		writeError(w, http.StatusNotFound, "not_found", "", "Your query didn’t match any cards.")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * s.PageSize
	end := min(start+s.PageSize, len(found))

	data := []map[string]any{}
	for _, c := range found[start:end] {
		data = append(data, s.object(c))
	}
	body := map[string]any{
		"object":      "list",
		"total_cards": len(found),
		"has_more":    end < len(found),
		"data":        data,
	}
	if end < len(found) {
		next := url.Values{"q": {q}, "page": {strconv.Itoa(page + 1)}}
		body["next_page"] = s.URL + "/cards/search?" + next.Encode()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/img/"), ".png")
	back := strings.HasSuffix(name, "-back")
	id := strings.TrimSuffix(name, "-back")

	for _, c := range s.cards {
		if c.ID != id {
			continue
		}
		switch {
		case c.MissingImage:
			http.NotFound(w, r)
		case c.BrokenImage:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("definitely not a png"))
		default:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(PNG(4, 6, faceColor(back)))
		}
		return
	}
	http.NotFound(w, r)
}

func faceColor(back bool) color.Color {
	if back {
		return color.NRGBA{0, 0, 255, 255}
	}
	return color.NRGBA{255, 0, 0, 255}
}

// PNG encodes a solid w x h image
func PNG(w, h int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
