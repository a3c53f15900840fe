// Package resolver turns deck lines and search expressions into card
// records
package resolver

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/deck"
	"github.com/arcanaland/proxymancer/internal/errs"
	"github.com/arcanaland/proxymancer/internal/scryfall"
)

// CardService is the subset of the card-data service the resolver uses
type CardService interface {
	Named(ctx context.Context, q scryfall.NamedQuery) (card.Card, error)
	Printing(ctx context.Context, set, number string) (card.Card, error)
	Search(ctx context.Context, query string, opts scryfall.SearchOptions) iter.Seq2[card.Card, error]
}

// Cache stores resolved records between runs
type Cache interface {
	Get(name, set, number string) (card.Card, bool, error)
	Put(name, set, number string, c card.Card) error
}

// Resolver resolves cards through a CardService and an optional Cache
type Resolver struct {
	svc   CardService
	cache Cache
	log   *slog.Logger
}

// New returns a Resolver. cache may be nil
func New(svc CardService, cache Cache, log *slog.Logger) *Resolver {
	return &Resolver{svc: svc, cache: cache, log: log}
}

// Search forwards expr verbatim and yields the matching records lazily
func (r *Resolver) Search(ctx context.Context, expr string, opts scryfall.SearchOptions) iter.Seq2[card.Card, error] {
	return r.svc.Search(ctx, expr, opts)
}

// Resolve finds the single card a deck line names, using the most specific
// lookup the line allows. A set code with a collector number selects that
// printing; a set code alone asks for an exact name match within the set;
// otherwise the best fuzzy match is used. An ambiguous name falls back to
// the first search result and logs a warning
func (r *Resolver) Resolve(ctx context.Context, line deck.Line) (card.Card, error) {
	log := r.log.With("card", line.Name)

	if r.cache != nil {
		c, ok, err := r.cache.Get(line.Name, line.Set, line.CollectorNumber)
		if err != nil {
			log.Warn("ignoring unreadable cache entry", "error", err)
		} else if ok {
			log.Debug("resolved from cache")
			return c, nil
		}
	}

	var c card.Card
	var err error
	if line.Set != "" && line.CollectorNumber != "" {
		c, err = r.svc.Printing(ctx, line.Set, line.CollectorNumber)
		if err == nil && !namesCard(c, line.Name) {
			log.Warn("collector number names a different card, using the printing",
				"set", line.Set, "number", line.CollectorNumber, "match", c.Name)
		}
	} else {
		c, err = r.svc.Named(ctx, scryfall.NamedQuery{Name: line.Name, Set: line.Set, Exact: line.Set != ""})
	}
	switch {
	case err == nil:
	case scryfall.IsAmbiguous(err):
		ambiguous := errs.E("resolve", errs.KindAmbiguous, "", err)
		c, err = r.firstMatch(ctx, line)
		if err != nil {
			return card.Card{}, err
		}
		log.Warn("ambiguous card name, using first match",
			"error", ambiguous,
			"match", c.Name, "set", c.Set)
	case scryfall.IsNotFound(err):
		return card.Card{}, errs.E("resolve", errs.KindNotFound, "", fmt.Errorf("no card matches %q", line.Name))
	default:
		return card.Card{}, errs.E("resolve", errs.KindDownload, "", err)
	}

	if r.cache != nil {
		if err := r.cache.Put(line.Name, line.Set, line.CollectorNumber, c); err != nil {
			log.Warn("could not cache card", "error", err)
		}
	}
	return c, nil
}

// namesCard reports whether name is the card's full name or one of its
// face names
func namesCard(c card.Card, name string) bool {
	if strings.EqualFold(c.Name, name) {
		return true
	}
	for _, f := range c.Faces() {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

func (r *Resolver) firstMatch(ctx context.Context, line deck.Line) (card.Card, error) {
	expr := line.Name
	if line.Set != "" {
		expr += " set:" + line.Set
	}

	for c, err := range r.svc.Search(ctx, expr, scryfall.SearchOptions{}) {
		if err != nil {
			return card.Card{}, errs.E("resolve", errs.KindDownload, "", err)
		}
		return c, nil
	}
	return card.Card{}, errs.E("resolve", errs.KindNotFound, "", fmt.Errorf("no card matches %q", line.Name))
}
