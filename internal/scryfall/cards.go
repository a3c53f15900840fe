package scryfall

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/arcanaland/proxymancer/internal/card"
)

// cardObject mirrors the fields of a Scryfall card object that are used
type cardObject struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Set             string            `json:"set"`
	SetName         string            `json:"set_name"`
	Block           string            `json:"block"`
	CollectorNumber string            `json:"collector_number"`
	Layout          string            `json:"layout"`
	ImageURIs       map[string]string `json:"image_uris"`
	CardFaces       []faceObject      `json:"card_faces"`
}

type faceObject struct {
	Name      string            `json:"name"`
	ImageURIs map[string]string `json:"image_uris"`
}

type listObject struct {
	TotalCards int          `json:"total_cards"`
	HasMore    bool         `json:"has_more"`
	NextPage   string       `json:"next_page"`
	Data       []cardObject `json:"data"`
	Warnings   []string     `json:"warnings"`
}

// imageFallbacks is tried in order when the configured version is missing
var imageFallbacks = []string{"png", "large", "normal", "small"}

func pickImage(uris map[string]string, version string) string {
	if u := uris[version]; u != "" {
		return u
	}
	for _, v := range imageFallbacks {
		if u := uris[v]; u != "" {
			return u
		}
	}
	return ""
}

// toCard converts the loosely typed response into a card.Card. Cards with a
// top-level image (including split and adventure layouts) are single-faced;
// cards whose images live on their faces are double-faced
func (o cardObject) toCard(version string) (card.Card, error) {
	id, err := uuid.Parse(o.ID)
	if err != nil {
		return card.Card{}, fmt.Errorf("card %q has invalid id %q: %w", o.Name, o.ID, err)
	}

	c := card.Card{
		ID:              id,
		Name:            o.Name,
		Set:             o.Set,
		SetName:         o.SetName,
		Block:           o.Block,
		CollectorNumber: o.CollectorNumber,
		Layout:          o.Layout,
	}

	if u := pickImage(o.ImageURIs, version); u != "" {
		c.Front = card.Face{Name: o.Name, ImageURL: u}
		return c, nil
	}

	var faces []card.Face
	for _, f := range o.CardFaces {
		if u := pickImage(f.ImageURIs, version); u != "" {
			faces = append(faces, card.Face{Name: f.Name, ImageURL: u})
		}
	}
	switch {
	case len(faces) == 0:
		// Listed cards without artwork keep an empty URL; fetching them fails
		c.Front = card.Face{Name: o.Name}
	case len(faces) == 1:
		c.Front = faces[0]
	default:
		c.Front = faces[0]
		back := faces[1]
		c.Back = &back
	}
	return c, nil
}

// NamedQuery selects a single card by name
type NamedQuery struct {
	Name  string
	Set   string
	Exact bool
}

// Named looks up one card. With Exact the name must match exactly;
// otherwise the service picks the best fuzzy match
func (c *Client) Named(ctx context.Context, q NamedQuery) (card.Card, error) {
	params := url.Values{}
	if q.Exact {
		params.Set("exact", q.Name)
	} else {
		params.Set("fuzzy", q.Name)
	}
	if q.Set != "" {
		params.Set("set", q.Set)
	}

	u := c.endpoint("cards", "named")
	u.RawQuery = params.Encode()

	var obj cardObject
	if err := c.getJSON(ctx, u, &obj); err != nil {
		return card.Card{}, err
	}
	return obj.toCard(c.imageVersion)
}

// Printing looks up the one printing with the given set code and collector
// number
func (c *Client) Printing(ctx context.Context, set, number string) (card.Card, error) {
	u := c.endpoint("cards", strings.ToLower(set), number)

	var obj cardObject
	if err := c.getJSON(ctx, u, &obj); err != nil {
		return card.Card{}, err
	}
	return obj.toCard(c.imageVersion)
}

// SearchOptions tunes a search request
type SearchOptions struct {
	Unique string // cards, art or prints
	Order  string
}

// Search forwards query to the search endpoint and yields every match,
// fetching further pages only as the caller ranges over them. A query with
// no matches yields nothing. The sequence cannot be restarted
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) iter.Seq2[card.Card, error] {
	params := url.Values{}
	params.Set("q", query)
	if opts.Unique != "" {
		params.Set("unique", opts.Unique)
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	first := c.endpoint("cards", "search")
	first.RawQuery = params.Encode()

	used := false
	return func(yield func(card.Card, error) bool) {
		if used {
			yield(card.Card{}, fmt.Errorf("search results for %q already consumed", query))
			return
		}
		used = true

		next := first
		for page := 1; next != nil; page++ {
			var list listObject
			if err := c.getJSON(ctx, next, &list); err != nil {
				if page == 1 && IsNotFound(err) {
					return
				}
				yield(card.Card{}, err)
				return
			}
			for _, w := range list.Warnings {
				c.log.Warn("search warning", "query", query, "warning", w)
			}
			c.log.Debug("search page", "query", query, "page", page, "cards", len(list.Data), "total", list.TotalCards)

			for _, obj := range list.Data {
				cd, err := obj.toCard(c.imageVersion)
				if !yield(cd, err) || err != nil {
					return
				}
			}

			next = nil
			if list.HasMore && list.NextPage != "" {
				u, err := url.Parse(list.NextPage)
				if err != nil {
					yield(card.Card{}, fmt.Errorf("bad next_page %q: %w", list.NextPage, err))
					return
				}
				next = u
			}
		}
	}
}
