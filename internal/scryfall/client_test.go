package scryfall_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/scryfall"
	"github.com/arcanaland/proxymancer/internal/scryfall/scryfalltest"
)

const (
	lotusID  = "b0faa7f2-b547-42c4-a810-839da50dadfe"
	delverID = "11bf83bb-c95b-4b4f-9a56-ce7a1816307a"
)

func newClient(t *testing.T, srv *scryfalltest.Server) *scryfall.Client {
	t.Helper()
	c, err := scryfall.New(scryfall.Options{Server: srv.URL, UserAgent: "proxymancer-test"})
	require.NoError(t, err)
	return c
}

func TestNamedFuzzy(t *testing.T) {
	srv := scryfalltest.NewServer(t, scryfalltest.Card{
		ID: lotusID, Name: "Black Lotus", Set: "lea", SetName: "Limited Edition Alpha", CollectorNumber: "232",
	})
	c := newClient(t, srv)

	got, err := c.Named(context.Background(), scryfall.NamedQuery{Name: "Black Lotus"})
	require.NoError(t, err)

	assert.Equal(t, "Black Lotus", got.Name)
	assert.Equal(t, lotusID, got.ID.String())
	assert.Equal(t, "lea", got.Set)
	assert.Equal(t, "232", got.CollectorNumber)
	assert.False(t, got.IsDoubleFaced())
	assert.Equal(t, srv.URL+"/img/"+lotusID+".png", got.Front.ImageURL)
	assert.Equal(t, []string{"/cards/named?fuzzy=Black+Lotus"}, srv.Requests())
}

func TestNamedExactWithSet(t *testing.T) {
	srv := scryfalltest.NewServer(t, scryfalltest.Card{ID: lotusID, Name: "Black Lotus", Set: "lea"})
	c := newClient(t, srv)

	_, err := c.Named(context.Background(), scryfall.NamedQuery{Name: "Black Lotus", Set: "LEA", Exact: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/cards/named?exact=Black+Lotus&set=LEA"}, srv.Requests())
}

func TestPrinting(t *testing.T) {
	srv := scryfalltest.NewServer(t,
		scryfalltest.Card{ID: lotusID, Name: "Black Lotus", Set: "lea", CollectorNumber: "232"},
		scryfalltest.Card{ID: delverID, Name: "Black Lotus", Set: "leb", CollectorNumber: "233"},
	)
	c := newClient(t, srv)

	got, err := c.Printing(context.Background(), "LEB", "233")
	require.NoError(t, err)
	assert.Equal(t, delverID, got.ID.String())
	assert.Equal(t, "233", got.CollectorNumber)
	assert.Equal(t, []string{"/cards/leb/233"}, srv.Requests())

	_, err = c.Printing(context.Background(), "lea", "1")
	assert.True(t, scryfall.IsNotFound(err))
}

func TestNamedDoubleFaced(t *testing.T) {
	srv := scryfalltest.NewServer(t, scryfalltest.Card{
		ID: delverID, Name: "Delver of Secrets // Insectile Aberration", Set: "isd", BackName: "Insectile Aberration",
	})
	c := newClient(t, srv)

	got, err := c.Named(context.Background(), scryfall.NamedQuery{Name: "delver of secrets"})
	require.NoError(t, err)
	require.True(t, got.IsDoubleFaced())
	assert.Equal(t, card.Face{Name: "Delver of Secrets", ImageURL: srv.URL + "/img/" + delverID + ".png"}, got.Front)
	assert.Equal(t, "Insectile Aberration", got.Back.Name)
	assert.Equal(t, srv.URL+"/img/"+delverID+"-back.png", got.Back.ImageURL)
}

func TestNamedErrors(t *testing.T) {
	srv := scryfalltest.NewServer(t,
		scryfalltest.Card{ID: lotusID, Name: "Black Lotus", Set: "lea"},
		scryfalltest.Card{ID: delverID, Name: "Lotus Petal", Set: "tmp"},
	)
	c := newClient(t, srv)

	_, err := c.Named(context.Background(), scryfall.NamedQuery{Name: "Nonexistent Card"})
	require.Error(t, err)
	assert.True(t, scryfall.IsNotFound(err))
	assert.False(t, scryfall.IsAmbiguous(err))

	_, err = c.Named(context.Background(), scryfall.NamedQuery{Name: "lotus"})
	require.Error(t, err)
	assert.True(t, scryfall.IsAmbiguous(err))
	assert.Contains(t, err.Error(), "Too many cards")
}

func TestSearchFollowsPages(t *testing.T) {
	var cards []scryfalltest.Card
	for i := 0; i < 7; i++ {
		cards = append(cards, scryfalltest.Card{
			ID:   fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
			Name: fmt.Sprintf("Goblin %d", i),
			Set:  "m10",
		})
	}
	srv := scryfalltest.NewServer(t, cards...)
	srv.PageSize = 3
	c := newClient(t, srv)

	var names []string
	for cd, err := range c.Search(context.Background(), "goblin", scryfall.SearchOptions{}) {
		require.NoError(t, err)
		names = append(names, cd.Name)
	}

	require.Len(t, names, 7)
	for i, n := range names {
		assert.Equal(t, fmt.Sprintf("Goblin %d", i), n)
	}
	assert.Equal(t, 3, srv.CountRequests("/cards/search"))
}

func TestSearchIsLazy(t *testing.T) {
	var cards []scryfalltest.Card
	for i := 0; i < 6; i++ {
		cards = append(cards, scryfalltest.Card{ID: fmt.Sprintf("00000000-0000-4000-8000-%012d", i), Name: fmt.Sprintf("Elf %d", i)})
	}
	srv := scryfalltest.NewServer(t, cards...)
	srv.PageSize = 2
	c := newClient(t, srv)

	seq := c.Search(context.Background(), "elf", scryfall.SearchOptions{})
	assert.Zero(t, srv.CountRequests("/cards/search"))

	for range seq {
		break
	}
	assert.Equal(t, 1, srv.CountRequests("/cards/search"))

	for _, err := range seq {
		assert.ErrorContains(t, err, "already consumed")
	}
}

func TestSearchNoMatchesAndBadQuery(t *testing.T) {
	srv := scryfalltest.NewServer(t, scryfalltest.Card{ID: lotusID, Name: "Black Lotus"})
	c := newClient(t, srv)

	n := 0
	for _, err := range c.Search(context.Background(), "zzzz", scryfall.SearchOptions{}) {
		require.NoError(t, err)
		n++
	}
	assert.Zero(t, n)

	var gotErr error
	for _, err := range c.Search(context.Background(), "invalid:thing", scryfall.SearchOptions{}) {
		gotErr = err
	}
	var apiErr *scryfall.APIError
	require.ErrorAs(t, gotErr, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "bad_request", apiErr.Code)
}

func TestImage(t *testing.T) {
	srv := scryfalltest.NewServer(t,
		scryfalltest.Card{ID: lotusID, Name: "Black Lotus"},
		scryfalltest.Card{ID: delverID, Name: "Gone", MissingImage: true},
	)
	c := newClient(t, srv)

	body, ctype, err := c.Image(context.Background(), srv.URL+"/img/"+lotusID+".png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))

	_, _, err = c.Image(context.Background(), srv.URL+"/img/"+delverID+".png")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestHeadersAndRateLimit(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent")+"|"+r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"object":"card","id":%q,"name":"Black Lotus","image_uris":{"png":"x"}}`, lotusID)
	}))
	defer srv.Close()

	c, err := scryfall.New(scryfall.Options{Server: srv.URL, UserAgent: "ua/1", RequestsPerSecond: 1000})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Named(context.Background(), scryfall.NamedQuery{Name: "Black Lotus"})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"ua/1|application/json", "ua/1|application/json", "ua/1|application/json"}, agents)
}

func TestNewRejectsBadServer(t *testing.T) {
	_, err := scryfall.New(scryfall.Options{Server: "not a url"})
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	srv := scryfalltest.NewServer(t)
	c, err := scryfall.New(scryfall.Options{Server: srv.URL, RequestsPerSecond: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Named(ctx, scryfall.NamedQuery{Name: "x"})
	assert.Error(t, err)
}
