package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/proxymancer/internal/card"
	"github.com/arcanaland/proxymancer/internal/deck"
	"github.com/arcanaland/proxymancer/internal/errs"
	"github.com/arcanaland/proxymancer/internal/logger"
	"github.com/arcanaland/proxymancer/internal/resolver"
	"github.com/arcanaland/proxymancer/internal/scryfall"
	"github.com/arcanaland/proxymancer/internal/scryfall/scryfalltest"
)

const (
	islandID = "4f8b1c2a-7d6e-4c3b-8a9f-1e2d3c4b5a60"
	delverID = "11bf83bb-c95b-4b4f-9a56-ce7a1816307a"
	brokenID = "7e6d5c4b-3a29-4180-8f7e-6d5c4b3a2918"
	goneID   = "8f7e6d5c-4b3a-4291-8f7e-6d5c4b3a2919"
)

var testCards = []scryfalltest.Card{
	{ID: islandID, Name: "Island", Set: "znr"},
	{ID: delverID, Name: "Delver of Secrets // Insectile Aberration", Set: "isd", BackName: "Insectile Aberration"},
	{ID: brokenID, Name: "Broken Image", Set: "tst", BrokenImage: true},
	{ID: goneID, Name: "Missing Image", Set: "tst", MissingImage: true},
}

type env struct {
	srv      *scryfalltest.Server
	client   *scryfall.Client
	resolver *resolver.Resolver
	dir      string
}

func newEnv(t *testing.T) env {
	t.Helper()
	srv := scryfalltest.NewServer(t, testCards...)
	client, err := scryfall.New(scryfall.Options{Server: srv.URL})
	require.NoError(t, err)
	return env{
		srv:      srv,
		client:   client,
		resolver: resolver.New(client, nil, logger.Discard()),
		dir:      t.TempDir(),
	}
}

func (e env) resolve(t *testing.T, name string) card.Card {
	t.Helper()
	c, err := e.resolver.Resolve(context.Background(), deck.Line{Name: name, Quantity: 1})
	require.NoError(t, err)
	return c
}

func TestPlanNames(t *testing.T) {
	f := New(nil, Options{OutputDir: "out"}, logger.Discard())
	c := card.Card{
		Name:  "Delver of Secrets // Insectile Aberration",
		Set:   "isd",
		Front: card.Face{ImageURL: "https://img.test/front/a/b/id.jpg?1562"},
		Back:  &card.Face{ImageURL: "https://img.test/back/a/b/id.jpg?1562"},
	}

	var paths []string
	for _, tg := range f.Plan(c, 2, 3) {
		paths = append(paths, tg.Path)
	}
	base := filepath.Join("out", "Delver of Secrets __SLASH____SLASH__ Insectile Aberration.ISD")
	assert.Equal(t, []string{
		base + ".3.jpg", base + ".3.back.jpg",
		base + ".4.jpg", base + ".4.back.jpg",
	}, paths)
}

func TestFetchSingleFacedQuantityTwo(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir}, logger.Discard())

	paths, err := f.Fetch(context.Background(), e.resolve(t, "Island"), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(e.dir, "Island.ZNR.1.png"),
		filepath.Join(e.dir, "Island.ZNR.2.png"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	assert.Equal(t, 2, e.srv.CountRequests("/img/"))
}

func TestFetchDoubleFaced(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir}, logger.Discard())

	paths, err := f.Fetch(context.Background(), e.resolve(t, "Delver of Secrets"), 1, 1)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], ".1.png")
	assert.Contains(t, paths[1], ".1.back.png")
}

func TestFetchDownloadErrors(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir}, logger.Discard())

	paths, err := f.Fetch(context.Background(), e.resolve(t, "Broken Image"), 1, 1)
	assert.Empty(t, paths)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindDownload))
	assert.Contains(t, err.Error(), "not a decodable image")
	assert.NoFileExists(t, filepath.Join(e.dir, "Broken Image.TST.1.png"))

	_, err = f.Fetch(context.Background(), e.resolve(t, "Missing Image"), 1, 1)
	assert.True(t, errs.IsKind(err, errs.KindDownload))

	_, err = f.Fetch(context.Background(), card.Card{Name: "Blank", Front: card.Face{Name: "Blank"}}, 1, 1)
	assert.True(t, errs.IsKind(err, errs.KindDownload))
}

func TestFetchSkipsExistingUnlessForced(t *testing.T) {
	e := newEnv(t)
	island := e.resolve(t, "Island")
	existing := filepath.Join(e.dir, "Island.ZNR.1.png")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	f := New(e.client, Options{OutputDir: e.dir}, logger.Discard())
	paths, err := f.Fetch(context.Background(), island, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{existing}, paths)
	assert.Zero(t, e.srv.CountRequests("/img/"))

	forced := New(e.client, Options{OutputDir: e.dir, Force: true}, logger.Discard())
	_, err = forced.Fetch(context.Background(), island, 1, 1)
	require.NoError(t, err)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestBatchContinuesPastFailures(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir, Jobs: 3}, logger.Discard())

	lines := []deck.Line{
		{Number: 1, Name: "Island", Quantity: 2},
		{Number: 2, Name: "Nonexistent Card", Quantity: 1},
		{Number: 3, Name: "Broken Image", Quantity: 1},
		{Number: 4, Name: "Delver of Secrets", Quantity: 1},
		{Number: 5, Name: "Island", Quantity: 1},
	}
	report, err := f.Batch(context.Background(), lines, e.resolver)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Lines)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 2, report.Failures[0].Line.Number)
	assert.True(t, errs.IsKind(report.Failures[0].Err, errs.KindNotFound))
	assert.Equal(t, 3, report.Failures[1].Line.Number)
	assert.True(t, errs.IsKind(report.Failures[1].Err, errs.KindDownload))

	var names []string
	for _, p := range report.Written {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"Delver of Secrets __SLASH____SLASH__ Insectile Aberration.ISD.1.back.png",
		"Delver of Secrets __SLASH____SLASH__ Insectile Aberration.ISD.1.png",
		"Island.ZNR.1.png",
		"Island.ZNR.2.png",
		"Island.ZNR.3.png",
	}, names)
}

func TestBatchDryRunWritesNothing(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir, DryRun: true}, logger.Discard())

	report, err := f.Batch(context.Background(), []deck.Line{{Name: "Island", Quantity: 2}}, e.resolver)
	require.NoError(t, err)
	assert.Len(t, report.Planned, 2)
	assert.Empty(t, report.Written)
	assert.Zero(t, e.srv.CountRequests("/img/"))

	entries, err := os.ReadDir(e.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBatchCancelled(t *testing.T) {
	e := newEnv(t)
	f := New(e.client, Options{OutputDir: e.dir}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Batch(ctx, []deck.Line{{Name: "Island", Quantity: 1}}, e.resolver)
	assert.ErrorIs(t, err, context.Canceled)
}
