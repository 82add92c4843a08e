package parser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallangoldblatt/untappd-data/pkg/checkpoint"
	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

func rawItem(id int64, title, description string) []byte {
	link := fmt.Sprintf("https://untappd.com/user/sdbeerfan/checkin/%d", id)
	return []byte(fmt.Sprintf(`<item>
		<title>%s</title>
		<link>%s</link>
		<guid isPermaLink="false">%s</guid>
		<pubDate>Sun, 18 Sep 2016 09:06:09 +0000</pubDate>
		<description><![CDATA[%s]]></description>
	</item>`, title, link, link, description))
}

func storePost(t *testing.T, store storage.ObjectStore, breweryID string, id int64, raw []byte) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), models.PostKey(breweryID, id), raw))
}

func newTestParser(t *testing.T, store storage.ObjectStore, breweries []string) (*Parser, *checkpoint.Store) {
	t.Helper()
	checkpoints := checkpoint.NewStore(store, dataset.KeyLastParsed, nil)
	return New(store, checkpoints, breweries, nil), checkpoints
}

func TestRunParsesStoredPosts(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	storePost(t, store, "1001", 10, rawItem(10,
		"Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company at Hamilton's Tavern",
		"Crisp and hoppy. (4.25/5 Stars)"))
	storePost(t, store, "1001", 20, rawItem(20,
		"Dallan G. is drinking a Pale Ale by Ballast Point Brewing Company",
		"(3.5/5 Stars)"))

	p, checkpoints := newTestParser(t, store, []string{"1001"})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Posts)
	assert.Equal(t, 1, summary.NewVenues)
	assert.Equal(t, 0, summary.Malformed)

	checkins, err := dataset.NewAggregateTable(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, checkins, 2)

	first := checkins[0]
	assert.Equal(t, "10", first.GUID)
	assert.Equal(t, "sdbeerfan", first.Username)
	assert.Equal(t, "1001", first.Brewery)
	assert.Equal(t, "Awesome Ale by Ballast Point Brewing Company", first.Beer)
	assert.Equal(t, "Hamilton's Tavern", first.Venue)
	assert.Equal(t, "Crisp and hoppy.", first.Comment)
	assert.Equal(t, "4.25", first.Rating)
	assert.Equal(t, "Sun, 18 Sep 2016 09:06:09 +0000", first.Date)
	assert.Equal(t, "https://untappd.com/user/sdbeerfan/checkin/10", first.URL)

	second := checkins[1]
	assert.Equal(t, "20", second.GUID)
	assert.False(t, second.HasVenue())
	assert.Equal(t, "", second.Comment)
	assert.Equal(t, "3.5", second.Rating)

	entries, err := dataset.NewRegistryTable(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hamilton's Tavern", entries[0].Venue)
	assert.Equal(t, "https://untappd.com/user/sdbeerfan/checkin/10", entries[0].CheckinURL)

	cp, err := checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), cp["1001"])
}

func TestRunIsIncremental(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	storePost(t, store, "1001", 10, rawItem(10,
		"Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company at Hamilton's Tavern",
		"(4/5 Stars)"))

	p, _ := newTestParser(t, store, []string{"1001"})
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Posts, "second run must not reparse anything")

	storePost(t, store, "1001", 20, rawItem(20,
		"Dallan G. is drinking a Stout by Ballast Point Brewing Company at Hamilton's Tavern",
		"(4/5 Stars)"))

	summary, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Posts)

	checkins, err := dataset.NewAggregateTable(store).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, checkins, 2)
}

func TestRunParsesBreweriesInNumericOrder(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	// Lexicographic key order would put 1000 before 999
	storePost(t, store, "1001", 999, rawItem(999,
		"Dallan G. is drinking an Old Ale by Ballast Point Brewing Company",
		""))
	storePost(t, store, "1001", 1000, rawItem(1000,
		"Dallan G. is drinking a New Ale by Ballast Point Brewing Company",
		""))

	p, _ := newTestParser(t, store, []string{"1001"})
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	checkins, err := dataset.NewAggregateTable(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, checkins, 2)
	assert.Equal(t, "999", checkins[0].GUID)
	assert.Equal(t, "1000", checkins[1].GUID)
}

func TestRunSkipsMalformedPost(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	storePost(t, store, "1001", 10, rawItem(10,
		"Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company",
		""))
	storePost(t, store, "1001", 20, []byte("this is not an item at all <<<"))
	storePost(t, store, "1001", 30, rawItem(30,
		"Dallan G. is drinking a Stout by Ballast Point Brewing Company",
		""))

	p, checkpoints := newTestParser(t, store, []string{"1001"})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Posts)
	assert.Equal(t, 1, summary.Malformed)

	// The malformed post is stepped over so it never blocks later posts
	cp, err := checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(30), cp["1001"])
}

func TestRunSkipsPostWithUnparseableTitle(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	storePost(t, store, "1001", 10, rawItem(10, "Dallan G. earned the Beer Foodie badge", ""))

	p, checkpoints := newTestParser(t, store, []string{"1001"})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Malformed)

	cp, err := checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), cp["1001"])
}

func TestRunDeduplicatesByGUID(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	raw := rawItem(10, "Dallan G. is drinking an Ale by Ballast Point Brewing Company", "")
	storePost(t, store, "1001", 10, raw)
	storePost(t, store, "4406", 10, raw)

	p, _ := newTestParser(t, store, []string{"1001", "4406"})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Posts)
	assert.Equal(t, 1, summary.Duplicates)

	checkins, err := dataset.NewAggregateTable(store).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, checkins, 1)
}

func TestRunRegistryKeepsFirstCheckinURL(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	storePost(t, store, "1001", 10, rawItem(10,
		"Dallan G. is drinking an Ale by Ballast Point Brewing Company at Hamilton's Tavern", ""))
	storePost(t, store, "1001", 20, rawItem(20,
		"Sam R. is drinking a Stout by Ballast Point Brewing Company at Hamilton's Tavern", ""))

	p, _ := newTestParser(t, store, []string{"1001"})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewVenues)

	entries, err := dataset.NewRegistryTable(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://untappd.com/user/sdbeerfan/checkin/10", entries[0].CheckinURL)
}

func TestStoredPostIDsIgnoresMalformedKeys(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "1001/1001-10", []byte("x")))
	require.NoError(t, store.Put(context.Background(), "1001/1001-notanid", []byte("x")))

	p, _ := newTestParser(t, store, []string{"1001"})
	ids, err := p.storedPostIDs(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)
}
