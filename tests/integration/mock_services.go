package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// xmlEscape covers the characters brewery and beer names actually contain
var xmlEscape = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// feedPost is one check-in entry served by the fake brewery feed. The
// rendered title follows the live feed shape,
//
//	<display name> is drinking a <beer> by <brewery> at <venue>
//
// with the venue part dropped when Venue is empty. RawTitle, when set,
// replaces the rendered title entirely so tests can serve malformed posts.
type feedPost struct {
	ID        int64
	User      string
	Display   string
	Beer      string
	Brewery   string
	Venue     string
	Comment   string
	Rating    string
	Published string
	RawTitle  string
}

// feedServer serves brewery RSS feeds at /<brewery id>, newest post first,
// the way the live feed orders them
type feedServer struct {
	srv         *httptest.Server
	checkinBase string

	mu    sync.Mutex
	posts map[string][]feedPost

	fetches int32
}

// newFeedServer creates a feed server whose check-in links point at
// checkinBase, normally the fake page server
func newFeedServer(checkinBase string) *feedServer {
	f := &feedServer{
		checkinBase: strings.TrimSuffix(checkinBase, "/"),
		posts:       make(map[string][]feedPost),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *feedServer) URL() string { return f.srv.URL }

func (f *feedServer) Close() { f.srv.Close() }

// add registers posts for a brewery; they may arrive in any order
func (f *feedServer) add(breweryID string, posts ...feedPost) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[breweryID] = append(f.posts[breweryID], posts...)
}

// fetchCount returns how many feed documents were served
func (f *feedServer) fetchCount() int {
	return int(atomic.LoadInt32(&f.fetches))
}

func (f *feedServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.fetches, 1)

	breweryID := strings.TrimPrefix(r.URL.Path, "/")

	f.mu.Lock()
	posts, ok := f.posts[breweryID]
	rendered := make([]feedPost, len(posts))
	copy(rendered, posts)
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].ID > rendered[j].ID })

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8"?>`+"\n")
	fmt.Fprint(w, `<rss version="2.0"><channel>`+"\n")
	fmt.Fprintf(w, "<title>Brewery %s Checkins</title>\n", breweryID)
	fmt.Fprintf(w, "<link>https://untappd.com/brewery/%s</link>\n", breweryID)
	fmt.Fprint(w, "<description>Recent checkins</description>\n")
	for _, p := range rendered {
		f.writeItem(w, p)
	}
	fmt.Fprint(w, `</channel></rss>`)
}

func (f *feedServer) writeItem(w http.ResponseWriter, p feedPost) {
	link := f.checkinLink(p)

	title := p.RawTitle
	if title == "" {
		title = fmt.Sprintf("%s is drinking a %s by %s", p.Display, p.Beer, p.Brewery)
		if p.Venue != "" {
			title += " at " + p.Venue
		}
	}

	description := p.Comment
	if p.Rating != "" {
		if description != "" {
			description += " "
		}
		description += fmt.Sprintf("(%s/5 Stars)", p.Rating)
	}

	fmt.Fprint(w, "<item>\n")
	fmt.Fprintf(w, "<title>%s</title>\n", xmlEscape.Replace(title))
	fmt.Fprintf(w, "<link>%s</link>\n", link)
	fmt.Fprintf(w, "<guid isPermaLink=\"false\">%s</guid>\n", link)
	fmt.Fprintf(w, "<pubDate>%s</pubDate>\n", p.Published)
	fmt.Fprintf(w, "<description><![CDATA[%s]]></description>\n", description)
	fmt.Fprint(w, "</item>\n")
}

// checkinLink builds the check-in page URL a post links to. The numeric
// tail doubles as the post id in the feed GUID.
func (f *feedServer) checkinLink(p feedPost) string {
	return fmt.Sprintf("%s/user/%s/checkin/%d", f.checkinBase, p.User, p.ID)
}

// pageVenue is one venue page served by the fake page server. Empty fields
// render as absent page elements, so a fixture with no Address and no
// coordinates produces a page that scrapes to an unusable result.
type pageVenue struct {
	Slug          string
	Name          string
	Category      string
	FoursquareURL string
	Latitude      string
	Longitude     string
	Country       string
	Address       string
}

// pageServer serves check-in pages under /user/ and venue pages under /v/,
// shaped like the public site closely enough for the scraper's selectors
type pageServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	checkins map[string]string
	venues   map[string]pageVenue
	failWith int
}

func newPageServer() *pageServer {
	p := &pageServer{
		checkins: make(map[string]string),
		venues:   make(map[string]pageVenue),
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

func (p *pageServer) URL() string { return p.srv.URL }

func (p *pageServer) Close() { p.srv.Close() }

// addCheckin maps a check-in path to the venue slug its page links to. An
// empty slug renders a page with no location line, the shape of a check-in
// whose venue was deleted.
func (p *pageServer) addCheckin(path, slug string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkins[path] = slug
}

func (p *pageServer) addVenue(v pageVenue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.venues[v.Slug] = v
}

// setFailure makes every page request answer with the given status; zero
// restores normal serving
func (p *pageServer) setFailure(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = status
}

func (p *pageServer) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	failWith := p.failWith
	slug, hasCheckin := p.checkins[r.URL.Path]
	venue, hasVenue := p.venues[strings.TrimPrefix(r.URL.Path, "/v/")]
	p.mu.Unlock()

	if failWith != 0 {
		w.WriteHeader(failWith)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/user/"):
		if !hasCheckin {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeCheckinPage(w, slug)
	case strings.HasPrefix(r.URL.Path, "/v/"):
		if !hasVenue {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p.writeVenuePage(w, venue)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *pageServer) writeCheckinPage(w http.ResponseWriter, slug string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html><head><title>Checkin</title></head><body>\n")
	fmt.Fprint(w, `<div class="checkin"><p class="text">Great beer!</p>`+"\n")
	if slug != "" {
		name := slug
		p.mu.Lock()
		if v, ok := p.venues[slug]; ok {
			name = v.Name
		}
		p.mu.Unlock()
		fmt.Fprintf(w, `<p class="location"><a href="/v/%s">%s</a></p>`+"\n", slug, xmlEscape.Replace(name))
	}
	fmt.Fprint(w, "</div>\n</body></html>")
}

func (p *pageServer) writeVenuePage(w http.ResponseWriter, v pageVenue) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html>\n<html><head>\n")
	if v.Latitude != "" {
		fmt.Fprintf(w, `<meta property="place:location:latitude" content="%s"/>`+"\n", v.Latitude)
	}
	if v.Longitude != "" {
		fmt.Fprintf(w, `<meta property="place:location:longitude" content="%s"/>`+"\n", v.Longitude)
	}
	if v.Country != "" {
		fmt.Fprintf(w, `<meta property="og:country-name" content="%s"/>`+"\n", v.Country)
	}
	fmt.Fprint(w, "</head><body>\n")
	fmt.Fprintf(w, `<div class="venue-name"><h1>%s</h1><h2>%s</h2></div>`+"\n",
		xmlEscape.Replace(v.Name), xmlEscape.Replace(v.Category))
	if v.FoursquareURL != "" {
		fmt.Fprintf(w, `<div class="venue-social"><a class="fs track-click" href="%s?ref=untappd" target="_blank">Foursquare</a></div>`+"\n", v.FoursquareURL)
	}
	if v.Address != "" {
		fmt.Fprintf(w, `<p class="address">%s <a href="https://maps.google.com/?q=%s,%s">( Map )</a></p>`+"\n",
			xmlEscape.Replace(v.Address), v.Latitude, v.Longitude)
	}
	fmt.Fprint(w, "</body></html>")
}

// apiVenue is one venue in the fake Foursquare index. Global venues only
// show up in intent=global searches, which is how the fake distinguishes
// the elevated quota from the everyday one.
type apiVenue struct {
	ID       string
	Name     string
	Address  []string
	Lat      float64
	Lng      float64
	HasGeo   bool
	Country  string
	Category string
	Global   bool
}

// apiServer fakes the Foursquare v2 venues endpoints: /venues/search for
// both search intents and /venues/<id> for details
type apiServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	venues   []apiVenue
	failWith int

	searchCalls  int32
	globalCalls  int32
	detailCalls  int32
	lastClientID string
}

func newAPIServer() *apiServer {
	a := &apiServer{}
	a.srv = httptest.NewServer(http.HandlerFunc(a.handle))
	return a
}

func (a *apiServer) URL() string { return a.srv.URL }

func (a *apiServer) Close() { a.srv.Close() }

func (a *apiServer) add(venues ...apiVenue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.venues = append(a.venues, venues...)
}

// setFailure makes every API request answer with the given status; zero
// restores normal serving
func (a *apiServer) setFailure(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failWith = status
}

func (a *apiServer) searchCount() int { return int(atomic.LoadInt32(&a.searchCalls)) }

func (a *apiServer) globalCount() int { return int(atomic.LoadInt32(&a.globalCalls)) }

func (a *apiServer) detailCount() int { return int(atomic.LoadInt32(&a.detailCalls)) }

// clientID returns the client_id parameter of the most recent request
func (a *apiServer) clientID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastClientID
}

func (a *apiServer) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	failWith := a.failWith
	a.lastClientID = r.URL.Query().Get("client_id")
	index := make([]apiVenue, len(a.venues))
	copy(index, a.venues)
	a.mu.Unlock()

	if failWith != 0 {
		w.WriteHeader(failWith)
		return
	}

	switch {
	case r.URL.Path == "/venues/search":
		a.handleSearch(w, r, index)
	case strings.HasPrefix(r.URL.Path, "/venues/"):
		a.handleDetails(w, r, index)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *apiServer) handleSearch(w http.ResponseWriter, r *http.Request, index []apiVenue) {
	global := r.URL.Query().Get("intent") == "global"
	if global {
		atomic.AddInt32(&a.globalCalls, 1)
	} else {
		atomic.AddInt32(&a.searchCalls, 1)
	}

	// The live endpoint matches names fuzzily, so return every venue the
	// intent can see and let the caller pick
	results := make([]map[string]interface{}, 0, len(index))
	for _, v := range index {
		if v.Global && !global {
			continue
		}
		results = append(results, v.payload())
	}

	writeJSON(w, map[string]interface{}{
		"response": map[string]interface{}{"venues": results},
	})
}

func (a *apiServer) handleDetails(w http.ResponseWriter, r *http.Request, index []apiVenue) {
	atomic.AddInt32(&a.detailCalls, 1)

	id := strings.TrimPrefix(r.URL.Path, "/venues/")
	for _, v := range index {
		if v.ID == id {
			writeJSON(w, map[string]interface{}{
				"response": map[string]interface{}{"venue": v.payload()},
			})
			return
		}
	}
	// Unknown venue ids answer 400 on the live endpoint
	w.WriteHeader(http.StatusBadRequest)
}

func (v apiVenue) payload() map[string]interface{} {
	location := map[string]interface{}{
		"formattedAddress": v.Address,
		"country":          v.Country,
	}
	if v.HasGeo {
		location["lat"] = v.Lat
		location["lng"] = v.Lng
	}

	categories := []map[string]string{}
	if v.Category != "" {
		categories = append(categories, map[string]string{"name": v.Category})
	}

	return map[string]interface{}{
		"id":         v.ID,
		"name":       v.Name,
		"location":   location,
		"categories": categories,
	}
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(body)
}
