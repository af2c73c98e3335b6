package storybrowser_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"zmrun/storybrowser"
)

const sampleIndexHTML = `<html><body><dl>
<dt><a href="zork1-r119.z3">Zork I ◆</a> <span>28-Dec-1999</span></dt>
<dd>IFDB: <a href="https://ifdb.org/viewgame?id=4gs5gnmga6slqg2a">entry</a></dd>
<dd>IFWiki: <a href="https://ifwiki.org/Zork_I">entry</a></dd>
<dd><p>The original mainframe adventure, now with a proper parser.</p></dd>
<dt><a href="notastory.txt">A readme</a> <span>01-Jan-2000</span></dt>
</dl></body></html>`

func TestFetchIndexParsesZcodeEntriesOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleIndexHTML)) //nolint:errcheck
	}))
	defer server.Close()

	original := storybrowser.IndexURL
	storybrowser.IndexURL = server.URL
	defer func() { storybrowser.IndexURL = original }()

	stories, err := storybrowser.FetchIndex(server.Client())
	if err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}
	if len(stories) != 1 {
		t.Fatalf("got %d stories, want 1 (the .txt entry should be filtered out)", len(stories))
	}

	s := stories[0]
	if s.Name != "Zork I " {
		t.Fatalf("Name = %q", s.Name)
	}
	if s.Description == "" {
		t.Fatal("Description should be populated from the following <p>")
	}
	if s.IFDBEntry == "" {
		t.Fatal("IFDBEntry should be populated")
	}
	if s.IFWiki == "" {
		t.Fatal("IFWiki should be populated")
	}
	if s.ReleaseDate.Year() != 1999 {
		t.Fatalf("ReleaseDate = %v, want year 1999", s.ReleaseDate)
	}
}

func TestDownloadStoryCachedServesSecondCallFromDisk(t *testing.T) {
	dir := t.TempDir()
	cache := storybrowser.Cache{Dir: dir}
	data := []byte{1, 2, 3}

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(data) //nolint:errcheck
	}))
	defer server.Close()

	story := storybrowser.Story{Name: "Zork I", URL: server.URL}

	got, err := storybrowser.DownloadStoryCached(server.Client(), cache, story)
	if err != nil {
		t.Fatalf("first DownloadStoryCached: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %v, want %v", got, data)
	}

	got2, err := storybrowser.DownloadStoryCached(server.Client(), cache, story)
	if err != nil {
		t.Fatalf("second DownloadStoryCached: %v", err)
	}
	if string(got2) != string(data) {
		t.Fatalf("got %v, want %v", got2, data)
	}
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1 (second call should be served from cache)", hits)
	}
}

func TestFetchIndexCachedAvoidsSecondFetch(t *testing.T) {
	dir := t.TempDir()
	cache := storybrowser.Cache{Dir: dir}

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleIndexHTML)) //nolint:errcheck
	}))
	defer server.Close()

	original := storybrowser.IndexURL
	storybrowser.IndexURL = server.URL
	defer func() { storybrowser.IndexURL = original }()

	stories1, err := storybrowser.FetchIndexCached(server.Client(), cache)
	if err != nil {
		t.Fatalf("first FetchIndexCached: %v", err)
	}

	stories2, err := storybrowser.FetchIndexCached(server.Client(), cache)
	if err != nil {
		t.Fatalf("second FetchIndexCached: %v", err)
	}

	if len(stories1) != len(stories2) {
		t.Fatalf("story count mismatch: %d vs %d", len(stories1), len(stories2))
	}
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1 (second call should be served from cache)", hits)
	}
}
