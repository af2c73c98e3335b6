// Package storybrowser scrapes the IF-Archive zcode index and downloads
// story files, with an on-disk cache. Grounded on the teacher's
// selectstoryui/ui.go and cmd/scraper/main.go, which do the same scrape
// inline inside a bubbletea model and a one-shot CLI tool respectively;
// this package pulls that logic out so cmd/zmrun's play driver can wrap it
// in tea.Cmd without duplicating the goquery/HTTP code, the way the
// teacher's two call sites currently do.
package storybrowser

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// IndexURL is the IF-Archive zcode index page FetchIndex scrapes. Exported
// as a var, not a const, so tests can point it at an httptest server
// instead of the network.
var IndexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

var zcodeExtension = regexp.MustCompile(`.*\.z[12345678]$`)
var releaseDatePattern = regexp.MustCompile(`\d{2}-\w{3}-\d{4}`)

// Story describes one entry in the IF-Archive zcode index.
type Story struct {
	Name        string
	URL         string
	ReleaseDate time.Time
	Description string
	IFDBEntry   string
	IFWiki      string
}

// HTTPClient is the subset of *http.Client this package needs, so callers
// can inject a timeout or a test double.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// FetchIndex downloads and parses the IF-Archive zcode index into a list of
// stories. Grounded on selectstoryui/ui.go's downloadStoryList/doc.Find
// walk.
func FetchIndex(client HTTPClient) ([]Story, error) {
	res, err := client.Get(IndexURL)
	if err != nil {
		return nil, fmt.Errorf("storybrowser: fetching index: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storybrowser: index returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("storybrowser: parsing index: %w", err)
	}

	var stories []Story
	doc.Find("dl dt").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists || !zcodeExtension.MatchString(href) {
			return
		}

		title := strings.Replace(s.Find("a").Text(), "◆", "", 1)
		rawTimeString := s.Find("span").Text()
		releaseDate, _ := time.Parse("02-Jan-2006", releaseDatePattern.FindString(rawTimeString))

		var description, ifdbEntry, ifwiki string
		s.NextUntil("dt").Each(func(_ int, s2 *goquery.Selection) {
			switch {
			case strings.Contains(s2.Text(), "IFDB"):
				ifdbEntry, _ = s2.Find("a").Attr("href")
			case strings.Contains(s2.Text(), "IFWiki"):
				ifwiki, _ = s2.Find("a").Attr("href")
			case len(s2.ChildrenFiltered("p").Nodes) == 1:
				description = s2.Find("p").Text()
			}
		})

		stories = append(stories, Story{
			Name:        title,
			URL:         "https://www.ifarchive.org" + href,
			ReleaseDate: releaseDate,
			Description: description,
			IFDBEntry:   ifdbEntry,
			IFWiki:      ifwiki,
		})
	})

	return stories, nil
}

// DownloadStory fetches a story's raw bytes.
func DownloadStory(client HTTPClient, s Story) ([]byte, error) {
	res, err := client.Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("storybrowser: downloading %s: %w", s.Name, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storybrowser: %s returned status %d", s.Name, res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("storybrowser: reading %s: %w", s.Name, err)
	}
	return data, nil
}

// DefaultClient is a *http.Client with the same 30s timeout the teacher's
// cmd/scraper uses.
func DefaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
