package storybrowser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const cacheDuration = 7 * 24 * time.Hour

// Cache is a content-addressed on-disk cache keyed by SHA256(key), grounded
// on selectstoryui/ui.go's cacheFilePath/isCacheValid/cachedStoryList - the
// same pattern, pulled out so both the index fetch and individual story
// downloads can share it without a bubbletea model in between.
type Cache struct {
	Dir string
}

func (c Cache) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.Dir, hex.EncodeToString(hash[:]))
}

func (c Cache) valid(key string) bool {
	if c.Dir == "" {
		return false
	}
	info, err := os.Stat(c.path(key))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < cacheDuration
}

func (c Cache) readBytes(key string) ([]byte, bool) {
	if !c.valid(key) {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key)) // #nosec G304 -- path is a sha256 hash of the key, not raw user input
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c Cache) writeBytes(key string, data []byte) {
	if c.Dir == "" {
		return
	}
	if err := os.MkdirAll(c.Dir, 0750); err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), data, 0644) //nolint:gosec,errcheck
}

type cachedStoryList struct {
	Stories []cachedStory `json:"stories"`
}

type cachedStory struct {
	Name        string    `json:"name"`
	ReleaseDate time.Time `json:"release_date"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	IFDBEntry   string    `json:"ifdb_entry"`
	IFWiki      string    `json:"ifwiki"`
}

// FetchIndexCached wraps FetchIndex with the on-disk cache, keyed on the
// fixed string "storylist" exactly as the teacher's downloadStoryList does.
func FetchIndexCached(client HTTPClient, cache Cache) ([]Story, error) {
	const cacheKey = "storylist"

	if data, ok := cache.readBytes(cacheKey); ok {
		var cached cachedStoryList
		if json.Unmarshal(data, &cached) == nil {
			stories := make([]Story, len(cached.Stories))
			for i, cs := range cached.Stories {
				stories[i] = Story{
					Name:        cs.Name,
					ReleaseDate: cs.ReleaseDate,
					URL:         cs.URL,
					Description: cs.Description,
					IFDBEntry:   cs.IFDBEntry,
					IFWiki:      cs.IFWiki,
				}
			}
			return stories, nil
		}
	}

	stories, err := FetchIndex(client)
	if err != nil {
		return nil, err
	}

	cached := cachedStoryList{Stories: make([]cachedStory, len(stories))}
	for i, s := range stories {
		cached.Stories[i] = cachedStory{
			Name:        s.Name,
			ReleaseDate: s.ReleaseDate,
			URL:         s.URL,
			Description: s.Description,
			IFDBEntry:   s.IFDBEntry,
			IFWiki:      s.IFWiki,
		}
	}
	if data, err := json.Marshal(cached); err == nil {
		cache.writeBytes(cacheKey, data)
	}

	return stories, nil
}

// DownloadStoryCached wraps DownloadStory with the on-disk cache, keyed on
// the story's URL.
func DownloadStoryCached(client HTTPClient, cache Cache, s Story) ([]byte, error) {
	if data, ok := cache.readBytes(s.URL); ok {
		return data, nil
	}

	data, err := DownloadStory(client, s)
	if err != nil {
		return nil, err
	}

	cache.writeBytes(s.URL, data)
	return data, nil
}
