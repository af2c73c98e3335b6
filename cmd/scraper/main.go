// Command scraper bulk-downloads every zcode story from the IF-Archive
// index into a local directory, for use as cmd/gametest's --stories
// input. Grounded on the teacher's cmd/scraper/main.go; the scraping and
// HTTP logic now lives in storybrowser, shared with cmd/zmrun's picker,
// so this command is reduced to the download loop and manifest writing.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zmrun/storybrowser"
)

const outputDir = "stories"

func main() {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	client := storybrowser.DefaultClient()
	stories, err := storybrowser.FetchIndex(client)
	if err != nil {
		fmt.Printf("Failed to fetch index: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d games to download\n", len(stories))

	downloaded, skipped, failed := 0, 0, 0

	for i, story := range stories {
		destPath := filepath.Join(outputDir, filepath.Base(story.URL))

		if _, err := os.Stat(destPath); err == nil {
			fmt.Printf("[%d/%d] Skipping %s (already exists)\n", i+1, len(stories), story.Name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] Downloading %s... ", i+1, len(stories), story.Name)

		data, err := storybrowser.DownloadStory(client, story)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		if err := os.WriteFile(destPath, data, 0644); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		fmt.Printf("OK (%d bytes)\n", len(data))
		downloaded++

		time.Sleep(100 * time.Millisecond)
	}

	fmt.Printf("\nDone! Downloaded: %d, Skipped: %d, Failed: %d\n", downloaded, skipped, failed)

	manifestPath := filepath.Join(outputDir, "manifest.txt")
	var manifest strings.Builder
	for _, story := range stories {
		manifest.WriteString(filepath.Base(story.URL) + "\n")
	}
	os.WriteFile(manifestPath, []byte(manifest.String()), 0644) // nolint:errcheck
	fmt.Printf("Wrote manifest to %s\n", manifestPath)
}
