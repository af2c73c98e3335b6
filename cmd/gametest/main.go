// Command gametest is a batch smoke test: load every story file in a
// directory, run it to its first suspension point (or a timeout), and
// report which loaded cleanly. Grounded on the teacher's cmd/gametest/
// main.go, adapted from the channel-based LoadRom/Run/select loop to the
// synchronous Machine - a story now "reaches its first screen" when Run
// returns StatusAwaitingInput instead of when a StateChangeRequest message
// arrives on an output channel.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"zmrun/storage"
	"zmrun/zmachine"
)

// TestResult captures the outcome of running a single game.
type TestResult struct {
	Filename     string   `json:"filename"`
	Version      uint8    `json:"version"`
	Success      bool     `json:"success"`
	PanicMessage string   `json:"panic_message,omitempty"`
	StackTrace   string   `json:"stack_trace,omitempty"`
	FirstScreen  []string `json:"first_screen,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func main() {
	storiesDir := flag.String("stories", "stories", "directory containing z-machine story files")
	outputDir := flag.String("output", "testdata", "directory to write results to")
	singleGame := flag.String("game", "", "test a single game file instead of all games")
	flag.Parse()

	if *singleGame != "" {
		runSingleGame(*singleGame)
		return
	}

	runAllGames(*storiesDir, *outputDir)
}

func runAllGames(storiesDir, outputDir string) {
	if _, err := os.Stat(storiesDir); os.IsNotExist(err) {
		fmt.Printf("Stories directory not found: %s\n", storiesDir)
		fmt.Println("Run cmd/scraper first to download games.")
		os.Exit(1)
	}

	entries, err := os.ReadDir(storiesDir)
	if err != nil {
		fmt.Printf("Failed to read stories directory: %v\n", err)
		os.Exit(1)
	}

	var games []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".z1") || strings.HasSuffix(name, ".z2") ||
			strings.HasSuffix(name, ".z3") || strings.HasSuffix(name, ".z4") ||
			strings.HasSuffix(name, ".z5") || strings.HasSuffix(name, ".z6") ||
			strings.HasSuffix(name, ".z7") || strings.HasSuffix(name, ".z8") {
			games = append(games, filepath.Join(storiesDir, name))
		}
	}

	if len(games) == 0 {
		fmt.Printf("No game files found in %s\n", storiesDir)
		os.Exit(1)
	}

	fmt.Printf("Found %d games to test\n", len(games))

	var results []TestResult

	for i, gamePath := range games {
		filename := filepath.Base(gamePath)
		result := runGameTest(gamePath)
		results = append(results, result)

		status := "OK"
		if !result.Success {
			status = "FAIL"
		}
		fmt.Printf("[%d/%d] %s %s\n", i+1, len(games), status, filename)
		if !result.Success && result.ErrorMessage != "" {
			fmt.Printf("        Error: %s\n", result.ErrorMessage)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	resultsPath := filepath.Join(outputDir, "test_results.json")
	resultsJSON, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(resultsPath, resultsJSON, 0644); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
	} else {
		fmt.Printf("\nResults written to %s\n", resultsPath)
	}

	passed := 0
	failed := 0
	for _, r := range results {
		if r.Success {
			passed++
		} else {
			failed++
		}
	}
	fmt.Printf("\n=== SUMMARY ===\nPassed: %d\nFailed: %d\nTotal: %d\n", passed, failed, len(results))

	screenshotsPath := filepath.Join(outputDir, "screenshots.txt")
	var screenshots strings.Builder
	for _, r := range results {
		fmt.Fprintf(&screenshots, "=== %s (v%d) ===\n", r.Filename, r.Version)
		if r.Success {
			for _, line := range r.FirstScreen {
				screenshots.WriteString(line + "\n")
			}
		} else {
			fmt.Fprintf(&screenshots, "ERROR: %s\n", r.ErrorMessage)
			if r.PanicMessage != "" {
				fmt.Fprintf(&screenshots, "PANIC: %s\n", r.PanicMessage)
			}
		}
		screenshots.WriteString("\n")
	}
	os.WriteFile(screenshotsPath, []byte(screenshots.String()), 0644)
}

func runSingleGame(gamePath string) {
	if _, err := os.Stat(gamePath); os.IsNotExist(err) {
		fmt.Printf("Game file not found: %s\n", gamePath)
		os.Exit(1)
	}

	result := runGameTest(gamePath)

	fmt.Printf("Game: %s\n", result.Filename)
	fmt.Printf("Version: %d\n", result.Version)
	fmt.Printf("Success: %v\n", result.Success)

	if result.PanicMessage != "" {
		fmt.Printf("Panic: %s\n", result.PanicMessage)
		fmt.Printf("Stack: %s\n", result.StackTrace)
	}
	if result.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", result.ErrorMessage)
	}

	fmt.Printf("First Screen:\n%s\n", strings.Join(result.FirstScreen, "\n"))
}

func runGameTest(gamePath string) (result TestResult) {
	filename := filepath.Base(gamePath)
	result.Filename = filename

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.PanicMessage = fmt.Sprintf("%v", r)
			result.StackTrace = string(debug.Stack())
		}
	}()

	storyBytes, err := os.ReadFile(gamePath)
	if err != nil {
		result.Success = false
		result.ErrorMessage = fmt.Sprintf("Failed to read file: %v", err)
		return
	}
	if len(storyBytes) < 64 {
		result.Success = false
		result.ErrorMessage = "File too small to be a valid Z-machine file"
		return
	}
	result.Version = storyBytes[0]

	screen := &collectingScreen{}
	machine, err := zmachine.NewMachine(storyBytes, screen, noopInput{}, &storage.InMemoryProvider{})
	if err != nil {
		result.Success = false
		result.ErrorMessage = fmt.Sprintf("Failed to load: %v", err)
		return
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result.PanicMessage = fmt.Sprintf("Panic in Run: %v", r)
				result.StackTrace = string(debug.Stack())
				done <- fmt.Errorf("panic: %v", r)
				return
			}
		}()
		done <- machine.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			result.Success = false
			result.ErrorMessage = err.Error()
			return
		}
	case <-time.After(5 * time.Second):
		result.Success = false
		result.ErrorMessage = "Timeout waiting for first screen"
		return
	}

	if result.PanicMessage != "" {
		result.Success = false
		return
	}
	if status := machine.Status(); status != zmachine.StatusAwaitingInput {
		result.Success = false
		result.ErrorMessage = fmt.Sprintf("Run stopped with status %v before waiting for input", status)
		return
	}

	result.Success = true
	result.FirstScreen = strings.Split(screen.text.String(), "\n")
	return
}

// collectingScreen is a headless zmachine.Screen that only accumulates
// printed text, enough to capture a game's first screen for comparison.
type collectingScreen struct {
	text strings.Builder
}

func (s *collectingScreen) Print(text string)                                 { s.text.WriteString(text) }
func (s *collectingScreen) SplitWindow(lines int)                             {}
func (s *collectingScreen) SetWindow(window int)                              {}
func (s *collectingScreen) EraseWindow(window int)                            {}
func (s *collectingScreen) EraseLine()                                        {}
func (s *collectingScreen) SetCursor(line, col, window int)                   {}
func (s *collectingScreen) GetCursor(window int) (line, col int)              { return 0, 0 }
func (s *collectingScreen) ShowCursor(show bool)                              {}
func (s *collectingScreen) SetTextStyle(window int, style zmachine.TextStyle) {}
func (s *collectingScreen) SetTextColors(window int, fg, bg zmachine.Color)   {}
func (s *collectingScreen) BufferMode(enabled bool)                           {}
func (s *collectingScreen) UpdateStatusBar(info zmachine.StatusBarInfo)       {}
func (s *collectingScreen) Capabilities() zmachine.Capabilities               { return zmachine.Capabilities{} }

type noopInput struct{}

func (noopInput) TimerTick() (abort bool) { return true }
