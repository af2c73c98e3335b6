package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zmrun/storybrowser"
	"zmrun/zmachine"
)

// pickerState mirrors the teacher's selectStoryState (selectstoryui/ui.go),
// generalized to call into storybrowser instead of scraping inline.
type pickerState int

const (
	pickerLoadingList pickerState = iota
	pickerChoosing
	pickerDownloading
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type storyItem storybrowser.Story

func (s storyItem) Title() string       { return s.Name }
func (s storyItem) Description() string { return s.Description }
func (s storyItem) FilterValue() string { return s.Name + s.Description }

type storiesLoadedMsg []list.Item
type storyDownloadedMsg struct {
	data  []byte
	story storybrowser.Story
}
type pickerErrMsg struct{ err error }

type pickerModel struct {
	state    pickerState
	list     list.Model
	spinner  spinner.Model
	err      error
	cache    storybrowser.Cache
	client   storybrowser.HTTPClient
	storage  zmachine.Storage
	selected storybrowser.Story
}

func newPickerModel(cacheDir string, storage zmachine.Storage) pickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)

	return pickerModel{
		state:   pickerLoadingList,
		list:    l,
		spinner: s,
		cache:   storybrowser.Cache{Dir: cacheDir},
		client:  storybrowser.DefaultClient(),
		storage: storage,
	}
}

func fetchStoryList(m pickerModel) tea.Cmd {
	return func() tea.Msg {
		stories, err := storybrowser.FetchIndexCached(m.client, m.cache)
		if err != nil {
			return pickerErrMsg{err}
		}
		items := make([]list.Item, len(stories))
		for i, s := range stories {
			items[i] = storyItem(s)
		}
		return storiesLoadedMsg(items)
	}
}

func fetchStory(m pickerModel, s storybrowser.Story) tea.Cmd {
	return func() tea.Msg {
		data, err := storybrowser.DownloadStoryCached(m.client, m.cache, s)
		if err != nil {
			return pickerErrMsg{err}
		}
		return storyDownloadedMsg{data: data, story: s}
	}
}

func (m pickerModel) Init() tea.Cmd {
	return fetchStoryList(m)
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.state != pickerChoosing {
				break
			}
			if s, ok := m.list.SelectedItem().(storyItem); ok {
				m.state = pickerDownloading
				m.selected = storybrowser.Story(s)
				return m, fetchStory(m, m.selected)
			}
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)

	case storiesLoadedMsg:
		m.state = pickerChoosing
		m.list.SetShowStatusBar(false)
		return m, m.list.SetItems([]list.Item(msg))

	case storyDownloadedMsg:
		screen := newScreenHost(80, 24)
		machine, err := zmachine.NewMachine(msg.data, screen, inputHost{}, m.storage)
		if err != nil {
			m.err = err
			return m, nil
		}
		machine.OnWarning = func(w zmachine.Warning) {}
		play := newPlayModel(machine, screen, msg.story.Name)
		return play, play.Init()

	case pickerErrMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.err != nil {
		return docStyle.Render(m.err.Error())
	}
	switch m.state {
	case pickerLoadingList:
		return fmt.Sprintf("\n\n   %s Loading stories...\n\n", m.spinner.View())
	case pickerChoosing:
		return docStyle.Render(m.list.View())
	case pickerDownloading:
		return fmt.Sprintf("\n\n   %s Downloading story...\n\n", m.spinner.View())
	default:
		return ""
	}
}

// runPicker drives the IF-Archive story browser (spec.md's supplemented
// story-selection feature), handing off to the play driver once a story
// finishes downloading.
func runPicker(cacheDir string, storage zmachine.Storage) error {
	model := newPickerModel(cacheDir, storage)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}
