package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zmrun/zmachine"
)

// machineSuspendedMsg is delivered once Run() returns control to the host -
// the machine halted, faulted, or is waiting on input. Grounded on the
// shape of the teacher's waitForInterpreter/runInterpreter pair, adapted
// for the synchronous Machine (Run blocks this goroutine until suspension
// instead of pushing messages down a channel while it executes).
type machineSuspendedMsg struct{}
type runtimeErrorMsg struct{ err error }
type timerFireMsg struct{}

type appState int

const (
	stateRunning appState = iota
	stateAwaitingLine
	stateAwaitingChar
)

type playModel struct {
	machine *zmachine.Machine
	screen  *screenHost
	title   string

	state    appState
	inputBox textinput.Model

	width, height int
	runtimeErr    string
}

func newPlayModel(machine *zmachine.Machine, screen *screenHost, title string) playModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 255

	return playModel{
		machine:  machine,
		screen:   screen,
		title:    title,
		state:    stateRunning,
		inputBox: ti,
	}
}

func runMachine(m *zmachine.Machine) tea.Cmd {
	return func() tea.Msg {
		if err := m.Run(); err != nil {
			return runtimeErrorMsg{err}
		}
		return machineSuspendedMsg{}
	}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(m.title), tea.WindowSize(), runMachine(m.machine))
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case machineSuspendedMsg:
		return m.handleSuspend()

	case runtimeErrorMsg:
		m.runtimeErr = msg.err.Error()
		return m, tea.Quit

	case timerFireMsg:
		if m.state != stateAwaitingLine && m.state != stateAwaitingChar {
			return m, nil
		}
		pending := m.machine.PendingInput()
		if pending == nil || pending.TimeTenths == 0 {
			return m, nil
		}
		if abort := (inputHost{}).TimerTick(); abort {
			m.state = stateRunning
			if err := m.machine.ResumeWithTimeout(); err != nil {
				m.runtimeErr = err.Error()
				return m, tea.Quit
			}
			return m, runMachine(m.machine)
		}
		return m, tickTimer(pending.TimeTenths)
	}

	var cmd tea.Cmd
	if m.state == stateAwaitingLine {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}
	return m, cmd
}

func (m playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateAwaitingChar:
		var ch uint8
		if len(msg.Runes) > 0 {
			ch = uint8(msg.Runes[0])
		} else if msg.Type == tea.KeyEnter {
			ch = 13
		} else if msg.Type == tea.KeyDelete || msg.Type == tea.KeyBackspace {
			ch = 8
		}
		m.state = stateRunning
		if err := m.machine.ResumeWithCharacter(ch); err != nil {
			m.runtimeErr = err.Error()
			return m, tea.Quit
		}
		return m, runMachine(m.machine)

	case stateAwaitingLine:
		if msg.Type == tea.KeyEnter {
			line := m.inputBox.Value()
			m.inputBox.SetValue("")
			m.state = stateRunning
			if err := m.machine.ResumeWithInput(line); err != nil {
				m.runtimeErr = err.Error()
				return m, tea.Quit
			}
			return m, runMachine(m.machine)
		}
		var cmd tea.Cmd
		m.inputBox, cmd = m.inputBox.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m playModel) handleSuspend() (tea.Model, tea.Cmd) {
	switch m.machine.Status() {
	case zmachine.StatusHalted:
		return m, tea.Quit

	case zmachine.StatusAwaitingInput:
		pending := m.machine.PendingInput()
		if pending == nil {
			m.runtimeErr = "machine suspended awaiting input with no pending input state"
			return m, tea.Quit
		}
		var cmd tea.Cmd
		if pending.Kind == zmachine.InputChar {
			m.state = stateAwaitingChar
		} else {
			m.state = stateAwaitingLine
			m.inputBox.CharLimit = int(pending.MaxLength)
			m.inputBox.Focus()
		}
		if pending.TimeTenths > 0 {
			cmd = tickTimer(pending.TimeTenths)
		}
		return m, cmd

	case zmachine.StatusAwaitingStorage:
		// No Storage collaborator case: the host is expected to persist the
		// snapshot itself. zmrun always wires a Storage provider (see
		// main.go), so this path only triggers if that wiring is ever
		// removed; failing the request safely is better than hanging.
		req := m.machine.PendingStorage()
		if req != nil && req.Op == zmachine.StorageSave {
			if err := m.machine.ResumeWithSaveResult(false); err != nil {
				m.runtimeErr = err.Error()
				return m, tea.Quit
			}
		} else if err := m.machine.ResumeWithRestoreResult(zmachine.Snapshot{}, false); err != nil {
			m.runtimeErr = err.Error()
			return m, tea.Quit
		}
		return m, runMachine(m.machine)
	}

	return m, runMachine(m.machine)
}

func tickTimer(tenths uint16) tea.Cmd {
	return tea.Tick(time.Duration(tenths)*100*time.Millisecond, func(time.Time) tea.Msg {
		return timerFireMsg{}
	})
}

func (m playModel) View() string {
	if m.runtimeErr != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errStyle.Render("Z-Machine Error:"), m.runtimeErr)
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	inputLine := ""
	if m.state == stateAwaitingLine {
		inputLine = "\n" + m.inputBox.View()
	}
	return m.screen.View(inputLine, m.state == stateAwaitingLine)
}

// runPlay is the cmd/zmrun entry point for interactive play (spec.md 6).
func runPlay(storyBytes []byte, title string, storage zmachine.Storage) error {
	screen := newScreenHost(80, 24)
	machine, err := zmachine.NewMachine(storyBytes, screen, inputHost{}, storage)
	if err != nil {
		return err
	}
	machine.OnWarning = func(w zmachine.Warning) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}

	model := newPlayModel(machine, screen, title)
	program := tea.NewProgram(model)
	_, err = program.Run()
	return err
}
