package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"zmrun/zmachine"
)

// paletteColor resolves a Z-machine opaque colour index to an RGB hex
// string. Mined out of the teacher's now-retired zmachine/screen.go
// (NewZMachineColor's switch over the eight standard colours plus grey) -
// the core package only ever hands the Screen collaborator an index
// (spec.md 6), so the RGB table lives here instead.
func paletteColor(c zmachine.Color) string {
	switch c {
	case zmachine.ColorBlack:
		return "#000000"
	case zmachine.ColorRed:
		return "#FF0000"
	case zmachine.ColorGreen:
		return "#00FF00"
	case zmachine.ColorYellow:
		return "#FFFF00"
	case zmachine.ColorBlue:
		return "#0000FF"
	case zmachine.ColorMagenta:
		return "#FF00FF"
	case zmachine.ColorCyan:
		return "#00FFFF"
	case zmachine.ColorWhite:
		return "#FFFFFF"
	case zmachine.ColorGray:
		return "#AAAAAA"
	default: // ColorCurrent / ColorDefault: leave the lipgloss style unset
		return ""
	}
}

func lipglossStyle(style zmachine.TextStyle, fg, bg zmachine.Color) lipgloss.Style {
	s := lipgloss.NewStyle()
	if hex := paletteColor(fg); hex != "" {
		s = s.Foreground(lipgloss.Color(hex))
	}
	if hex := paletteColor(bg); hex != "" {
		s = s.Background(lipgloss.Color(hex))
	}
	return s.
		Bold(style&zmachine.StyleBold != 0).
		Italic(style&zmachine.StyleItalic != 0).
		Reverse(style&zmachine.StyleReverseVideo != 0)
}

type styledRune struct {
	ch    rune
	style lipgloss.Style
}

type styledSpan struct {
	text  string
	style lipgloss.Style
}

// windowStyle tracks the current style/colour state of one of the two
// windows, mutated by set_text_style/set_text_colors.
type windowStyle struct {
	style  zmachine.TextStyle
	fg, bg zmachine.Color
}

// screenHost is the concrete zmachine.Screen implementation behind the
// interactive play driver. Grounded on the teacher's main.go runStoryModel
// fields (upperWindowText/upperWindowStyle grid, lowerWindowTextPreStyled
// append-only buffer, statusBar) and the teacher's now-retired
// zmachine/screen.go ScreenModel, generalized onto the abstract
// zmachine.Screen/Color contract instead of a concrete RGB struct.
type screenHost struct {
	width, height int

	lower    []styledSpan
	lowerCur windowStyle

	upperGrid  [][]styledRune
	upperCur   windowStyle
	cursorX    int
	cursorY    int
	splitLines int

	activeWindow int // 0 = lower, 1 = upper
	buffered     bool
	cursorShown  bool

	status zmachine.StatusBarInfo
	caps   zmachine.Capabilities
}

func newScreenHost(width, height int) *screenHost {
	return &screenHost{
		width:       width,
		height:      height,
		buffered:    true,
		cursorShown: true,
		caps: zmachine.Capabilities{
			HasColors:             true,
			HasBold:               true,
			HasItalic:             true,
			HasReverseVideo:       true,
			HasFixedPitch:         true,
			HasSplitWindow:        true,
			HasDisplayStatusBar:   true,
			HasPictures:           false,
			HasSound:              true,
			HasTimedKeyboardInput: true,
		},
	}
}

func (h *screenHost) Resize(width, height int) {
	h.width, h.height = width, height
	h.resizeUpperGrid()
}

func (h *screenHost) resizeUpperGrid() {
	for len(h.upperGrid) < h.splitLines {
		h.upperGrid = append(h.upperGrid, make([]styledRune, h.width))
	}
	if len(h.upperGrid) > h.splitLines {
		h.upperGrid = h.upperGrid[:h.splitLines]
	}
	for i := range h.upperGrid {
		if len(h.upperGrid[i]) < h.width {
			pad := make([]styledRune, h.width-len(h.upperGrid[i]))
			for j := range pad {
				pad[j] = styledRune{ch: ' '}
			}
			h.upperGrid[i] = append(h.upperGrid[i], pad...)
		} else if len(h.upperGrid[i]) > h.width {
			h.upperGrid[i] = h.upperGrid[i][:h.width]
		}
	}
}

func (h *screenHost) Print(text string) {
	if h.activeWindow == 1 {
		h.printUpper(text)
		return
	}
	h.lower = append(h.lower, styledSpan{text: text, style: lipglossStyle(h.lowerCur.style, h.lowerCur.fg, h.lowerCur.bg)})
}

func (h *screenHost) printUpper(text string) {
	st := lipglossStyle(h.upperCur.style, h.upperCur.fg, h.upperCur.bg)
	for _, segment := range strings.Split(text, "\n") {
		for _, r := range segment {
			if h.cursorY >= 0 && h.cursorY < len(h.upperGrid) && h.cursorX >= 0 && h.cursorX < len(h.upperGrid[h.cursorY]) {
				h.upperGrid[h.cursorY][h.cursorX] = styledRune{ch: r, style: st}
			}
			h.cursorX++
		}
		h.cursorY++
		h.cursorX = 0
	}
	if h.cursorY > 0 {
		h.cursorY--
	}
}

func (h *screenHost) SplitWindow(lines int) {
	h.splitLines = lines
	h.resizeUpperGrid()
}

func (h *screenHost) SetWindow(window int) {
	h.activeWindow = window
	if window == 1 {
		h.cursorX, h.cursorY = 0, 0
	}
}

func (h *screenHost) EraseWindow(window int) {
	switch window {
	case -2: // unsplit kept, clear both
		h.lower = nil
		h.clearUpper()
	case -1: // unsplit, clear both
		h.splitLines = 0
		h.upperGrid = nil
		h.lower = nil
	case 0:
		h.lower = nil
	case 1:
		h.clearUpper()
	}
}

func (h *screenHost) clearUpper() {
	for i := range h.upperGrid {
		for j := range h.upperGrid[i] {
			h.upperGrid[i][j] = styledRune{ch: ' '}
		}
	}
}

func (h *screenHost) EraseLine() {
	if h.activeWindow != 1 || h.cursorY < 0 || h.cursorY >= len(h.upperGrid) {
		return
	}
	row := h.upperGrid[h.cursorY]
	for i := h.cursorX; i < len(row); i++ {
		row[i] = styledRune{ch: ' '}
	}
}

func (h *screenHost) SetCursor(line, col, window int) {
	if window == 1 || h.activeWindow == 1 {
		h.cursorY, h.cursorX = line-1, col-1
	}
}

func (h *screenHost) GetCursor(window int) (line, col int) {
	return h.cursorY + 1, h.cursorX + 1
}

func (h *screenHost) ShowCursor(show bool) { h.cursorShown = show }

func (h *screenHost) SetTextStyle(window int, style zmachine.TextStyle) {
	cur := h.windowStyleFor(window)
	if style == zmachine.StyleRoman {
		cur.style = zmachine.StyleRoman
	} else {
		cur.style |= style
	}
	h.setWindowStyle(window, cur)
}

func (h *screenHost) SetTextColors(window int, fg, bg zmachine.Color) {
	cur := h.windowStyleFor(window)
	cur.fg, cur.bg = fg, bg
	h.setWindowStyle(window, cur)
}

func (h *screenHost) windowStyleFor(window int) windowStyle {
	if window == 1 {
		return h.upperCur
	}
	return h.lowerCur
}

func (h *screenHost) setWindowStyle(window int, ws windowStyle) {
	if window == 1 {
		h.upperCur = ws
	} else {
		h.lowerCur = ws
	}
}

func (h *screenHost) BufferMode(enabled bool) { h.buffered = enabled }

func (h *screenHost) UpdateStatusBar(info zmachine.StatusBarInfo) { h.status = info }

func (h *screenHost) Capabilities() zmachine.Capabilities { return h.caps }

// View renders the current screen state to a plain terminal string,
// generalizing the teacher's runStoryModel.View (status bar OR upper
// window, word-wrapped lower window, input line appended at the bottom).
func (h *screenHost) View(inputLine string, showInput bool) string {
	var b strings.Builder

	if h.status.PlaceName != "" {
		b.WriteString(lipgloss.NewStyle().Reverse(true).Width(h.width).Render(statusLine(h.width, h.status)))
		b.WriteString("\n")
	} else if h.splitLines > 0 {
		for _, row := range h.upperGrid {
			b.WriteString(renderStyledRow(row))
			b.WriteString("\n")
		}
	}

	var lower strings.Builder
	for _, span := range h.lower {
		lower.WriteString(span.style.Render(span.text))
	}
	body := lower.String()
	if h.buffered {
		body = wordwrap.String(body, h.width)
	}
	b.WriteString(body)

	if showInput {
		b.WriteString(inputLine)
	}

	return b.String()
}

func renderStyledRow(row []styledRune) string {
	var b strings.Builder
	var run strings.Builder
	var cur lipgloss.Style
	flush := func() {
		if run.Len() > 0 {
			b.WriteString(cur.Render(run.String()))
			run.Reset()
		}
	}
	for i, sr := range row {
		if i == 0 {
			cur = sr.style
		} else if sr.style != cur {
			flush()
			cur = sr.style
		}
		run.WriteRune(sr.ch)
	}
	flush()
	return b.String()
}

func statusLine(width int, info zmachine.StatusBarInfo) string {
	right := ""
	if info.IsTimeBased {
		right = padLeftNum(info.Value1) + ":" + padLeftNum(info.Value2)
	} else {
		right = "Score: " + itoa(info.Value1) + "  Moves: " + itoa(info.Value2)
	}
	left := info.PlaceName
	if len(left)+len(right)+1 >= width {
		if width > len(right)+1 {
			left = left[:width-len(right)-1]
		} else {
			left = ""
		}
	}
	pad := width - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func itoa(n int) string {
	return itoaDigits(n)
}

func itoaDigits(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func padLeftNum(n int) string {
	s := itoaDigits(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
