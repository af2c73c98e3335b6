package zmachine

// TextStyle is the set_text_style bitmask. Grounded on the teacher's
// zmachine/screen.go TextStyle constants (Roman there means "clear all
// styles", kept as the zero value here instead of a bit so ^TextStyle masks
// behave the way the Standard's "turn off" semantics expect).
type TextStyle uint8

const (
	StyleRoman        TextStyle = 0
	StyleReverseVideo TextStyle = 1 << 0
	StyleBold         TextStyle = 1 << 1
	StyleItalic       TextStyle = 1 << 2
	StyleFixedPitch   TextStyle = 1 << 3
)

// Color is the set_text_colors palette index (spec.md 6), not an RGB triple
// - the Screen collaborator owns the rendering, the core only ever passes
// the index through.
type Color uint8

const (
	ColorCurrent Color = iota
	ColorDefault
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
)

// Capabilities answers the V5+ header-query opcodes (get_screen_..., and
// indirectly the header's Flags1 bits read at load time).
type Capabilities struct {
	HasColors             bool
	HasBold                bool
	HasItalic              bool
	HasReverseVideo        bool
	HasFixedPitch          bool
	HasSplitWindow         bool
	HasDisplayStatusBar    bool
	HasPictures            bool
	HasSound               bool
	HasTimedKeyboardInput bool
}

// StatusBarInfo is pushed to the Screen collaborator after every read, for
// V1-3 games only (spec.md 4.10 / the teacher's read()).
type StatusBarInfo struct {
	PlaceName   string
	Value1      int
	Value2      int
	IsTimeBased bool
}

// Screen is the output/window collaborator (spec.md 6). One capability
// instance per running Machine. Grounded on the shape of the message types
// the teacher sends over its output channel (ScreenModel, StatusBar,
// EraseWindowRequest, ...), turned into an explicit interface instead of an
// interface{} channel plus a type switch on the consumer side.
type Screen interface {
	Print(text string)
	SplitWindow(lines int)
	SetWindow(window int)
	EraseWindow(window int)
	EraseLine()
	SetCursor(line, col, window int)
	GetCursor(window int) (line, col int)
	ShowCursor(show bool)
	SetTextStyle(window int, style TextStyle)
	SetTextColors(window int, fg, bg Color)
	BufferMode(enabled bool)
	UpdateStatusBar(info StatusBarInfo)
	Capabilities() Capabilities
}

// InputKind distinguishes the two suspension shapes read/read_char produce.
type InputKind int

const (
	InputLine InputKind = iota
	InputChar
)

// InputState is populated by the read/read_char handlers right before they
// return control to the outer driver (spec.md 4.8's suspension contract);
// it carries everything ResumeWithInput needs to finish the instruction.
type InputState struct {
	Kind          InputKind
	TextBuffer    uint16
	ParseBuffer   uint16
	MaxLength     uint8
	ExistingChars uint8
	TimeTenths    uint16
	TimerRoutine  uint16
	StoreVariable uint8 // read_char's result variable; unused for InputLine until V5's terminator store
}

// InputHost offers a timer tick callback when a read's time argument is
// nonzero (spec.md 4.10). The line/char itself arrives through
// Machine.ResumeWithInput, not through this interface - the host doesn't
// push input, the driver pulls it by calling Resume once it has a line.
type InputHost interface {
	// TimerTick is invoked by the host every TimeTenths of a second while a
	// read is outstanding with a nonzero timer; returning true aborts the
	// read (the handler substitutes a zero-length buffer).
	TimerTick() (abort bool)
}

// SaveInfo describes one persisted game for list_saves/get_save_info.
type SaveInfo struct {
	Description string
	PC          uint32
	Release     uint16
	Serial      [6]byte
}

// StorageOp distinguishes save_snapshot from load_snapshot requests queued
// on AwaitingStorage.
type StorageOp int

const (
	StorageSave StorageOp = iota
	StorageLoad
)

// StorageRequest is populated by save/restore right before suspending; the
// outer driver completes it synchronously or asynchronously and calls
// ResumeWithSaveResult or ResumeWithRestoreResult.
type StorageRequest struct {
	Op          StorageOp
	Description string
}

// Storage persists and restores snapshots (spec.md 6). Implementations
// include a filesystem provider, a browser key-value provider, and an
// in-memory provider; a format provider on top serialises to Quetzal or to
// the alternate self-describing container - the choice is orthogonal to
// the core, which only ever calls this interface.
type Storage interface {
	SaveSnapshot(state Snapshot, description string) error
	LoadSnapshot() (Snapshot, error)
	ListSaves() ([]SaveInfo, error)
	GetSaveInfo() (SaveInfo, error)
}
