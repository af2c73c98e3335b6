package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"zmrun/zcore"
	"zmrun/zdictionary"
	"zmrun/zmachine"
	"zmrun/zobject"
	"zmrun/zstring"
)

// debugInspector is the --debug TUI: a single tview.Pages page showing the
// header, object-tree and dictionary views side by side; --header/
// --object-tree/--dict all open this same layout. Grounded on
// lookbusy1344-arm_emulator/debugger/tui.go's TUI struct
// (tview.Application/Pages, one tview.TextView/TreeView per inspector
// panel, a global input capture that here only handles the quit keys q and
// Ctrl-C instead of that debugger's step/continue commands - zmrun's
// inspector is read-only, there's no execution to step).
type debugInspector struct {
	app   *tview.Application
	pages *tview.Pages

	mem  *zcore.Memory
	dec  *zstring.Decoder
	dict *zdictionary.Dictionary
}

func newDebugInspector(machine *zmachine.Machine) *debugInspector {
	d := &debugInspector{
		app:  tview.NewApplication(),
		mem:  machine.Memory,
		dec:  machine.Decoder,
		dict: machine.Dictionary,
	}
	d.build()
	return d
}

func (d *debugInspector) build() {
	header := tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	header.SetBorder(true).SetTitle(" Header ")
	header.SetText(d.headerText())

	objects := tview.NewTreeView()
	objects.SetBorder(true).SetTitle(" Object Tree ")
	root := tview.NewTreeNode("Objects").SetColor(tcell.ColorYellow)
	objects.SetRoot(root).SetCurrentNode(root)
	d.buildObjectTree(root)

	dict := tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	dict.SetBorder(true).SetTitle(" Dictionary ")
	dict.SetText(d.dictionaryText())

	layout := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(header, 0, 1, false).
		AddItem(objects, 0, 1, true).
		AddItem(dict, 0, 1, false)

	d.pages = tview.NewPages().AddPage("main", layout, true, true)

	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' {
			d.app.Stop()
			return nil
		}
		return event
	})
}

func (d *debugInspector) headerText() string {
	h := d.mem.Header
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]Version:[white] %d\n", h.Version)
	fmt.Fprintf(&b, "[yellow]Release:[white] %d\n", h.ReleaseNumber)
	fmt.Fprintf(&b, "[yellow]Flags1:[white] 0x%02X\n", h.FlagByte1)
	fmt.Fprintf(&b, "[yellow]High memory base:[white] 0x%04X\n", h.HighMemoryBase)
	fmt.Fprintf(&b, "[yellow]Initial PC:[white] 0x%04X\n", h.FirstInstruction)
	fmt.Fprintf(&b, "[yellow]Dictionary base:[white] 0x%04X\n", h.DictionaryBase)
	fmt.Fprintf(&b, "[yellow]Object table base:[white] 0x%04X\n", h.ObjectTableBase)
	fmt.Fprintf(&b, "[yellow]Global variable base:[white] 0x%04X\n", h.GlobalVariableBase)
	fmt.Fprintf(&b, "[yellow]Static memory base:[white] 0x%04X\n", h.StaticMemoryBase)
	fmt.Fprintf(&b, "[yellow]Abbreviation table base:[white] 0x%04X\n", h.AbbreviationTableBase)
	fmt.Fprintf(&b, "[yellow]File length:[white] %d bytes\n", h.FileLength())
	fmt.Fprintf(&b, "[yellow]File checksum:[white] 0x%04X\n", h.FileChecksum)
	fmt.Fprintf(&b, "[yellow]Standard revision:[white] %d\n", h.StandardRevisionNumber)
	return b.String()
}

func (d *debugInspector) buildObjectTree(root *tview.TreeNode) {
	count, err := zobject.Count(d.mem)
	if err != nil {
		root.AddChild(tview.NewTreeNode(fmt.Sprintf("error: %v", err)))
		return
	}

	nodes := make(map[uint16]*tview.TreeNode)
	var roots []uint16

	for id := uint16(1); id <= count; id++ {
		obj, err := zobject.Load(d.mem, id)
		if err != nil {
			continue
		}
		label := fmt.Sprintf("#%d", id)
		if name, err := zobject.Name(d.mem, d.dec, id); err == nil && name != "" {
			label = fmt.Sprintf("#%d %q", id, name)
		}
		nodes[id] = tview.NewTreeNode(label).SetReference(id)
		if obj.Parent == 0 {
			roots = append(roots, id)
		}
	}

	var attach func(id uint16, node *tview.TreeNode)
	attach = func(id uint16, node *tview.TreeNode) {
		obj, err := zobject.Load(d.mem, id)
		if err != nil {
			return
		}
		child := obj.Child
		for child != 0 {
			childNode, ok := nodes[child]
			if !ok {
				break
			}
			node.AddChild(childNode)
			attach(child, childNode)
			next, err := zobject.Load(d.mem, child)
			if err != nil {
				break
			}
			child = next.Sibling
		}
	}

	for _, id := range roots {
		root.AddChild(nodes[id])
		attach(id, nodes[id])
	}
}

func (d *debugInspector) dictionaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]Entries:[white] %d\n", len(d.dict.Entries))
	fmt.Fprintf(&b, "[yellow]Entry length:[white] %d\n", d.dict.Header.EntryLength)
	fmt.Fprintf(&b, "[yellow]Input codes:[white] %v\n\n", d.dict.Header.InputCodes)
	for _, e := range d.dict.Entries {
		fmt.Fprintf(&b, "0x%04X  % X\n", e.Address, e.EncodedWord)
	}
	return b.String()
}

func (d *debugInspector) Run() error {
	return d.app.SetRoot(d.pages, true).Run()
}
