package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"zmrun/quetzal"
	"zmrun/zmachine"
)

// Codec serializes/deserializes a zmachine.Snapshot to a persisted byte
// form. The two implementations are spec.md 6's "Quetzal or an enhanced
// self-describing container" choice, orthogonal to which Provider writes
// the bytes somewhere.
type Codec interface {
	Encode(snap zmachine.Snapshot) ([]byte, error)
	Decode(data []byte) (zmachine.Snapshot, error)
}

// QuetzalCodec wraps the quetzal package, XOR-compressing dynamic memory
// against the original story whenever it's available.
type QuetzalCodec struct {
	Info     quetzal.StoryInfo
	Original []byte
}

func (c QuetzalCodec) Encode(snap zmachine.Snapshot) ([]byte, error) {
	return quetzal.Encode(snap, c.Info, c.Original)
}

func (c QuetzalCodec) Decode(data []byte) (zmachine.Snapshot, error) {
	snap, _, err := quetzal.Decode(data, c.Original)
	return snap, err
}

// jsonFrame is FrameSnapshot with JSON-friendly field names.
type jsonFrame struct {
	ReturnPC    uint32   `json:"return_pc"`
	ArgCount    int      `json:"arg_count"`
	Locals      []uint16 `json:"locals"`
	EvalStack   []uint16 `json:"eval_stack"`
	RoutineType int      `json:"routine_type"`
}

// jsonContainer is the alternate self-describing save format spec.md 6
// names: base64-encoded dynamic memory and plain-field call frames, tagged
// with an explicit version
// so a future format change can detect and reject (or migrate) old saves.
// Grounded on selectstoryui/ui.go's cachedStoryList (plain encoding/json,
// no third-party JSON library appears anywhere in the pack).
type jsonContainer struct {
	Version       int         `json:"__version"`
	DynamicMemory string      `json:"dynamic_memory"` // base64
	Frames        []jsonFrame `json:"frames"`
	PC            uint32      `json:"pc"`
}

const jsonContainerVersion = 1

// JSONCodec implements the alternate container. It needs no original story
// image since it stores dynamic memory uncompressed.
type JSONCodec struct{}

func (JSONCodec) Encode(snap zmachine.Snapshot) ([]byte, error) {
	container := jsonContainer{
		Version:       jsonContainerVersion,
		DynamicMemory: base64.StdEncoding.EncodeToString(snap.DynamicMemory),
		PC:            snap.PC,
	}
	for _, f := range snap.Frames {
		container.Frames = append(container.Frames, jsonFrame{
			ReturnPC:    f.ReturnPC,
			ArgCount:    f.ArgCount,
			Locals:      f.Locals,
			EvalStack:   f.EvalStack,
			RoutineType: int(f.RoutineType),
		})
	}
	return json.MarshalIndent(container, "", "  ")
}

func (JSONCodec) Decode(data []byte) (zmachine.Snapshot, error) {
	var container jsonContainer
	if err := json.Unmarshal(data, &container); err != nil {
		return zmachine.Snapshot{}, fmt.Errorf("storage: malformed save container: %w", err)
	}
	if container.Version != jsonContainerVersion {
		return zmachine.Snapshot{}, fmt.Errorf("storage: unsupported save container version %d", container.Version)
	}
	dynamic, err := base64.StdEncoding.DecodeString(container.DynamicMemory)
	if err != nil {
		return zmachine.Snapshot{}, fmt.Errorf("storage: malformed dynamic memory: %w", err)
	}

	snap := zmachine.Snapshot{DynamicMemory: dynamic, PC: container.PC}
	for _, f := range container.Frames {
		snap.Frames = append(snap.Frames, zmachine.FrameSnapshot{
			ReturnPC:    f.ReturnPC,
			ArgCount:    f.ArgCount,
			Locals:      f.Locals,
			EvalStack:   f.EvalStack,
			RoutineType: zmachine.RoutineType(f.RoutineType),
		})
	}
	return snap, nil
}
