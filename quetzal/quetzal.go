// Package quetzal encodes and decodes Z-machine save states using the
// Quetzal IFF format: FORM(size) 'IFZS' { chunk }*, each chunk framed as
// id(4) size(4) bytes(size) pad-to-even. The in-memory shape being encoded
// is zmachine.Snapshot; CMem decompression needs the original story image
// to XOR back against.
package quetzal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"zmrun/zmachine"
)

const (
	chunkFORM = "FORM"
	chunkIFZS = "IFZS"
	chunkIFhd = "IFhd"
	chunkCMem = "CMem"
	chunkUMem = "UMem"
	chunkStks = "Stks"
)

// StoryInfo carries the header fields IFhd needs that aren't part of a
// zmachine.Snapshot: release number, 6-byte serial, and checksum.
type StoryInfo struct {
	ReleaseNumber uint16
	Serial        [6]byte
	Checksum      uint16
}

// FormatError reports a malformed or unsupported Quetzal file.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("quetzal: %s", e.Reason)
}

// Encode produces a Quetzal save file for snap, compressing dynamic memory
// against original via CMem when original is non-nil, falling back to an
// uncompressed UMem chunk otherwise.
func Encode(snap zmachine.Snapshot, info StoryInfo, original []byte) ([]byte, error) {
	var chunks bytes.Buffer

	if err := writeChunk(&chunks, chunkIFhd, encodeIFhd(info, snap.PC)); err != nil {
		return nil, err
	}

	if original != nil {
		mem := compressCMem(snap.DynamicMemory, original)
		if err := writeChunk(&chunks, chunkCMem, mem); err != nil {
			return nil, err
		}
	} else {
		if err := writeChunk(&chunks, chunkUMem, snap.DynamicMemory); err != nil {
			return nil, err
		}
	}

	stks, err := encodeStks(snap.Frames, snap.DynamicMemory, original)
	if err != nil {
		return nil, err
	}
	if err := writeChunk(&chunks, chunkStks, stks); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(chunkFORM)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(chunkIFZS)+chunks.Len()))
	out.Write(size[:])
	out.WriteString(chunkIFZS)
	out.Write(chunks.Bytes())
	return out.Bytes(), nil
}

// Decode parses a Quetzal save file, rebuilding a zmachine.Snapshot. original
// is required to decompress a CMem chunk; it is ignored for UMem. The
// decoded PC and story info are returned alongside the snapshot.
func Decode(data []byte, original []byte) (zmachine.Snapshot, StoryInfo, error) {
	if len(data) < 12 || string(data[0:4]) != chunkFORM || string(data[8:12]) != chunkIFZS {
		return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "missing FORM/IFZS framing"}
	}
	formSize := binary.BigEndian.Uint32(data[4:8])
	if int(formSize)+8 > len(data) {
		return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "FORM size exceeds file length"}
	}

	var (
		info         StoryInfo
		havePC       bool
		pc           uint32
		haveCMem     bool
		haveUMem     bool
		dynamic      []byte
		haveStks     bool
		frames       []zmachine.FrameSnapshot
	)

	body := data[12 : 8+formSize]
	for len(body) > 0 {
		if len(body) < 8 {
			return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "truncated chunk header"}
		}
		id := string(body[0:4])
		size := binary.BigEndian.Uint32(body[4:8])
		if uint32(len(body)-8) < size {
			return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "truncated chunk body"}
		}
		payload := body[8 : 8+size]
		advance := 8 + size
		if size%2 == 1 {
			advance++
		}
		if uint32(len(body)) < advance {
			advance = uint32(len(body))
		}
		body = body[advance:]

		switch id {
		case chunkIFhd:
			var err error
			info, pc, err = decodeIFhd(payload)
			if err != nil {
				return zmachine.Snapshot{}, StoryInfo{}, err
			}
			havePC = true
		case chunkCMem:
			if original == nil {
				return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "CMem chunk without original story"}
			}
			dynamic = decompressCMem(payload, original)
			haveCMem = true
		case chunkUMem:
			dynamic = append([]byte(nil), payload...)
			haveUMem = true
		case chunkStks:
			var err error
			frames, err = decodeStks(payload)
			if err != nil {
				return zmachine.Snapshot{}, StoryInfo{}, err
			}
			haveStks = true
		}
	}

	if !havePC {
		return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "missing IFhd chunk"}
	}
	if !haveStks {
		return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "missing Stks chunk"}
	}
	if !haveCMem && !haveUMem {
		return zmachine.Snapshot{}, StoryInfo{}, &FormatError{Reason: "missing both CMem and UMem chunks"}
	}

	return zmachine.Snapshot{DynamicMemory: dynamic, Frames: frames, PC: pc}, info, nil
}

func writeChunk(buf *bytes.Buffer, id string, payload []byte) error {
	if len(id) != 4 {
		return &FormatError{Reason: "chunk id must be 4 bytes"}
	}
	buf.WriteString(id)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
	buf.Write(size[:])
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
	return nil
}
