package quetzal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zmrun/quetzal"
	"zmrun/zmachine"
)

func sampleSnapshot() zmachine.Snapshot {
	return zmachine.Snapshot{
		DynamicMemory: []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00, 0x09, 0xAA},
		Frames: []zmachine.FrameSnapshot{
			{ReturnPC: 0x4000, RoutineType: zmachine.RoutineProcedure, Locals: nil, EvalStack: []uint16{11, 22}},
			{ReturnPC: 0x4010, RoutineType: zmachine.RoutineFunction, ArgCount: 2, Locals: []uint16{5, 6, 7}, EvalStack: []uint16{99}},
		},
		PC: 0x4020,
	}
}

func TestEncodeDecodeRoundTripsWithCMem(t *testing.T) {
	snap := sampleSnapshot()
	original := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x09, 0xAA}
	info := quetzal.StoryInfo{ReleaseNumber: 3, Serial: [6]byte{'2', '5', '0', '1', '0', '1'}, Checksum: 0xBEEF}

	data, err := quetzal.Encode(snap, info, original)
	require.NoError(t, err)

	decoded, decodedInfo, err := quetzal.Decode(data, original)
	require.NoError(t, err)

	assert.Equal(t, snap.DynamicMemory, decoded.DynamicMemory)
	assert.Equal(t, snap.PC, decoded.PC)
	assert.Equal(t, info, decodedInfo)
	require.Len(t, decoded.Frames, 2)
	assert.Equal(t, snap.Frames[0].ReturnPC, decoded.Frames[0].ReturnPC)
	assert.Equal(t, snap.Frames[1].ArgCount, decoded.Frames[1].ArgCount)
	assert.Equal(t, snap.Frames[1].Locals, decoded.Frames[1].Locals)
	assert.Equal(t, snap.Frames[1].EvalStack, decoded.Frames[1].EvalStack)
	assert.Equal(t, zmachine.RoutineFunction, decoded.Frames[1].RoutineType)
}

func TestEncodeDecodeRoundTripsWithUMem(t *testing.T) {
	snap := sampleSnapshot()
	info := quetzal.StoryInfo{ReleaseNumber: 7}

	data, err := quetzal.Encode(snap, info, nil)
	require.NoError(t, err)

	decoded, _, err := quetzal.Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, snap.DynamicMemory, decoded.DynamicMemory)
}

func TestDecodeRejectsMissingFraming(t *testing.T) {
	_, _, err := quetzal.Decode([]byte("not a quetzal file"), nil)
	require.Error(t, err)
}

func TestDecodeRejectsCMemWithoutOriginal(t *testing.T) {
	snap := sampleSnapshot()
	original := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x09, 0xAA}
	info := quetzal.StoryInfo{}

	data, err := quetzal.Encode(snap, info, original)
	require.NoError(t, err)

	_, _, err = quetzal.Decode(data, nil)
	require.Error(t, err)
}

func TestCompressionCollapsesLongRunsOfUnchangedBytes(t *testing.T) {
	current := make([]byte, 600)
	original := make([]byte, 600)
	current[599] = 0x42

	snap := zmachine.Snapshot{DynamicMemory: current, Frames: nil, PC: 0}
	data, err := quetzal.Encode(snap, quetzal.StoryInfo{}, original)
	require.NoError(t, err)

	// Should be dramatically smaller than the 600-byte uncompressed image:
	// 50 bytes of FORM/IFhd/CMem/Stks framing plus a 7-byte CMem payload
	// (three RLE runs of at most 256 zero bytes each, then the changed
	// byte) and one pad byte, 58 bytes in all.
	assert.Less(t, len(data), 60)

	decoded, _, err := quetzal.Decode(data, original)
	require.NoError(t, err)
	assert.Equal(t, current, decoded.DynamicMemory)
}
