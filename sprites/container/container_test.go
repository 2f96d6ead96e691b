package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildFileSet assembles a minimal, valid container byte buffer for tests:
// one job -> one direction -> one frame -> one image.
func buildFileSet(t *testing.T, body []byte, encoding EncodingType, width, height uint16, paletteGroupOffset uint16) []byte {
	t.Helper()

	var imageHeader []byte
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, width)
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, height)
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, 0) // anchorLeft
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, 0) // anchorTop
	imageHeader = append(imageHeader, byte(encoding))
	imageHeader = binary.LittleEndian.AppendUint16(imageHeader, paletteGroupOffset)
	imageHeader = binary.LittleEndian.AppendUint32(imageHeader, uint32(len(body)))
	imageHeader = append(imageHeader, body...)

	var buf []byte
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint32(buf, 1)                  // version
	buf = binary.LittleEndian.AppendUint32(buf, FlagHasDirections)  // flags
	buf = binary.LittleEndian.AppendUint32(buf, 1)                  // imageDirCount
	buf = binary.LittleEndian.AppendUint32(buf, 1)                  // jobCount
	buf = binary.LittleEndian.AppendUint32(buf, 1)                  // directionCount
	buf = binary.LittleEndian.AppendUint32(buf, 1)                  // frameCount
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(imageHeader)))

	// imageDir[0] = {offset: 0, imageIndex: 0}
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)

	// jobs[0] = {dirOffset: 0, dirLength: 1}
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 1)

	// directions[0] = {frameOffset: 0, frameLength: 1}
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 1)

	// frames[0] = {imageDirIndex: 0}
	buf = binary.LittleEndian.AppendUint32(buf, 0)

	buf = append(buf, imageHeader...)
	return buf
}

func TestParseRoundTrip(t *testing.T) {
	raw := buildFileSet(t, []byte{0, 4}, EncodingRLE, 2, 2, 0)
	fs, err := Parse(raw)
	require.NoError(t, err)
	require.True(t, fs.HasDirections)
	require.Equal(t, 1, fs.JobCount())
	require.Equal(t, 1, fs.DirectionCount())
	require.Equal(t, 1, fs.FrameCount())
	require.Equal(t, 1, fs.ImageDirCount())

	job, ok := fs.Job(0)
	require.True(t, ok)
	require.Equal(t, uint32(0), job.DirOffset)
	require.Equal(t, uint32(1), job.DirLength)

	dirs, err := fs.Directions(job.DirOffset, job.DirLength)
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	frames, err := fs.Frames(dirs[0].FrameOffset, dirs[0].FrameLength)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	off, ok := fs.ImageOffset(frames[0].ImageDirIndex)
	require.True(t, ok)

	hdr, err := fs.ReadImage(off)
	require.NoError(t, err)
	require.Equal(t, uint16(2), hdr.Width)
	require.Equal(t, uint16(2), hdr.Height)
	require.Equal(t, EncodingRLE, hdr.Encoding)
	require.Equal(t, []byte{0, 4}, hdr.Body)
}

func TestJobOutOfRangeIsAbsentNotFault(t *testing.T) {
	raw := buildFileSet(t, []byte{0, 4}, EncodingRLE, 2, 2, 0)
	fs, err := Parse(raw)
	require.NoError(t, err)

	_, ok := fs.Job(-1)
	require.False(t, ok)
	_, ok = fs.Job(999)
	require.False(t, ok)
}

func TestDirectionsAndFramesRejectOutOfRange(t *testing.T) {
	raw := buildFileSet(t, []byte{0, 4}, EncodingRLE, 2, 2, 0)
	fs, err := Parse(raw)
	require.NoError(t, err)

	_, err = fs.Directions(0, 5)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = fs.Frames(0, 5)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte("XXXX0000000000000000000000000000"))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestParseRejectsTruncated(t *testing.T) {
	_, err := Parse([]byte("SP"))
	require.ErrorIs(t, err, ErrTruncated)
}
