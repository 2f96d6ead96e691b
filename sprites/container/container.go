// Package container parses the legacy sprite container format: a
// job -> direction -> frame -> image indirection chain plus a concatenated
// image stream (spec §2.1, §3, §4.1).
//
// Layout on disk (little-endian throughout):
//
//	magic              [4]byte  "SPRC"
//	version            uint32
//	flags              uint32   bit0: hasDirections
//	imageDirCount      uint32
//	jobCount           uint32
//	directionCount     uint32
//	frameCount         uint32
//	imageStreamLength  uint32
//	imageDir           imageDirCount  * {offset uint32, imageIndex uint32}
//	jobs               jobCount       * {dirOffset uint32, dirLength uint32}  (dirOffset == absentSentinel means no such job)
//	directions         directionCount * {frameOffset uint32, frameLength uint32}
//	frames             frameCount     * {imageDirIndex uint32}
//	imageStream        imageStreamLength bytes, each payload:
//	    width              uint16
//	    height             uint16
//	    anchorLeft         int16
//	    anchorTop          int16
//	    encodingType       uint8
//	    paletteGroupOffset uint16
//	    bodyLength         uint32
//	    body               [bodyLength]byte
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const magic = "SPRC"

// absentSentinel marks a job-table slot with no associated direction run.
const absentSentinel = 0xFFFFFFFF

// EncodingType identifies how an image payload's body is packed.
type EncodingType uint8

const (
	EncodingRLE EncodingType = 1
	EncodingRAW EncodingType = 32
)

// FlagHasDirections reports whether this file-set carries job/direction
// indirection at all (spec §3 "Optional flag").
const FlagHasDirections uint32 = 1 << 0

var (
	// ErrOutOfRange is returned by subview accessors (Directions, Frames)
	// when an offset+length would read past the owning table. It is never
	// returned by Job, which treats an absent/out-of-range index as a
	// quiet miss per spec §4.1.
	ErrOutOfRange = errors.New("container: index out of range")
	ErrBadMagic   = errors.New("container: bad magic number")
	ErrTruncated  = errors.New("container: truncated data")
)

// ImageDirEntry is one slot of the image directory.
type ImageDirEntry struct {
	Offset     uint32 // byte offset into the image stream
	ImageIndex uint32 // original image identifier this slot was built from
}

// JobEntry is one slot of the job table. Absent jobs have no sprite.
type JobEntry struct {
	DirOffset uint32
	DirLength uint32
	Absent    bool
}

// DirectionEntry is one slot of the (dense) direction table.
type DirectionEntry struct {
	FrameOffset uint32
	FrameLength uint32
}

// FrameEntry is one slot of the (dense) frame table.
type FrameEntry struct {
	ImageDirIndex uint32
}

// ImageHeader is the decoded header (and body view) of one image payload.
type ImageHeader struct {
	Width, Height      uint16
	AnchorLeft         int16
	AnchorTop          int16
	Encoding           EncodingType
	PaletteGroupOffset uint16
	Body               []byte // view into the file-set's backing buffer
}

// FileSet is a fully-parsed container. All accessors below are pure
// functions over these slices; no I/O happens at this layer (spec §4.1).
type FileSet struct {
	HasDirections bool

	imageDir   []ImageDirEntry
	jobs       []JobEntry
	directions []DirectionEntry
	frames     []FrameEntry
	imageData  []byte // raw image stream, payload headers resolved lazily
}

// Parse decodes a raw container byte buffer into a FileSet. The buffer is
// retained by reference for the image stream; callers must not mutate it
// afterwards.
func Parse(data []byte) (*FileSet, error) {
	if len(data) < 4+4*6 {
		return nil, ErrTruncated
	}
	if string(data[0:4]) != magic {
		return nil, ErrBadMagic
	}
	r := &reader{buf: data, pos: 4}

	_ = r.u32() // version, unused for now
	flags := r.u32()
	imageDirCount := r.u32()
	jobCount := r.u32()
	directionCount := r.u32()
	frameCount := r.u32()
	imageStreamLength := r.u32()
	if r.err != nil {
		return nil, r.err
	}

	fs := &FileSet{HasDirections: flags&FlagHasDirections != 0}

	fs.imageDir = make([]ImageDirEntry, imageDirCount)
	for i := range fs.imageDir {
		fs.imageDir[i] = ImageDirEntry{Offset: r.u32(), ImageIndex: r.u32()}
	}

	fs.jobs = make([]JobEntry, jobCount)
	for i := range fs.jobs {
		off := r.u32()
		length := r.u32()
		fs.jobs[i] = JobEntry{DirOffset: off, DirLength: length, Absent: off == absentSentinel}
	}

	fs.directions = make([]DirectionEntry, directionCount)
	for i := range fs.directions {
		fs.directions[i] = DirectionEntry{FrameOffset: r.u32(), FrameLength: r.u32()}
	}

	fs.frames = make([]FrameEntry, frameCount)
	for i := range fs.frames {
		fs.frames[i] = FrameEntry{ImageDirIndex: r.u32()}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.pos+int(imageStreamLength) > len(data) {
		return nil, ErrTruncated
	}
	fs.imageData = data[r.pos : r.pos+int(imageStreamLength)]

	if err := fs.validate(); err != nil {
		return nil, err
	}

	return fs, nil
}

// validate checks the invariants of spec §3: every job/direction/frame
// reference must land inside its target table.
func (fs *FileSet) validate() error {
	for i, j := range fs.jobs {
		if j.Absent {
			continue
		}
		if uint64(j.DirOffset)+uint64(j.DirLength) > uint64(len(fs.directions)) {
			return fmt.Errorf("container: job %d direction range out of bounds", i)
		}
	}
	for i, d := range fs.directions {
		if uint64(d.FrameOffset)+uint64(d.FrameLength) > uint64(len(fs.frames)) {
			return fmt.Errorf("container: direction %d frame range out of bounds", i)
		}
	}
	for i, f := range fs.frames {
		if uint64(f.ImageDirIndex) >= uint64(len(fs.imageDir)) {
			return fmt.Errorf("container: frame %d image directory index out of bounds", i)
		}
	}
	return nil
}

// Job returns job table slot i. ok is false both for an out-of-range index
// and for a present-but-absent slot: both mean "no such sprite" to the
// caller (spec §4.1 edge case).
func (fs *FileSet) Job(i int) (JobEntry, bool) {
	if i < 0 || i >= len(fs.jobs) {
		return JobEntry{}, false
	}
	j := fs.jobs[i]
	if j.Absent {
		return JobEntry{}, false
	}
	return j, true
}

// Directions returns the subview [dirOff, dirOff+dirLen) of the direction
// table. It is a slice view, never a copy.
func (fs *FileSet) Directions(dirOff, dirLen uint32) ([]DirectionEntry, error) {
	end := uint64(dirOff) + uint64(dirLen)
	if end > uint64(len(fs.directions)) {
		return nil, ErrOutOfRange
	}
	return fs.directions[dirOff:end], nil
}

// Frames returns the subview [frameOff, frameOff+frameLen) of the frame
// table.
func (fs *FileSet) Frames(frameOff, frameLen uint32) ([]FrameEntry, error) {
	end := uint64(frameOff) + uint64(frameLen)
	if end > uint64(len(fs.frames)) {
		return nil, ErrOutOfRange
	}
	return fs.frames[frameOff:end], nil
}

// ImageOffset resolves an image-directory index (as referenced by a
// FrameEntry) to a byte offset into the image stream.
func (fs *FileSet) ImageOffset(imageDirIndex uint32) (uint32, bool) {
	if imageDirIndex >= uint32(len(fs.imageDir)) {
		return 0, false
	}
	return fs.imageDir[imageDirIndex].Offset, true
}

// ImageDirCount, DirectionCount and FrameCount report table sizes, mostly
// useful for validation and tests.
func (fs *FileSet) ImageDirCount() int { return len(fs.imageDir) }
func (fs *FileSet) DirectionCount() int { return len(fs.directions) }
func (fs *FileSet) FrameCount() int     { return len(fs.frames) }
func (fs *FileSet) JobCount() int       { return len(fs.jobs) }

// ReadImage decodes the payload header at byteOffset and returns a view
// over its body bytes. It fails if the header or body would read past the
// image stream.
func (fs *FileSet) ReadImage(byteOffset uint32) (*ImageHeader, error) {
	r := &reader{buf: fs.imageData, pos: int(byteOffset)}
	width := r.u16()
	height := r.u16()
	anchorLeft := r.i16()
	anchorTop := r.i16()
	encoding := r.u8()
	paletteGroupOffset := r.u16()
	bodyLength := r.u32()
	if r.err != nil {
		return nil, fmt.Errorf("container: read image header at %d: %w", byteOffset, r.err)
	}
	if r.pos+int(bodyLength) > len(fs.imageData) {
		return nil, ErrTruncated
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("container: image at %d has zero dimension", byteOffset)
	}
	return &ImageHeader{
		Width:              width,
		Height:             height,
		AnchorLeft:         anchorLeft,
		AnchorTop:          anchorTop,
		Encoding:            EncodingType(encoding),
		PaletteGroupOffset: paletteGroupOffset,
		Body:               fs.imageData[r.pos : r.pos+int(bodyLength)],
	}, nil
}

// reader is a small little-endian cursor over a byte slice, grounded on
// the manual binary.LittleEndian.Uint32 cursor style used by vox.go.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}
