// Package fsmonitor implements the FSM integration core: the on-disk
// extension codec, the oracle client, the path invalidator, the refresh
// engine and the enable/disable/reconcile lifecycle described by the
// filesystem-monitor integration specification this module implements.
package fsmonitor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
	pkgerrors "github.com/fsmonitor/fsmcore/pkg/errors"
)

const (
	extensionVersion1 = 1
	extensionVersion2 = 2

	// minExtensionLen is the smallest legal extension: a u32 version, at
	// least one byte of token, and a u32 bitmap length.
	minExtensionLen = 4 + 1 + 4
)

// Codec decodes and encodes the persistent FSM extension blob attached to
// an on-disk index.
type Codec struct{}

// NewCodec returns a Codec. It carries no state; it exists as a value so
// call sites read like the rest of the component surface
// (codec.Load(...), codec.Store(...)).
func NewCodec() *Codec { return &Codec{} }

// Load decodes buf into ix's FsmState, per spec.md §4.1. On success,
// ix.FSM.LastToken and ix.FSM.DirtyBitmap are installed; ix.FSM.HasRunOnce
// is left untouched (load does not count as a refresh).
func (Codec) Load(ix *fsindex.Index, buf []byte) error {
	if len(buf) < minExtensionLen {
		return pkgerrors.NewCorruptError("fsmonitor extension too short", nil)
	}

	version := binary.BigEndian.Uint32(buf[0:4])
	off := 4

	var token string
	switch version {
	case extensionVersion1:
		if len(buf) < off+8+4 {
			return pkgerrors.NewCorruptError("fsmonitor extension too short", nil)
		}
		nanos := binary.BigEndian.Uint64(buf[off : off+8])
		token = strconv.FormatUint(nanos, 10)
		off += 8
	case extensionVersion2:
		nul := bytes.IndexByte(buf[off:], 0)
		if nul < 0 {
			return pkgerrors.NewCorruptError("fsmonitor extension missing token terminator", nil)
		}
		token = string(buf[off : off+nul])
		off += nul + 1
	default:
		return pkgerrors.NewCorruptError(fmt.Sprintf("bad fsmonitor extension version %d", version), nil)
	}

	if len(buf) < off+4 {
		return pkgerrors.NewCorruptError("fsmonitor extension too short", nil)
	}
	bitmapBytes := int(binary.BigEndian.Uint32(buf[off : off+4]))
	off += 4

	if len(buf) < off+bitmapBytes {
		return pkgerrors.NewCorruptError("fsmonitor extension bitmap truncated", nil)
	}
	bitmap, err := fsindex.ReadBitmap(buf[off:], bitmapBytes)
	if err != nil {
		return pkgerrors.NewCorruptError("fsmonitor extension bitmap parse failed", err)
	}

	assertBitmapWithinIndex(bitmap, ix)

	ix.FSM.LastToken = &token
	ix.FSM.DirtyBitmap = bitmap
	return nil
}

// assertBitmapWithinIndex enforces spec.md §3's invariant that
// dirty_bitmap.bit_size() <= index.count() whenever the index is not a
// split index. This repository does not model split-index composition
// (an explicit Non-goal), so the ordinary bound always applies; violating
// it is the InvariantViolation error kind, which is fatal by policy
// (spec.md §7), not a recoverable error.
func assertBitmapWithinIndex(bitmap *fsindex.Bitmap, ix *fsindex.Index) {
	if bitmap.BitSize() > ix.Count() {
		err := pkgerrors.NewInvariantViolation(fmt.Sprintf(
			"fsmonitor dirty bitmap size %d exceeds index entry count %d",
			bitmap.BitSize(), ix.Count()))
		panic(err)
	}
}

// Store always emits a version-2 blob, per spec.md §4.1: token written
// NUL-terminated, followed by the bitmap length and payload.
func (Codec) Store(ix *fsindex.Index, out *bytes.Buffer) error {
	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], extensionVersion2)
	out.Write(versionBuf[:])

	token := ""
	if ix.FSM.LastToken != nil {
		token = *ix.FSM.LastToken
	}
	out.WriteString(token)
	out.WriteByte(0)

	lenOffset := out.Len()
	var lenPlaceholder [4]byte
	out.Write(lenPlaceholder[:])

	bitmap := FillDirtyBitmap(ix)
	bitmapStart := out.Len()
	if err := bitmap.Serialize(out); err != nil {
		return fmt.Errorf("serialize fsmonitor bitmap: %w", err)
	}
	bitmapLen := out.Len() - bitmapStart

	encoded := out.Bytes()
	binary.BigEndian.PutUint32(encoded[lenOffset:lenOffset+4], uint32(bitmapLen))
	return nil
}

// FillDirtyBitmap recomputes the dirty bitmap to write from the live
// entries, per spec.md §4.1: REMOVED entries are skipped (and do not
// consume a bitmap position), and any entry whose CLEAN bit is not set
// gets its compacted position set.
func FillDirtyBitmap(ix *fsindex.Index) *fsindex.Bitmap {
	bitmap := fsindex.NewBitmap()
	skipped := 0
	for i, e := range ix.Entries {
		if e.IsRemoved() {
			skipped++
			continue
		}
		if !e.IsClean() {
			bitmap.Set(i - skipped)
		}
	}
	return bitmap
}
