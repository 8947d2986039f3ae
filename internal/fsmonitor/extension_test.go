package fsmonitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

func newTestIndex(names ...string) *fsindex.Index {
	entries := make([]*fsindex.Entry, len(names))
	for i, n := range names {
		entries[i] = &fsindex.Entry{Name: n}
	}
	return &fsindex.Index{Entries: entries}
}

func TestCodec_StoreLoad_RoundTrip(t *testing.T) {
	ix := newTestIndex("a", "b", "c")
	ix.Entries[1].SetClean()
	tok := "123456789"
	ix.FSM.LastToken = &tok

	codec := NewCodec()

	var buf bytes.Buffer
	require.NoError(t, codec.Store(ix, &buf))

	loaded := &fsindex.Index{Entries: []*fsindex.Entry{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}}
	require.NoError(t, codec.Load(loaded, buf.Bytes()))

	require.NotNil(t, loaded.FSM.LastToken)
	assert.Equal(t, tok, *loaded.FSM.LastToken)
	require.NotNil(t, loaded.FSM.DirtyBitmap)
	assert.True(t, loaded.FSM.DirtyBitmap.IsSet(0))
	assert.False(t, loaded.FSM.DirtyBitmap.IsSet(1))
	assert.True(t, loaded.FSM.DirtyBitmap.IsSet(2))
}

func TestCodec_Store_SkipsRemovedEntries(t *testing.T) {
	ix := newTestIndex("a", "b", "c")
	ix.Entries[0].Flags |= fsindex.FlagRemoved // removed, not counted
	ix.Entries[1].SetClean()                   // clean, no bit
	// c is dirty and is the only surviving, non-clean entry; once the
	// removed entry is skipped, b holds compacted position 0 and c holds 1.

	bitmap := FillDirtyBitmap(ix)
	assert.True(t, bitmap.IsSet(1))
	assert.Equal(t, 2, bitmap.BitSize())
}

func TestCodec_Load_RejectsTooShort(t *testing.T) {
	ix := newTestIndex("a")
	codec := NewCodec()
	err := codec.Load(ix, []byte{0, 0})
	assert.Error(t, err)
}

func TestCodec_Load_RejectsUnknownVersion(t *testing.T) {
	ix := newTestIndex("a")
	codec := NewCodec()

	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 9}) // version 9
	buf.WriteString("tok")
	buf.WriteByte(0)
	buf.Write([]byte{0, 0, 0, 0}) // zero-length bitmap

	err := codec.Load(ix, buf.Bytes())
	assert.Error(t, err)
}

func TestCodec_Load_PanicsOnOversizedBitmap(t *testing.T) {
	ix := newTestIndex("a") // a single-entry index

	oversized := fsindex.NewBitmap()
	oversized.Set(5) // far beyond the one entry present

	var bitmapBuf bytes.Buffer
	require.NoError(t, oversized.Serialize(&bitmapBuf))

	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 2}) // version 2
	buf.WriteString("tok")
	buf.WriteByte(0)
	lenBuf := make([]byte, 4)
	lenBuf[3] = byte(bitmapBuf.Len())
	buf.Write(lenBuf)
	buf.Write(bitmapBuf.Bytes())

	assert.Panics(t, func() {
		_ = NewCodec().Load(ix, buf.Bytes())
	})
}
