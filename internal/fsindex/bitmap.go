package fsindex

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is the compressed, word-aligned run-length set of entry
// positions spec.md §3 calls out as an external collaborator. We back it
// directly with RoaringBitmap rather than inventing our own codec.
type Bitmap struct {
	rb *roaring.Bitmap
}

// NewBitmap returns an empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Set marks position i dirty.
func (b *Bitmap) Set(i int) {
	b.rb.Add(uint32(i))
}

// IsSet reports whether position i is set.
func (b *Bitmap) IsSet(i int) bool {
	return b.rb.Contains(uint32(i))
}

// BitSize returns one past the highest set bit, or 0 if empty. This
// mirrors the "size" spec.md's invariant compares against index.count():
// the bitmap must not claim a position beyond the live index.
func (b *Bitmap) BitSize() int {
	if b.rb.IsEmpty() {
		return 0
	}
	return int(b.rb.Maximum()) + 1
}

// ForEachSet invokes cb for every set bit position in ascending order.
func (b *Bitmap) ForEachSet(cb func(pos int)) {
	it := b.rb.Iterator()
	for it.HasNext() {
		cb(int(it.Next()))
	}
}

// Serialize appends the bitmap's portable encoding to out.
func (b *Bitmap) Serialize(out *bytes.Buffer) error {
	_, err := b.rb.WriteTo(out)
	return err
}

// ReadBitmap decodes exactly expectedBytes from buf, returning the bitmap
// and an error if the decoder consumed a different number of bytes than
// advertised — the bit-exact "bitmap parse" check spec.md §4.1 requires.
func ReadBitmap(buf []byte, expectedBytes int) (*Bitmap, error) {
	if len(buf) < expectedBytes {
		return nil, fmt.Errorf("truncated bitmap: want %d bytes, have %d", expectedBytes, len(buf))
	}
	rb := roaring.New()
	n, err := rb.ReadFrom(bytes.NewReader(buf[:expectedBytes]))
	if err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}
	if int(n) != expectedBytes {
		return nil, fmt.Errorf("bitmap consumed %d bytes, expected %d", n, expectedBytes)
	}
	return &Bitmap{rb: rb}, nil
}
