package codec

import (
	"bytes"
	"encoding/hex"
)

// Buffer is a single-owner byte sequence.
//
// Handing a *Buffer to an encode function transfers ownership: the encoder
// releases it after writing, and any later use reports ErrReleased. Buffers
// returned by decode functions never alias the input they were read from.
type Buffer struct {
	data     []byte
	released bool
}

// NewBuffer takes ownership of data. The caller must not modify data afterwards.
func NewBuffer(data []byte) *Buffer {
	if data == nil {
		data = []byte{}
	}
	return &Buffer{data: data}
}

// CopyBuffer returns a buffer holding a private copy of data.
func CopyBuffer(data []byte) *Buffer {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Buffer{data: owned}
}

// EmptyBuffer returns a zero-length, non-nil buffer.
func EmptyBuffer() *Buffer {
	return &Buffer{data: []byte{}}
}

// Bytes returns the buffer contents. The slice stays valid until Release.
func (b *Buffer) Bytes() ([]byte, error) {
	if b == nil {
		return []byte{}, nil
	}
	if b.released {
		return nil, ErrReleased
	}
	return b.data, nil
}

// Len returns the number of bytes held, or 0 once released.
func (b *Buffer) Len() int {
	if b == nil || b.released {
		return 0
	}
	return len(b.data)
}

// Release drops the contents. Releasing twice is a no-op.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	b.data = nil
	b.released = true
}

// Released reports whether ownership of the contents has been given up.
func (b *Buffer) Released() bool {
	return b != nil && b.released
}

// Clone returns an independent copy.
func (b *Buffer) Clone() (*Buffer, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return CopyBuffer(data), nil
}

// Take copies the contents out and releases the buffer.
func (b *Buffer) Take() ([]byte, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	b.Release()
	return out, nil
}

// Equal reports byte-for-byte equality. A released buffer equals nothing.
func (b *Buffer) Equal(other *Buffer) bool {
	left, err := b.Bytes()
	if err != nil {
		return false
	}
	right, err := other.Bytes()
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func (b *Buffer) String() string {
	if b.Released() {
		return "<released>"
	}
	data, _ := b.Bytes()
	return hex.EncodeToString(data)
}
