package codec

import "fmt"

// Mark is the position of a reserved placeholder in a Writer.
type Mark int

// Writer is a growable output buffer with a reserve-then-patch primitive
// for length prefixes whose value is only known after the payload is written.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = AppendUint16(w.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = AppendUint32(w.buf, v)
}

// Write appends p. It never fails and satisfies io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteBuffer appends the contents of b and releases it.
func (w *Writer) WriteBuffer(b *Buffer) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	w.buf = append(w.buf, data...)
	b.Release()
	return nil
}

// Reserve16 writes a zero uint16 placeholder and returns its position.
func (w *Writer) Reserve16() Mark {
	m := Mark(len(w.buf))
	w.buf = append(w.buf, 0, 0)
	return m
}

// Since returns the number of bytes written after the placeholder at m.
func (w *Writer) Since(m Mark) int {
	return len(w.buf) - int(m) - 2
}

// Patch16 overwrites the placeholder at m with v.
func (w *Writer) Patch16(m Mark, v uint16) {
	if int(m)+2 > len(w.buf) {
		panic(fmt.Sprintf("codec: patch mark %d outside written range %d", m, len(w.buf)))
	}
	PutUint16(w.buf[m:], v)
}

// PatchLength16 backpatches the placeholder at m with the byte count written
// since it. Counts above 65535 cannot be represented and are rejected.
func (w *Writer) PatchLength16(m Mark) error {
	n := w.Since(m)
	if n > 0xFFFF {
		return fmt.Errorf("length %d exceeds 16-bit length field", n)
	}
	w.Patch16(m, uint16(n))
	return nil
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Truncate discards everything written after the first n bytes.
func (w *Writer) Truncate(n int) {
	if n < 0 || n > len(w.buf) {
		panic(fmt.Sprintf("codec: truncate to %d outside written range %d", n, len(w.buf)))
	}
	w.buf = w.buf[:n]
}

// Bytes returns the written bytes. The slice aliases the Writer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Buffer hands the written bytes to a new Buffer and resets the Writer.
func (w *Writer) Buffer() *Buffer {
	b := NewBuffer(w.buf)
	w.buf = nil
	return b
}
