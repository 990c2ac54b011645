package codec

// Reader performs bounds-checked little-endian reads over a byte slice.
// A failed read leaves the offset unchanged.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) need(field string, n int) error {
	if n < 0 || r.Remaining() < n {
		return &ShortError{Field: field, Offset: r.off, Need: n, Have: r.Remaining()}
	}
	return nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8(field string) (uint8, error) {
	if err := r.need(field, 1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16(field string) (uint16, error) {
	if err := r.need(field, 2); err != nil {
		return 0, err
	}
	v := ByteOrder.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32(field string) (uint32, error) {
	if err := r.need(field, 4); err != nil {
		return 0, err
	}
	v := ByteOrder.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// Next returns a view of the next n bytes. The view aliases the input.
func (r *Reader) Next(field string, n int) ([]byte, error) {
	if err := r.need(field, n); err != nil {
		return nil, err
	}
	v := r.data[r.off : r.off+n : r.off+n]
	r.off += n
	return v, nil
}

// CopyN returns an owned copy of the next n bytes.
func (r *Reader) CopyN(field string, n int) ([]byte, error) {
	v, err := r.Next(field, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, v)
	return out, nil
}

// Rest returns a view of all unread bytes and consumes them.
func (r *Reader) Rest() []byte {
	v := r.data[r.off:len(r.data):len(r.data)]
	r.off = len(r.data)
	return v
}
