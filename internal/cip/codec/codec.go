// Package codec holds the byte-level primitives shared by the CIP and
// EtherNet/IP layers: owned buffers, a reserve/patch writer and a
// bounds-checked reader. All multi-byte values are little-endian.
package codec

import "encoding/binary"

// ByteOrder is the on-wire byte order for CIP and EtherNet/IP.
var ByteOrder = binary.LittleEndian

// AppendUint16 appends a little-endian uint16 to dst.
func AppendUint16(dst []byte, value uint16) []byte {
	return ByteOrder.AppendUint16(dst, value)
}

// AppendUint32 appends a little-endian uint32 to dst.
func AppendUint32(dst []byte, value uint32) []byte {
	return ByteOrder.AppendUint32(dst, value)
}

// PutUint16 writes a little-endian uint16 into dst[0:2].
func PutUint16(dst []byte, value uint16) {
	ByteOrder.PutUint16(dst, value)
}

// PutUint32 writes a little-endian uint32 into dst[0:4].
func PutUint32(dst []byte, value uint32) {
	ByteOrder.PutUint32(dst, value)
}
