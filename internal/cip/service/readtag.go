package service

import (
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/spec"
)

// TagData is a Logix tag value.
type TagData struct {
	Type protocol.CIPDataType
	// StructHandle is set when Type is CIPTypeStruct.
	StructHandle uint16
	Data         []byte
}

// ReadTagFragmented reads a tag whose value may not fit one reply. The
// device answers with general status 0x06 until the last fragment.
type ReadTagFragmented struct {
	path     []byte
	elements uint16
	start    uint32
	offset   uint32
}

// NewReadTagFragmented reads elements starting at byte offset start.
func NewReadTagFragmented(path []byte, elements uint16, start uint32) (*ReadTagFragmented, error) {
	code := spec.CIPServiceReadTagFragmented
	if len(path) == 0 {
		return nil, contractf(code, "empty tag path")
	}
	if elements == 0 {
		return nil, contractf(code, "element count must be positive")
	}
	return &ReadTagFragmented{
		path:     append([]byte(nil), path...),
		elements: elements,
		start:    start,
		offset:   start,
	}, nil
}

func (s *ReadTagFragmented) Code() protocol.ServiceCode { return spec.CIPServiceReadTagFragmented }
func (s *ReadTagFragmented) Path() []byte               { return s.path }

// Offset is the byte offset this request asks for.
func (s *ReadTagFragmented) Offset() uint32 { return s.offset }

// EncodeRequest writes elements:u16 and offset:u32.
func (s *ReadTagFragmented) EncodeRequest(w *codec.Writer) error {
	w.WriteUint16(s.elements)
	w.WriteUint32(s.offset)
	return nil
}

func (s *ReadTagFragmented) DecodeResponse(body *codec.Buffer) (TagData, error) {
	return decodeTagData(body)
}

func (s *ReadTagFragmented) DecodePartial(body *codec.Buffer) (TagData, error) {
	return decodeTagData(body)
}

// Next asks for the bytes after everything received so far.
func (s *ReadTagFragmented) Next(received TagData) Fragmented[TagData] {
	next := *s
	next.offset = s.start + uint32(len(received.Data))
	return &next
}

// Merge appends part's data to acc. The type of the first fragment wins.
func (s *ReadTagFragmented) Merge(acc, part TagData) TagData {
	if acc.Type == 0 && len(acc.Data) == 0 {
		acc.Type = part.Type
		acc.StructHandle = part.StructHandle
	}
	data := make([]byte, 0, len(acc.Data)+len(part.Data))
	data = append(data, acc.Data...)
	data = append(data, part.Data...)
	acc.Data = data
	return acc
}

func decodeTagData(body *codec.Buffer) (TagData, error) {
	var out TagData
	defer body.Release()
	raw, err := body.Bytes()
	if err != nil {
		return out, err
	}
	r := codec.NewReader(raw)
	dt, err := r.Uint16("tag data type")
	if err != nil {
		return out, err
	}
	out.Type = protocol.CIPDataType(dt)
	if out.Type == protocol.CIPTypeStruct {
		if out.StructHandle, err = r.Uint16("structure handle"); err != nil {
			return out, err
		}
	}
	out.Data, err = r.CopyN("tag data", r.Remaining())
	return out, err
}
