package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
)

// renderOutcome prints the verdict line of a reply and, when it failed, the
// preserved status words.
func renderOutcome[T any](w io.Writer, st styles, name string, out service.Outcome[T]) {
	fmt.Fprintf(w, "%s %s\n", st.verdict(out.Verdict), st.title.Render(name))
	if out.Status == nil {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", st.label.Render("general status:"), st.status(out.Status.General))
	if len(out.Status.Additional) > 0 {
		words := make([]string, len(out.Status.Additional))
		for i, word := range out.Status.Additional {
			words[i] = fmt.Sprintf("0x%04X", word)
		}
		fmt.Fprintf(w, "  %s %s\n", st.label.Render("additional status:"), strings.Join(words, " "))
	}
}

// renderAttributes prints one line per attribute; names come from cls when
// the class is cataloged.
func renderAttributes(w io.Writer, st styles, attrs []service.Attribute, cls *catalog.Class) {
	for _, attr := range attrs {
		name := ""
		if cls != nil {
			if a, ok := cls.Attribute(attr.ID); ok {
				name = a.Name
			}
		}
		line := fmt.Sprintf("  attr 0x%02X %-34s", attr.ID, name)
		if attr.Status != 0 {
			fmt.Fprintf(w, "%s %s\n", line, st.status(protocol.GeneralStatus(attr.Status)))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", line, hex.EncodeToString(attr.Data), st.dim.Render(littleEndianValue(attr.Data)))
	}
}

func renderTagData(w io.Writer, st styles, data service.TagData) {
	fmt.Fprintf(w, "  %s %s", st.label.Render("type:"), protocol.CIPTypeName(data.Type))
	if data.Type == protocol.CIPTypeStruct {
		fmt.Fprintf(w, " handle 0x%04X", data.StructHandle)
	}
	fmt.Fprintf(w, "\n  %s %d bytes\n", st.label.Render("data:"), len(data.Data))
}

func renderBytes(w io.Writer, st styles, label string, data []byte) {
	fmt.Fprintf(w, "  %s %s\n", st.label.Render(label), hex.EncodeToString(data))
}

// littleEndianValue shows 1, 2 and 4 byte values as unsigned integers.
func littleEndianValue(data []byte) string {
	var v uint64
	switch len(data) {
	case 1, 2, 4:
		for i := len(data) - 1; i >= 0; i-- {
			v = v<<8 | uint64(data[i])
		}
		return fmt.Sprintf("(%d)", v)
	}
	return ""
}
