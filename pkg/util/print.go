package util

import (
	"fmt"
	"io"
)

// ToPrintableString replaces every byte outside printable ASCII with '.'.
func ToPrintableString(b []byte) string {
	buf := make([]byte, len(b))
	for i, c := range b {
		if c < 32 || c > 126 {
			buf[i] = '.'
		} else {
			buf[i] = c
		}
	}
	return string(buf)
}

func ToPrintableAndHexString(data []byte) string {
	return fmt.Sprintf("%s [%X]", ToPrintableString(data), data)
}

// WriteHexDump writes data as offset, 16 hex bytes and their printable form
// per line.
func WriteHexDump(w io.Writer, data []byte) {
	for start := 0; start < len(data); start += 16 {
		end := start + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(w, "%08X ", start)
		for i := start; i < start+16; i++ {
			if i < end {
				fmt.Fprintf(w, " %02X", data[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprintf(w, "  |%s|\n", ToPrintableString(data[start:end]))
	}
}
