package term

import "unicode/utf8"

// StripControl removes ANSI/C1 escape sequences and control bytes from raw
// terminal output, leaving the literal visible characters in order. It
// handles CSI (ESC [ ... final), OSC (ESC ] ... BEL or ST), DCS/SOS/PM/APC
// (through ST), other ESC-introduced sequences, and lone C0/C1 control
// bytes. Newlines and tabs survive; CR is dropped so CRLF normalizes to LF.
func StripControl(p []byte) []byte {
	out := make([]byte, 0, len(p))

	for i := 0; i < len(p); {
		b := p[i]

		if b == 0x1b {
			i = skipEscape(p, i+1)
			continue
		}

		if b == '\n' || b == '\t' {
			out = append(out, b)
			i++
			continue
		}
		if b < 0x20 || b == 0x7f {
			i++
			continue
		}
		if b < utf8.RuneSelf {
			out = append(out, b)
			i++
			continue
		}

		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size == 1 {
			// Raw C1 control byte or invalid encoding.
			i++
			continue
		}
		if r >= 0x80 && r <= 0x9f {
			// UTF-8 encoded C1 control.
			i += size
			continue
		}
		out = append(out, p[i:i+size]...)
		i += size
	}

	return out
}

// skipEscape consumes one escape sequence starting just after ESC and
// returns the index of the next unconsumed byte.
func skipEscape(p []byte, i int) int {
	if i >= len(p) {
		return i
	}

	switch p[i] {
	case '[':
		// CSI: parameter bytes 0x30-0x3f, intermediates 0x20-0x2f,
		// one final byte 0x40-0x7e.
		i++
		for i < len(p) && p[i] >= 0x20 && p[i] <= 0x3f {
			i++
		}
		if i < len(p) {
			i++
		}
		return i
	case ']':
		// OSC: terminated by BEL or ST (ESC \).
		return skipUntilST(p, i+1)
	case 'P', 'X', '^', '_':
		// DCS, SOS, PM, APC: terminated by ST.
		return skipUntilST(p, i+1)
	default:
		// ESC with intermediates and a single final byte,
		// e.g. charset designation ESC ( B.
		for i < len(p) && p[i] >= 0x20 && p[i] <= 0x2f {
			i++
		}
		if i < len(p) {
			i++
		}
		return i
	}
}

func skipUntilST(p []byte, i int) int {
	for i < len(p) {
		if p[i] == 0x07 {
			return i + 1
		}
		if p[i] == 0x1b && i+1 < len(p) && p[i+1] == '\\' {
			return i + 2
		}
		i++
	}
	return i
}
