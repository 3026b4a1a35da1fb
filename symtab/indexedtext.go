package symtab

import "fmt"

// TextBlob is the on-disk-equivalent encoding of an indexed text table: a
// contiguous byte buffer of length-prefixed records, `len_byte (1..255) ||
// bytes`, terminated by a zero length byte. Kept byte-for-byte identical to
// the original decoder's layout so compiler output and decoder input can be
// diffed in round-trip tests.
type TextBlob struct {
	buf []byte
}

// NewTextBlob builds a blob from an ordered list of records. A terminating
// zero byte is always appended, matching the original encoder.
func NewTextBlob(records []string) (*TextBlob, error) {
	b := &TextBlob{}
	for _, r := range records {
		if len(r) == 0 || len(r) > 255 {
			return nil, fmt.Errorf("indexed text record length %d out of range [1,255]", len(r))
		}
		b.buf = append(b.buf, byte(len(r)))
		b.buf = append(b.buf, r...)
	}
	b.buf = append(b.buf, 0)
	if len(records) < 2 {
		return nil, fmt.Errorf("indexed text table requires at least 2 records, got %d", len(records))
	}
	return b, nil
}

// Bytes returns the raw blob.
func (b *TextBlob) Bytes() []byte {
	return b.buf
}

// Len reports the number of records in the blob.
func (b *TextBlob) Len() int {
	n := 0
	for off := 0; off < len(b.buf); {
		l := int(b.buf[off])
		if l == 0 {
			break
		}
		off += 1 + l
		n++
	}
	return n
}

// Lookup returns the zero-based ordinal-th record, clamping to the last
// record when ordinal is out of range (the required "out-of-range clamps
// to the last entry" behavior, §4.6).
func (b *TextBlob) Lookup(ordinal uint64) (string, error) {
	var last string
	haveAny := false
	idx := uint64(0)
	for off := 0; off < len(b.buf); {
		l := int(b.buf[off])
		if l == 0 {
			break
		}
		rec := string(b.buf[off+1 : off+1+l])
		if idx == ordinal {
			return rec, nil
		}
		last = rec
		haveAny = true
		idx++
		off += 1 + l
	}
	if !haveAny {
		return "", fmt.Errorf("indexed text table is empty")
	}
	return last, nil
}
