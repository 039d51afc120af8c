package vault

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// The payload uses bincode's legacy layout so vaults written by earlier
// releases of the tool still decode: little-endian u64 lengths and counts,
// and a one-byte tag in front of optional values.

const (
	lenSize      = 8
	optAbsent    = 0
	optPresent   = 1
	minEntrySize = lenSize + 1 + 1
)

// Encode serializes s into the plaintext payload.
func Encode(s *Store) []byte {
	size := lenSize + len(s.Name) + lenSize
	for _, e := range s.Entries {
		size += lenSize + len(e.Name) + optSize(e.Username) + optSize(e.Password)
	}
	buf := make([]byte, 0, size)
	buf = appendString(buf, s.Name)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s.Entries)))
	for _, e := range s.Entries {
		buf = appendString(buf, e.Name)
		buf = appendOpt(buf, e.Username)
		buf = appendOpt(buf, e.Password)
	}
	return buf
}

func optSize(v *string) int {
	if v == nil {
		return 1
	}
	return 1 + lenSize + len(*v)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendOpt(buf []byte, v *string) []byte {
	if v == nil {
		return append(buf, optAbsent)
	}
	buf = append(buf, optPresent)
	return appendString(buf, *v)
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) readUint64() (uint64, error) {
	if d.remaining() < lenSize {
		return 0, errors.Errorf("truncated length at offset %d", d.off)
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += lenSize
	return v, nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUint64()
	if err != nil {
		return "", err
	}
	if n > uint64(d.remaining()) {
		return "", errors.Errorf("string of %d bytes overruns payload at offset %d", n, d.off)
	}
	raw := d.buf[d.off : d.off+int(n)]
	if !utf8.Valid(raw) {
		return "", errors.Errorf("invalid utf-8 string at offset %d", d.off)
	}
	d.off += int(n)
	return string(raw), nil
}

func (d *decoder) readOpt() (*string, error) {
	if d.remaining() < 1 {
		return nil, errors.Errorf("truncated option tag at offset %d", d.off)
	}
	tag := d.buf[d.off]
	d.off++
	switch tag {
	case optAbsent:
		return nil, nil
	case optPresent:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return &s, nil
	default:
		return nil, errors.Errorf("invalid option tag %d at offset %d", tag, d.off-1)
	}
}

func (d *decoder) readEntry() (Entry, error) {
	var e Entry
	var err error
	if e.Name, err = d.readString(); err != nil {
		return e, errors.Wrap(err, "entry name")
	}
	if e.Username, err = d.readOpt(); err != nil {
		return e, errors.Wrap(err, "entry username")
	}
	if e.Password, err = d.readOpt(); err != nil {
		return e, errors.Wrap(err, "entry password")
	}
	return e, nil
}

func (d *decoder) readStore() (*Store, error) {
	name, err := d.readString()
	if err != nil {
		return nil, errors.Wrap(err, "store name")
	}
	count, err := d.readUint64()
	if err != nil {
		return nil, errors.Wrap(err, "entry count")
	}
	if count > uint64(d.remaining()/minEntrySize) {
		return nil, errors.Errorf("entry count %d exceeds payload size", count)
	}
	s := &Store{Name: name, Entries: make([]Entry, 0, count)}
	for i := uint64(0); i < count; i++ {
		e, err := d.readEntry()
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		s.Entries = append(s.Entries, e)
	}
	if d.remaining() != 0 {
		return nil, errors.Errorf("%d trailing bytes after store", d.remaining())
	}
	return s, nil
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (*Store, error) {
	d := &decoder{buf: data}
	s, err := d.readStore()
	if err != nil {
		return nil, newError("decode", ErrMalformedPayload, err)
	}
	return s, nil
}
