package dirnotify

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Action is the kind of change carried by a record. Values match the
// FILE_ACTION_* constants.
type Action uint32

const (
	ActionAdded          Action = 1
	ActionRemoved        Action = 2
	ActionModified       Action = 3
	ActionRenamedOldName Action = 4
	ActionRenamedNewName Action = 5
)

// Present reports whether the named file exists after this change.
func (a Action) Present() bool {
	switch a {
	case ActionAdded, ActionModified, ActionRenamedNewName:
		return true
	default:
		return false
	}
}

func (a Action) String() string {
	switch a {
	case ActionAdded:
		return "added"
	case ActionRemoved:
		return "removed"
	case ActionModified:
		return "modified"
	case ActionRenamedOldName:
		return "renamed-from"
	case ActionRenamedNewName:
		return "renamed-to"
	default:
		return fmt.Sprintf("action(%d)", uint32(a))
	}
}

// Record is one decoded change.
type Record struct {
	Name   string
	Action Action
}

// Record layout: NextEntryOffset, Action and FileNameLength as little endian
// uint32 followed by FileNameLength bytes of UTF-16LE, no terminator.
const (
	headerSize   = 12
	recordAlign  = 4
	offsetNext   = 0
	offsetAction = 4
	offsetLength = 8
)

// HeaderSize is the smallest number of bytes a completion must carry to hold
// one record.
const HeaderSize = headerSize

// RecordIterator walks a packed record buffer by following each record's next
// offset until a zero offset ends the chain. Records whose name runs past the
// buffer are skipped; a broken chain stops the walk and is reported by Err.
type RecordIterator struct {
	buf     []byte
	off     int
	done    bool
	skipped int
	err     error
}

// NewRecordIterator returns an iterator over buf. The iterator reads buf in
// place; callers that re-arm a channel must hand it a copy.
func NewRecordIterator(buf []byte) *RecordIterator {
	return &RecordIterator{buf: buf, done: len(buf) == 0}
}

// Next returns the next well-formed record.
func (it *RecordIterator) Next() (Record, bool) {
	for !it.done {
		off := it.off
		if len(it.buf)-off < headerSize {
			it.fail(fmt.Errorf("%w: truncated header at offset %d", ErrMalformedRecord, off))
			return Record{}, false
		}

		next := binary.LittleEndian.Uint32(it.buf[off+offsetNext:])
		action := Action(binary.LittleEndian.Uint32(it.buf[off+offsetAction:]))
		nameLen := binary.LittleEndian.Uint32(it.buf[off+offsetLength:])

		rec, ok := it.decodeName(off, nameLen, action)
		it.advance(off, next)
		if ok {
			return rec, true
		}
		it.skipped++
	}
	return Record{}, false
}

// Skipped returns the number of malformed records skipped so far.
func (it *RecordIterator) Skipped() int {
	return it.skipped
}

// Err reports why the walk stopped early, or nil when the chain terminated
// normally.
func (it *RecordIterator) Err() error {
	return it.err
}

func (it *RecordIterator) decodeName(off int, nameLen uint32, action Action) (Record, bool) {
	start := off + headerSize
	if nameLen%2 != 0 || uint64(nameLen) > uint64(len(it.buf)-start) {
		return Record{}, false
	}
	raw := it.buf[start : start+int(nameLen)]
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return Record{Name: string(utf16.Decode(units)), Action: action}, true
}

func (it *RecordIterator) advance(off int, next uint32) {
	if next == 0 {
		it.done = true
		return
	}
	if next < headerSize || uint64(next) >= uint64(len(it.buf)-off) {
		it.fail(fmt.Errorf("%w: next offset %d out of range at offset %d", ErrMalformedRecord, next, off))
		return
	}
	it.off = off + int(next)
}

func (it *RecordIterator) fail(err error) {
	it.done = true
	it.err = err
}

// DecodeRecords collects every well-formed record in buf.
func DecodeRecords(buf []byte) ([]Record, error) {
	it := NewRecordIterator(buf)
	var out []Record
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out, it.Err()
}

// EncodedSize returns the number of bytes rec occupies when appended.
func EncodedSize(rec Record) int {
	size := headerSize + 2*len(utf16.Encode([]rune(rec.Name)))
	if rem := size % recordAlign; rem != 0 {
		size += recordAlign - rem
	}
	return size
}

// AppendRecords encodes records onto dst in the packed layout and returns the
// extended slice. The last record's next offset is zero.
func AppendRecords(dst []byte, records ...Record) []byte {
	for i, rec := range records {
		units := utf16.Encode([]rune(rec.Name))
		size := EncodedSize(rec)

		var next uint32
		if i < len(records)-1 {
			next = uint32(size)
		}

		start := len(dst)
		dst = append(dst, make([]byte, size)...)
		entry := dst[start:]
		binary.LittleEndian.PutUint32(entry[offsetNext:], next)
		binary.LittleEndian.PutUint32(entry[offsetAction:], uint32(rec.Action))
		binary.LittleEndian.PutUint32(entry[offsetLength:], uint32(2*len(units)))
		for j, u := range units {
			binary.LittleEndian.PutUint16(entry[headerSize+2*j:], u)
		}
	}
	return dst
}

func readNext(entry []byte) uint32 {
	return binary.LittleEndian.Uint32(entry[offsetNext:])
}

func putNext(entry []byte, next uint32) {
	binary.LittleEndian.PutUint32(entry[offsetNext:], next)
}
