package badger

import (
	"encoding/binary"
)

const (
	entryPrefix = "logent:"
	orderPrefix = "logord:"
	entrySeq    = "logseq"
)

// makeEntryKey generates the key holding an entry, by ID.
// Format: prefix + id
func makeEntryKey(id string) []byte {
	buf := make([]byte, 0, len(entryPrefix)+len(id))
	buf = append(buf, entryPrefix...)
	return append(buf, id...)
}

// makeOrderKey generates the insertion-order index key for a sequence number.
// Format: prefix + seq (8 bytes BigEndian, so lexicographic order is numeric order)
func makeOrderKey(seq uint64) []byte {
	buf := make([]byte, len(orderPrefix)+8)
	offset := copy(buf, orderPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
