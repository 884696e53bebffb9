package collection

import "strconv"

// Key prefixes (spec §6.3). Stable across restarts: changing these
// orphans every key already persisted under the old prefix.
const (
	NextSeqPrefix = "$NS"
	MetaPrefix    = "$CM"
	DocIDPrefix   = "$DI"
	SeqIDPrefix   = "$SI"
)

func nextSeqKey(name string) []byte {
	return []byte(NextSeqPrefix + "_" + name)
}

func metaKey(name string) []byte {
	return []byte(MetaPrefix + "_" + name)
}

func docIDKey(collectionID uint32, docID string) []byte {
	return []byte(strconv.FormatUint(uint64(collectionID), 10) + "_" + DocIDPrefix + "_" + docID)
}

// seqIDKey builds the seq-id record key. The seq-id suffix is four raw
// big-endian bytes, not a decimal string, so an ascending range scan over
// these keys yields documents in seq-id order.
func seqIDKey(collectionID uint32, seqID uint32) []byte {
	prefix := []byte(strconv.FormatUint(uint64(collectionID), 10) + "_" + SeqIDPrefix + "_")
	return append(prefix, encodeSeqID(seqID)...)
}

func encodeSeqID(seqID uint32) []byte {
	return []byte{
		byte(seqID >> 24),
		byte(seqID >> 16),
		byte(seqID >> 8),
		byte(seqID),
	}
}

// decodeSeqID is the inverse of encodeSeqID.
func decodeSeqID(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
