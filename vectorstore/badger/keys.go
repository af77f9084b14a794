package badger

import (
	"encoding/binary"

	"github.com/sabela/consulta/core"
)

// Key layout, one namespace per collection:
//
//	col:<name>:m          collection metadata
//	col:<name>:p:<id>     point record, id in BigEndian so iteration order
//	                      follows ids
const (
	collectionPrefix = "col"
	metaSuffix       = "m"
	pointSuffix      = "p"
)

// collectionKeyPrefix covers every key of a collection, for DropPrefix.
func collectionKeyPrefix(collection string) []byte {
	return []byte(collectionPrefix + ":" + collection + ":")
}

// makeMetaKey generates the metadata key of a collection.
func makeMetaKey(collection string) []byte {
	return []byte(collectionPrefix + ":" + collection + ":" + metaSuffix)
}

// pointKeyPrefix covers every point key of a collection.
func pointKeyPrefix(collection string) []byte {
	return []byte(collectionPrefix + ":" + collection + ":" + pointSuffix + ":")
}

// makePointKey generates the key of a point by id.
func makePointKey(collection string, id core.ID) []byte {
	prefix := pointKeyPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
