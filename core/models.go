package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is the stable identifier of an article. Point ids in the vector store
// are always the source article id, so re-ingestion is idempotent and
// article lookups never depend on a run-specific mapping.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b
// hashing. Identical content always produces identical IDs. Serving uses it
// to derive content fingerprints such as article ETags.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Article is a source-of-truth row from the FAQ spreadsheet. It is read-only;
// the system never mutates source data, and re-ingestion fully replaces the
// derived index.
type Article struct {
	ID        ID
	Pregunta  string // raw HTML question
	Respuesta string // raw HTML answer
	Grupo     int
	Tema      string
	Obsoleto  string // non-empty marks the row obsolete
	Revisado  string // "s" marks the row approved
}

// ReviewedSentinel is the exact marker the source data uses for approved
// rows. It must be preserved bit-for-bit.
const ReviewedSentinel = "s"

// Eligible reports whether the article may be ingested: not obsolete and
// explicitly approved.
func (a *Article) Eligible() bool {
	return a.Obsoleto == "" && a.Revisado == ReviewedSentinel
}

// Payload is the non-vector metadata stored alongside each point. Pregunta
// and Respuesta keep their raw markup for eventual display.
type Payload struct {
	Pregunta  string
	Respuesta string
	Grupo     int
	Tema      string
}

// Document is the derived record an eligible article produces: the
// normalized embedding input plus the display payload. Documents are
// computed on demand and never persisted outside the index entry.
type Document struct {
	ID      ID
	Text    string
	Payload Payload
}

// Point is a vector-store record.
type Point struct {
	ID      ID
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a point with its similarity score from a search.
type ScoredPoint struct {
	Point Point
	Score float32
}
