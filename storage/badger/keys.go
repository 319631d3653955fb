package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/echotwin/echotwin/core"
)

// Key prefixes for different data types
const (
	chunkPrefix        = "chnk"
	chunkSourcePrefix  = "chnksrc"
	personaPrefix      = "prsn"
	personaFactsPrefix = "prsnfct"
	personaQAPrefix    = "prsnqa"
	personaTopicPrefix = "prsntpc"
	personaRulesPrefix = "prsnrul"
	sourcePrefix       = "src"
	jobRecordPrefix    = "jobrec"
	jobPersonaPrefix   = "jobidx"
	jobIDSeq           = "jobrecseq"
)

// makeChunkKey generates a key for a chunk, scoped under its persona.
func makeChunkKey(personaID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkPrefix, personaID, id))
}

// makeChunkScanPrefix generates the iteration prefix for all chunks of a persona.
func makeChunkScanPrefix(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, personaID))
}

// makeChunkSourceKey generates a composite key for the chunk-by-source index.
// Format: prefix:personaID:urlHash:chunkID
func makeChunkSourceKey(personaID string, sourceURL string, chunkID core.ID) []byte {
	prefixBytes := makeChunkSourcePrefix(personaID, sourceURL)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makeChunkSourcePrefix generates the iteration prefix for all chunks of a
// (persona, source URL) pair.
// Format: prefix:personaID:urlHash
func makeChunkSourcePrefix(personaID string, sourceURL string) []byte {
	prefix := fmt.Sprintf("%s:%s:", chunkSourcePrefix, personaID)
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(sourceURL)))
	return buf
}

// makePersonaKey generates a key for a persona profile.
func makePersonaKey(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", personaPrefix, personaID))
}

// makePersonaFactsKey generates the key for a persona's fact list.
func makePersonaFactsKey(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", personaFactsPrefix, personaID))
}

// makePersonaQAKey generates the key for a persona's Q&A examples.
func makePersonaQAKey(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", personaQAPrefix, personaID))
}

// makePersonaTopicsKey generates the key for a persona's topics to avoid.
func makePersonaTopicsKey(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", personaTopicPrefix, personaID))
}

// makePersonaRulesKey generates the key for a persona's keyword rules.
func makePersonaRulesKey(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", personaRulesPrefix, personaID))
}

// makeSourceKey generates a key for a content source, scoped under its persona.
func makeSourceKey(personaID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", sourcePrefix, personaID, id))
}

// makeSourceScanPrefix generates the iteration prefix for all sources of a persona.
func makeSourceScanPrefix(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", sourcePrefix, personaID))
}

// makeJobKey generates a key for a crawl job by ID.
func makeJobKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobRecordPrefix, id))
}

// makeJobPersonaKey generates a composite key for the job-by-persona index.
// Format: prefix:personaID:jobID
func makeJobPersonaKey(personaID string, jobID core.ID) []byte {
	prefixBytes := makeJobPersonaPrefix(personaID)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(jobID))
	return buf
}

// makeJobPersonaPrefix generates the iteration prefix for all jobs of a persona.
func makeJobPersonaPrefix(personaID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", jobPersonaPrefix, personaID))
}
