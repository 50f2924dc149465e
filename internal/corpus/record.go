// Package corpus loads raw job records and turns them into the token corpus
// the BM25 index is built from, preserving a map back to record identity.
package corpus

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Recognized JobRecord fields. Anything else in a record is ignored.
const (
	FieldTitle       = "title"
	FieldTags        = "tagsAndSkills"
	FieldDescription = "jobDescription"
	FieldCompany     = "companyName"
)

// JobRecord is one raw job posting as supplied by the job source. Records
// are opaque mappings; identity is the record's position in the loaded
// sequence, and records are immutable for the lifetime of a matching run.
type JobRecord map[string]any

func (r JobRecord) text(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Title returns the job title, or "" when absent.
func (r JobRecord) Title() string { return r.text(FieldTitle) }

// Tags returns the comma-joined tags-and-skills field, or "".
func (r JobRecord) Tags() string { return r.text(FieldTags) }

// Description returns the raw (possibly HTML) job description, or "".
func (r JobRecord) Description() string { return r.text(FieldDescription) }

// Company returns the company name, or "" when absent.
func (r JobRecord) Company() string { return r.text(FieldCompany) }

// Fingerprint returns a stable hex-encoded BLAKE3 hash over the recognized
// fields of every record, in order. Two corpora with identical recognized
// content produce the same fingerprint; it is the index cache's freshness
// check.
func Fingerprint(records []JobRecord) string {
	hasher := blake3.New()
	var lenBuf [8]byte
	writeField := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		hasher.Write(lenBuf[:])
		hasher.Write([]byte(s))
	}
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(records)))
	hasher.Write(lenBuf[:])
	for _, rec := range records {
		writeField(rec.Title())
		writeField(rec.Tags())
		writeField(rec.Description())
		writeField(rec.Company())
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// joinFields concatenates non-empty parts with single spaces.
func joinFields(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
