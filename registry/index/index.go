package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/Palladinium/quartermaster/registry/index/semver"
)

// File is an ordered sequence of IndexEntry for a single package
// (spec.md's IndexFile). On-disk form: one JSON object per line, in
// insertion order, with no trailing newline.
type File struct {
	Entries []IndexEntry
}

// Parse decodes raw NDJSON bytes into a File (spec.md §4.2).
//
// An empty byte stream yields an empty entry sequence. Each non-empty
// line (after trimming a trailing '\r', to tolerate CRLF-written files)
// is parsed as one JSON object. Invalid UTF-8 is rejected outright.
func Parse(raw []byte) (File, error) {
	if !utf8.Valid(raw) {
		return File{}, fmt.Errorf("index file is not valid UTF-8")
	}
	if len(raw) == 0 {
		return File{}, nil
	}

	var f File
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}

		var entry IndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return File{}, fmt.Errorf("parsing index entry: %w", err)
		}
		f.Entries = append(f.Entries, entry)
	}
	return f, nil
}

// Serialize encodes the File back to NDJSON: compact JSON per entry,
// entries separated by a single '\n', no trailing newline. An empty
// sequence serializes to zero bytes.
func (f File) Serialize() ([]byte, error) {
	if len(f.Entries) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for i, entry := range f.Entries {
		if i > 0 {
			buf.WriteByte('\n')
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("serializing index entry for %s %s: %w", entry.Name, entry.Vers, err)
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}

// FindVersion returns the index of the entry matching v, or -1 if none
// does. A plain positional scan is adequate: spec.md §4.4.5 notes at
// most a few hundred entries are expected per package.
func (f File) FindVersion(v semver.Version) int {
	for i, entry := range f.Entries {
		if entry.sameVersion(v) {
			return i
		}
	}
	return -1
}
