// Package lines wraps an NDJSON log dump in an indexed, rewind-friendly
// slice, the shape the rewind-on-Game_Over parser needs: the whole file
// lives in memory as lines[i] so the cursor can jump backward to the start
// of a newly confirmed match (see internal/parser).
package lines

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"time"
)

// logLinePrefix strips the "L MM/DD/YYYY - HH:MM:SS: " header every CS2
// log line carries before the recognized shape begins.
var logLinePrefix = regexp.MustCompile(`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): (.*)$`)

// Record is one decoded NDJSON row: a delivery timestamp and the raw CS2
// server log text for that line.
type Record struct {
	Time time.Time
	Log  string
}

type ndjsonRow struct {
	Time time.Time `json:"time"`
	Log  string    `json:"log"`
}

// Reader gives indexed, repeatable access to every record in an ingested
// file. It never re-reads the source: Load consumes it once up front.
type Reader struct {
	records []Record
}

// Load decodes one NDJSON record per line from r. A line that fails to
// decode as JSON is a parse-recoverable error: it is skipped rather than
// aborting the whole file, matching §7's line-level error handling.
func Load(r io.Reader) (*Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row ndjsonRow
		if err := json.Unmarshal(line, &row); err != nil {
			continue
		}
		records = append(records, Record{Time: row.Time, Log: row.Log})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lines: scanning input: %w", err)
	}
	return &Reader{records: records}, nil
}

// Len returns the number of decoded records.
func (r *Reader) Len() int {
	return len(r.records)
}

// At returns the record at index i. i must be in [0, Len()).
func (r *Reader) At(i int) Record {
	return r.records[i]
}

// Body returns the record's log text with the "L MM/DD/YYYY - HH:MM:SS: "
// prefix stripped, or the raw text unchanged if the prefix is absent.
func (r *Reader) Body(i int) string {
	rec := r.records[i]
	if m := logLinePrefix.FindStringSubmatch(rec.Log); m != nil {
		return m[2]
	}
	return rec.Log
}
