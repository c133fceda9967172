// Package index maintains the append-only tag index written next to the
// processed documents. Each line has the form
//
//	<supervisor>:<relative path>:<tag>,<tag>,...:<sha256>
package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultFileName is the index file created in the root folder.
const DefaultFileName = "_tags_index.txt"

// Record is one index line.
type Record struct {
	Supervisor string   `json:"supervisor" yaml:"supervisor"`
	Path       string   `json:"path" yaml:"path"`
	Tags       []string `json:"tags" yaml:"tags"`
	Hash       string   `json:"hash" yaml:"hash"`
}

// Line renders the record without a trailing newline.
func (r Record) Line() string {
	return r.Supervisor + ":" + r.Path + ":" + strings.Join(r.Tags, ",") + ":" + r.Hash
}

// ParseLine parses a line produced by Record.Line. The supervisor ends at the
// first colon and the hash starts after the last one; tags sit between the
// last two colons so paths may contain colons.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	first := strings.Index(line, ":")
	last := strings.LastIndex(line, ":")
	if first < 0 || first == last {
		return Record{}, fmt.Errorf("malformed index line: %q", line)
	}
	middle := line[first+1 : last]
	sep := strings.LastIndex(middle, ":")
	if sep < 0 {
		return Record{}, fmt.Errorf("malformed index line: %q", line)
	}

	r := Record{
		Supervisor: line[:first],
		Path:       middle[:sep],
		Hash:       line[last+1:],
	}
	if tags := middle[sep+1:]; tags != "" {
		r.Tags = strings.Split(tags, ",")
	}
	return r, nil
}

// ReadAll parses every non-empty line of r. Malformed lines are skipped and
// reported through the returned count.
func ReadAll(r io.Reader) ([]Record, int, error) {
	var records []Record
	skipped := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return records, skipped, fmt.Errorf("failed to read index: %w", err)
	}
	return records, skipped, nil
}

// Load reads the index file at path. A missing file is an empty index.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()
	records, _, err := ReadAll(f)
	return records, err
}

// Hashes returns the set of content hashes present in records.
func Hashes(records []Record) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Hash != "" {
			set[r.Hash] = true
		}
	}
	return set
}

// Writer appends records to the index file. It is safe for concurrent use;
// every record is flushed and synced before Append returns.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// OpenWriter opens path for appending, creating it if needed.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index for append: %w", err)
	}
	return &Writer{file: f, buf: bufio.NewWriter(f)}, nil
}

// Append writes one record as a line.
func (w *Writer) Append(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.buf.WriteString(r.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to write index line: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush index: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync index: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
