package index

import (
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestRecordLine(t *testing.T) {
	r := Record{
		Supervisor: "захарова/ступников",
		Path:       "2024/отчет.docx",
		Tags:       []string{"alpha", "beta gamma"},
		Hash:       "abc123",
	}
	want := "захарова/ступников:2024/отчет.docx:alpha,beta gamma:abc123"
	if got := r.Line(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr bool
	}{
		{
			name: "basic",
			line: "неизвестно:a.docx:x,y:h1",
			want: Record{Supervisor: "неизвестно", Path: "a.docx", Tags: []string{"x", "y"}, Hash: "h1"},
		},
		{
			name: "no tags",
			line: "s:a.docx::h2\n",
			want: Record{Supervisor: "s", Path: "a.docx", Hash: "h2"},
		},
		{
			name: "colon in path",
			line: "s:dir:odd/a.docx:t:h3",
			want: Record{Supervisor: "s", Path: "dir:odd/a.docx", Tags: []string{"t"}, Hash: "h3"},
		},
		{name: "too few fields", line: "s:h", wantErr: true},
		{name: "no colon", line: "garbage", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestReadAll(t *testing.T) {
	input := "a:x.docx:t:h1\n\nbroken\nb:y.docx::h2\n"
	records, skipped, err := ReadAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 || skipped != 1 {
		t.Fatalf("expected 2 records and 1 skipped, got %d and %d", len(records), skipped)
	}
	hashes := Hashes(records)
	if !hashes["h1"] || !hashes["h2"] || len(hashes) != 2 {
		t.Errorf("unexpected hash set: %v", hashes)
	}
}

func TestWriterAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	if records, err := Load(path); err != nil || records != nil {
		t.Fatalf("expected empty index for missing file, got %v, %v", records, err)
	}

	w, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Record{Supervisor: "s", Path: "p.docx", Tags: []string{"t"}, Hash: strings.Repeat("a", i+1)}
			if err := w.Append(rec); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 20 {
		t.Fatalf("expected 20 records, got %d", len(records))
	}

	// Reopening appends rather than truncating.
	w, err = OpenWriter(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := w.Append(Record{Supervisor: "s", Path: "q.docx", Hash: "z"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	w.Close()
	records, _ = Load(path)
	if len(records) != 21 {
		t.Errorf("expected 21 records after reopen, got %d", len(records))
	}
}
