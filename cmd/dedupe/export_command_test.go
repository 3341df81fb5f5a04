package main

import (
	"strings"
	"testing"
	"time"

	"dedupe/internal/store"
)

func TestWriteGroupsCSV(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	groups := []*store.Group{
		{
			Category:   "archive",
			Similarity: 1.0,
			HashValue:  "deadbeef",
			Files: []store.File{
				{Path: "/data/a.zip", SizeBytes: 100, ModifiedAt: modified},
				{Path: "/data/b.zip", SizeBytes: 100, ModifiedAt: modified},
			},
		},
		{
			Category:   "image",
			Similarity: 0.9714,
			Files: []store.File{
				{Path: "/pics/a.png", SizeBytes: 2048},
				{Path: "/pics/b.png", SizeBytes: 2050},
			},
		},
	}

	var buf strings.Builder
	if err := writeGroupsCSV(&buf, groups); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if lines[0] != "group_id,category,similarity,file_path,file_size_bytes,modified_time" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "1,archive,1.0000,/data/a.zip,100,2026-08-01T12:00:00Z" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if lines[3] != "2,image,0.9714,/pics/a.png,2048," {
		t.Fatalf("unexpected image row: %q", lines[3])
	}
}

func TestWriteGroupsCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := writeGroupsCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("empty export should emit only the header: %q", buf.String())
	}
}
