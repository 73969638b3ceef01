package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeGzip(t *testing.T, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "corpus.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCorpusSplit(t *testing.T) {
	data := sequentialBytes(250, 0)
	path := writeGzip(t, data)

	c, err := LoadCorpus(context.Background(), path, "", 200, 150)
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}
	if len(c.Train) != 150 || len(c.Valid) != 50 {
		t.Fatalf("expected 150/50 split, got %d/%d", len(c.Train), len(c.Valid))
	}
	if c.Len() != 200 {
		t.Errorf("expected total 200, got %d", c.Len())
	}
	if !bytes.Equal(c.Train, data[:150]) || !bytes.Equal(c.Valid, data[150:200]) {
		t.Error("partitions do not match the corpus prefix")
	}
	if len(c.Hash()) != 16 {
		t.Errorf("expected 16 character hash, got %q", c.Hash())
	}

	// appending to the training view must not leak into validation
	_ = append(c.Train, 0xFF)
	if c.Valid[0] != 150 {
		t.Errorf("validation buffer overwritten: %d", c.Valid[0])
	}
}

func TestLoadCorpusShort(t *testing.T) {
	path := writeGzip(t, make([]byte, 100))
	_, err := LoadCorpus(context.Background(), path, "", 200, 150)
	if !errors.Is(err, ErrShortCorpus) {
		t.Errorf("expected ErrShortCorpus, got %v", err)
	}
}

func TestLoadCorpusMissing(t *testing.T) {
	_, err := LoadCorpus(context.Background(), filepath.Join(t.TempDir(), "nope.gz"), "", 200, 150)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadCorpusNotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("not compressed at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(context.Background(), path, "", 10, 5); err == nil {
		t.Error("expected an error for a non-gzip file")
	}
}

func TestLoadCorpusBadSplit(t *testing.T) {
	path := writeGzip(t, make([]byte, 300))
	for _, split := range []int{0, -1, 200, 250} {
		if _, err := LoadCorpus(context.Background(), path, "", 200, split); !errors.Is(err, ErrBadSplit) {
			t.Errorf("split %d: expected ErrBadSplit, got %v", split, err)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		ok          bool
	}{
		{"s3://data/enwik8.gz", "data", "enwik8.gz", true},
		{"s3://data/corpora/enwik8.gz", "data", "corpora/enwik8.gz", true},
		{"s3://data", "", "", false},
		{"s3:///key", "", "", false},
		{"./data/enwik8.gz", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, ok := parseS3URL(tt.in)
		if ok != tt.ok || bucket != tt.bucket || key != tt.key {
			t.Errorf("parseS3URL(%q) = %q, %q, %v; expected %q, %q, %v",
				tt.in, bucket, key, ok, tt.bucket, tt.key, tt.ok)
		}
	}
}
