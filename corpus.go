package main

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"k8s.io/klog/v2"
)

var (
	ErrShortCorpus = errors.New("corpus shorter than requested size")
	ErrBadSplit    = errors.New("split offset outside corpus")
)

// Corpus is the decompressed byte corpus, split once into a training
// prefix and a validation suffix. Both views are read-only.
type Corpus struct {
	Train []byte
	Valid []byte
	hash  string
}

// Hash is a short sha256 of the full decompressed corpus.
func (c *Corpus) Hash() string {
	return c.hash
}

// Len is the total number of bytes in both partitions.
func (c *Corpus) Len() int {
	return len(c.Train) + len(c.Valid)
}

// LoadCorpus decompresses the first maxBytes bytes of a gzip file and splits
// them at split. src is a local path or an s3://bucket/key URL.
func LoadCorpus(ctx context.Context, src, region string, maxBytes, split int) (*Corpus, error) {
	if split <= 0 || split >= maxBytes {
		return nil, fmt.Errorf("%w: split %d, size %d", ErrBadSplit, split, maxBytes)
	}

	r, err := openSource(ctx, src, region)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return readCorpus(r, maxBytes, split)
}

func readCorpus(r io.Reader, maxBytes, split int) (*Corpus, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	data := make([]byte, maxBytes)
	n, err := io.ReadFull(gz, data)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortCorpus, n, maxBytes)
		}
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	// Full slice expressions keep appends on Train from spilling into Valid.
	c := &Corpus{
		Train: data[:split:split],
		Valid: data[split:],
		hash:  fmt.Sprintf("%x", sha256.Sum256(data))[:16],
	}
	return c, nil
}

func openSource(ctx context.Context, src, region string) (io.ReadCloser, error) {
	bucket, key, ok := parseS3URL(src)
	if !ok {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("opening corpus: %w", err)
		}
		return f, nil
	}

	klog.V(1).Infof("fetching corpus from bucket %q key %q", bucket, key)
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	out, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// parseS3URL splits s3://bucket/key. ok is false for anything else.
func parseS3URL(src string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(src, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
