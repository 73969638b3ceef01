package main

import (
	"errors"
	"fmt"
)

var ErrEmptySource = errors.New("batch source yielded nothing")

// Batch is a group of equal length sample windows.
type Batch struct {
	Seqs [][]int
}

func (b Batch) Size() int {
	return len(b.Seqs)
}

// Inputs drops the last token of every window.
func (b Batch) Inputs() [][]int {
	out := make([][]int, len(b.Seqs))
	for i, s := range b.Seqs {
		out[i] = s[:len(s)-1]
	}
	return out
}

// Targets drops the first token of every window.
func (b Batch) Targets() [][]int {
	out := make([][]int, len(b.Seqs))
	for i, s := range b.Seqs {
		out[i] = s[1:]
	}
	return out
}

// Iterator yields values until ok is false.
type Iterator[T any] interface {
	Next() (T, bool)
}

// Iterable starts a fresh pass every time Iter is called.
type Iterable[T any] interface {
	Iter() Iterator[T]
}

// DataLoader groups dataset samples into batches. One pass yields
// ceil(Len/batchSize) batches; the last one may be short.
type DataLoader struct {
	ds        Dataset
	batchSize int
}

func NewDataLoader(ds Dataset, batchSize int) (*DataLoader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", ErrBadConfig, batchSize)
	}
	return &DataLoader{ds: ds, batchSize: batchSize}, nil
}

// NumBatches is the number of batches in one pass
func (l *DataLoader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

func (l *DataLoader) Iter() Iterator[Batch] {
	return &loaderIter{l: l, remaining: l.ds.Len()}
}

type loaderIter struct {
	l         *DataLoader
	remaining int
}

func (it *loaderIter) Next() (Batch, bool) {
	if it.remaining <= 0 {
		return Batch{}, false
	}
	n := it.l.batchSize
	if n > it.remaining {
		n = it.remaining
	}
	it.remaining -= n

	b := Batch{Seqs: make([][]int, n)}
	for i := range b.Seqs {
		b.Seqs[i] = it.l.ds.Sample()
	}
	return b, true
}

// SliceSource replays a fixed slice in order on every pass.
type SliceSource[T any] struct {
	Items []T
}

func (s SliceSource[T]) Iter() Iterator[T] {
	return &sliceIter[T]{items: s.Items}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next() (T, bool) {
	var zero T
	if it.pos >= len(it.items) {
		return zero, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// Cycle turns a finite Iterable into an endless sequence by starting a
// new pass whenever the current one runs out.
type Cycle[T any] struct {
	src Iterable[T]
	cur Iterator[T]
}

func NewCycle[T any](src Iterable[T]) *Cycle[T] {
	return &Cycle[T]{src: src}
}

// Next never reports exhaustion. It fails only when a fresh pass is empty.
func (c *Cycle[T]) Next() (T, error) {
	if c.cur != nil {
		if v, ok := c.cur.Next(); ok {
			return v, nil
		}
	}
	c.cur = c.src.Iter()
	v, ok := c.cur.Next()
	if !ok {
		var zero T
		return zero, ErrEmptySource
	}
	return v, nil
}
