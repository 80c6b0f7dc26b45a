// Package internal holds iterator helpers shared by the emulator packages.
package internal

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Concat yields every value of each sequence in turn.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for v := range seq {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Concat2 yields every pair of each sequence in turn.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Sorted yields the entries of a map in key order. The map is copied, so
// the caller may modify it while iterating.
func Sorted[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	keys := slices.Sorted(maps.Keys(m))
	values := make([]V, len(keys))
	for n, k := range keys {
		values[n] = m[k]
	}

	return func(yield func(K, V) bool) {
		for n, k := range keys {
			if !yield(k, values[n]) {
				return
			}
		}
	}
}
