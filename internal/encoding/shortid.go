// Package encoding implements the short-identifier grammar of spec §4.1: a
// bijection from the naturals onto the language [a-zA-Z][a-zA-Z0-9_-]*,
// ordered by length then by the internal character vector V, so that
// assigning ids in index order always yields the shortest possible name for
// a given cardinality. It has no dependencies beyond the standard library —
// the grammar is defined by the spec, not by a reusable parsing library, so
// there is nothing in the example corpus to ground a third-party dependency
// on here (see DESIGN.md).
package encoding

// vector is the 64-entry internal character-ordering vector V. The first 52
// entries (a..z, A..Z) are legal in every position; the trailing 12 entries
// (0..9, then _, then -) are legal only in non-leading positions.
const vector = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// leadCount is |V| restricted to leading-legal characters: a..z, A..Z.
const leadCount = 52

// tailCount is |V|: every character, legal in non-leading positions.
const tailCount = 64

// ShortID returns the index-th word of L = [a-zA-Z][a-zA-Z0-9_-]* ordered by
// length then by vector. ShortID(0)=="a", ShortID(51)=="Z", ShortID(52)=="aa".
func ShortID(index uint64) string {
	length, offset := locate(index)
	return encode(offset, length)
}

// locate finds the smallest length k such that the count of words of length
// <= k exceeds index, and returns that length plus index's 0-based offset
// within the words of exactly that length.
func locate(index uint64) (length int, offset uint64) {
	length = 1
	count := uint64(leadCount)
	for index >= count {
		index -= count
		length++
		count *= tailCount
	}
	return length, index
}

// encode renders offset (0-based, within words of the given length) as a
// word: one leading digit of radix leadCount followed by (length-1) trailing
// digits of radix tailCount, most significant trailing digit first.
func encode(offset uint64, length int) string {
	trailingSpace := pow(tailCount, length-1)
	lead := offset / trailingSpace
	rest := offset % trailingSpace

	buf := make([]byte, length)
	buf[0] = vector[lead]
	for p := length - 1; p >= 1; p-- {
		buf[p] = vector[rest%tailCount]
		rest /= tailCount
	}
	return string(buf)
}

func pow(base uint64, exp int) uint64 {
	result := uint64(1)
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
