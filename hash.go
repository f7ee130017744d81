// hash.go: deterministic 64-bit hashing for values and record ids
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import (
	"math"
	"unsafe"
)

// mixerConstant is the odd 64-bit multiplier used by MurmurMix64's
// avalanche step, per the Omni-Sketch hashing contract.
const mixerConstant uint64 = 0xd6e8feb86659fd93

// MurmurMix64 applies a xor/mul three-round mixer to a 64-bit input,
// producing a well-distributed 64-bit hash. It is deterministic: the same
// input always yields the same output, across processes and platforms.
func MurmurMix64(x uint64) uint64 {
	x ^= x >> 32
	x *= mixerConstant
	x ^= x >> 32
	x *= mixerConstant
	x ^= x >> 32
	return x
}

// hashBytes folds an arbitrary byte string into a 64-bit seed before
// mixing, so that strings hash through the same mixer as integers.
func hashBytes(b []byte) uint64 {
	const (
		fnvOffset = 14695981039346656037
		fnvPrime  = 1099511628211
	)
	h := uint64(fnvOffset)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return MurmurMix64(h)
}

// stringBytes views a string's backing array without copying.
func stringBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	// #nosec G103 -- read-only view, no mutation of the string's backing array.
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// ValueKind distinguishes the column-typed value flavours the ingestion
// and predicate boundary accepts. A column declares its kind once; all
// hashing for that column goes through the matching branch below.
type ValueKind uint8

const (
	// KindInt32 is a signed 32-bit integer column.
	KindInt32 ValueKind = iota
	// KindUint64 is an unsigned 64-bit integer column.
	KindUint64
	// KindFloat64 is a 64-bit floating point column.
	KindFloat64
	// KindString is a UTF-8 string column.
	KindString
)

// HashValue hashes a typed column value. Equivalent values of distinct
// kinds may collide; callers must declare a column's kind once and use it
// consistently (spec §6). A value whose Go type disagrees with kind fails
// with ErrCodeTypeMismatch rather than panicking, so every ingestion and
// probe boundary can reject a bad value before any state mutates (spec
// §7).
func HashValue(kind ValueKind, v interface{}) (uint64, error) {
	switch kind {
	case KindInt32:
		i, ok := v.(int32)
		if !ok {
			return 0, NewErrTypeMismatch("", "", kind, kindOf(v))
		}
		return MurmurMix64(uint64(uint32(i))), nil
	case KindUint64:
		u, ok := v.(uint64)
		if !ok {
			return 0, NewErrTypeMismatch("", "", kind, kindOf(v))
		}
		return MurmurMix64(u), nil
	case KindFloat64:
		f, ok := v.(float64)
		if !ok {
			return 0, NewErrTypeMismatch("", "", kind, kindOf(v))
		}
		return MurmurMix64(math.Float64bits(f)), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return 0, NewErrTypeMismatch("", "", kind, kindOf(v))
		}
		return hashBytes(stringBytes(s)), nil
	default:
		return 0, NewErrTypeMismatch("", "", kind, kindOf(v))
	}
}

// kindOf best-efforts a ValueKind for v's dynamic Go type, for error
// context only; an unrecognized type reports ValueKind(255), which matches
// no declared kind.
func kindOf(v interface{}) ValueKind {
	switch v.(type) {
	case int32:
		return KindInt32
	case uint64:
		return KindUint64
	case float64:
		return KindFloat64
	case string:
		return KindString
	default:
		return ValueKind(255)
	}
}

// HashRID hashes a record id. Record ids are treated as 64-bit integers
// and mixed identically to an integer value.
func HashRID(rid uint64) uint64 {
	return MurmurMix64(rid)
}

// SplitHash splits a 64-bit hash into a pair of 32-bit lanes,
// (h1 = low 32 bits, h2 = high 32 bits).
func SplitHash(h uint64) (h1, h2 uint32) {
	return uint32(h), uint32(h >> 32)
}
