package safemath

import (
	"errors"
	"math/bits"
)

var ErrOverflow = errors.New("number overflow")

func Add32(a, b uint32) (uint32, bool) {
	v, carry := bits.Add32(a, b, 0)
	return v, carry == 0
}

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub32(a, b uint32) (uint32, bool) {
	v, borrow := bits.Sub32(a, b, 0)
	return v, borrow == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

func Mul64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// SaturatingSub64 returns a-b, or 0 when b > a.
func SaturatingSub64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingAdd64 returns a+b, or the maximum uint64 on overflow.
func SaturatingAdd64(a, b uint64) uint64 {
	v, ok := Add64(a, b)
	if !ok {
		return ^uint64(0)
	}
	return v
}

// Inc32 increments a counter, failing with ErrOverflow at the maximum.
func Inc32(v uint32) (uint32, error) {
	n, ok := Add32(v, 1)
	if !ok {
		return 0, ErrOverflow
	}
	return n, nil
}

// Dec32 decrements a counter, failing with ErrOverflow below zero.
func Dec32(v uint32) (uint32, error) {
	n, ok := Sub32(v, 1)
	if !ok {
		return 0, ErrOverflow
	}
	return n, nil
}
