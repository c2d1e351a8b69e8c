package virtcap

// SqrtRounded computes the integer square root of a 32-bit value with
// arithmetic rounding: if the real root has a fractional part of 0.5 or
// greater, the result rounds up to the next integer.
//   - SqrtRounded(2) -> 1
//   - SqrtRounded(3) -> 2
//   - SqrtRounded(6) -> 2
//   - SqrtRounded(7) -> 3
//
// The extraction is the classic restoring algorithm, consuming two bits of
// the input per iteration from the top down. Safe for the full uint32 range;
// SqrtRounded(0xFFFFFFFF) == 65536.
func SqrtRounded(n uint32) uint32 {
	op := n
	res := uint32(0)
	one := uint32(1) << 30 // highest power of four representable in 32 bits

	// Walk "one" down to the highest power of four <= the argument.
	for one > op {
		one >>= 2
	}

	for one != 0 {
		if op >= res+one {
			op = op - (res + one)
			res = res + 2*one
		}
		res >>= 1
		one >>= 2
	}

	// Round to nearest: the remainder exceeds the root exactly when the
	// true root's fractional part is at least 0.5.
	if op > res {
		res++
	}

	return res
}
