// Package bv implements the fixed-width bit-vector value domain that
// the evaluator composes: unsigned arithmetic, bit-logic, reductions,
// shifts, comparisons and structural operators, all width-checked and
// two's-complement aware.
//
// A Value is exclusively owned by whichever state slot or evaluator
// temporary holds it; Clone produces a deep, independent copy. Neither
// math/big (unbounded, no built-in wraparound or two's-complement
// views) nor bits-and-blooms/bitset (single-bit oriented, no
// arithmetic) model fixed-width two's-complement arithmetic directly,
// so this package keeps its own width-aware arithmetic layer on top of
// math/big storage.
package bv

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Value is an owned, fixed-width unsigned integer with well-defined
// signed interpretations for the signed operations.
type Value struct {
	width uint
	bits  big.Int // always kept in [0, 2^width)
}

// New returns a zero-valued bit-vector of the given width.
func New(width uint) *Value {
	if width == 0 {
		panic("bv: width must be >= 1")
	}
	return &Value{width: width}
}

// Width returns the bit-vector's declared width.
func (v *Value) Width() uint { return v.width }

func mask(width uint) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), width)
	return m.Sub(m, big.NewInt(1))
}

func (v *Value) normalize() {
	v.bits.And(&v.bits, mask(v.width))
}

// FromUint64 returns a width-bit bit-vector holding value, truncated
// to width.
func FromUint64(value uint64, width uint) *Value {
	v := New(width)
	v.bits.SetUint64(value)
	v.normalize()
	return v
}

// FromBinaryString parses a string of '0'/'1' characters (as in the
// witness format and the "const" model tag) into a bit-vector.
func FromBinaryString(s string) (*Value, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("bv: empty binary constant")
	}
	for _, ch := range s {
		if ch != '0' && ch != '1' {
			return nil, fmt.Errorf("bv: invalid binary digit %q", ch)
		}
	}
	v := New(uint(len(s)))
	if _, ok := v.bits.SetString(s, 2); !ok {
		return nil, fmt.Errorf("bv: malformed binary constant %q", s)
	}
	v.normalize()
	return v, nil
}

// FromDecimalString parses a (possibly negative, two's-complement)
// decimal literal into a width-bit bit-vector, as the "constd" tag does.
func FromDecimalString(s string, width uint) (*Value, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("bv: malformed decimal constant %q", s)
	}
	v := New(width)
	v.bits.Set(n)
	v.normalize()
	return v, nil
}

// FromHexString parses a hexadecimal literal into a width-bit bit-vector,
// as the "consth" tag does.
func FromHexString(s string, width uint) (*Value, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 16)
	if !ok {
		return nil, fmt.Errorf("bv: malformed hex constant %q", s)
	}
	v := New(width)
	v.bits.Set(n)
	v.normalize()
	return v, nil
}

// FromWords assembles a width-bit bit-vector from little-endian 32-bit
// words (words[0] holds the least-significant bits), as produced by
// rng.Stream.NextBits.
func FromWords(words []uint32, width uint) *Value {
	v := New(width)
	for i := len(words) - 1; i >= 0; i-- {
		v.bits.Lsh(&v.bits, 32)
		v.bits.Or(&v.bits, new(big.Int).SetUint64(uint64(words[i])))
	}
	v.normalize()
	return v
}

// Zero returns a width-bit bit-vector of all zero bits.
func Zero(width uint) *Value { return New(width) }

// One returns a width-bit bit-vector with only bit 0 set.
func One(width uint) *Value { return FromUint64(1, width) }

// Ones returns a width-bit bit-vector with every bit set.
func Ones(width uint) *Value {
	v := New(width)
	v.bits.Set(mask(width))
	return v
}

// Clone returns an independent deep copy of v.
func (v *Value) Clone() *Value {
	c := &Value{width: v.width}
	c.bits.Set(&v.bits)
	return c
}

// Uint64 returns the unsigned value truncated to 64 bits. Used for
// array indices and shift amounts, whose widths are bounded in
// practice by the model's declared index width.
func (v *Value) Uint64() uint64 { return v.bits.Uint64() }

// String renders the value as a fixed-width binary string, matching
// the witness/trace text format.
func (v *Value) String() string {
	s := v.bits.Text(2)
	if pad := int(v.width) - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// Bit returns the value of bit i (0 = least significant).
func (v *Value) Bit(i uint) uint {
	return v.bits.Bit(int(i))
}

// SetBit mutates bit i of v in place.
func (v *Value) SetBit(i uint, value uint) {
	v.bits.SetBit(&v.bits, int(i), value)
}

func requireSameWidth(op string, a, b *Value) {
	if a.width != b.width {
		panic(fmt.Sprintf("bv: %s: width mismatch: %d != %d", op, a.width, b.width))
	}
}

func binResult(width uint, n *big.Int) *Value {
	v := New(width)
	v.bits.Set(n)
	v.normalize()
	return v
}

// signed returns the two's-complement signed interpretation of v.
func (v *Value) signed() *big.Int {
	n := new(big.Int).Set(&v.bits)
	if v.bits.Bit(int(v.width)-1) == 1 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), v.width))
	}
	return n
}

func boolValue(b bool) *Value {
	if b {
		return One(1)
	}
	return Zero(1)
}

// Add returns v + other.
func (v *Value) Add(other *Value) *Value {
	requireSameWidth("add", v, other)
	return binResult(v.width, new(big.Int).Add(&v.bits, &other.bits))
}

// Sub returns v - other.
func (v *Value) Sub(other *Value) *Value {
	requireSameWidth("sub", v, other)
	return binResult(v.width, new(big.Int).Sub(&v.bits, &other.bits))
}

// Mul returns v * other.
func (v *Value) Mul(other *Value) *Value {
	requireSameWidth("mul", v, other)
	return binResult(v.width, new(big.Int).Mul(&v.bits, &other.bits))
}

// isZero reports whether v is the zero bit-vector.
func (v *Value) isZero() bool { return v.bits.Sign() == 0 }

// UDiv returns the unsigned quotient of v / other. Division by zero
// yields an all-ones quotient, per the bit-vector-arithmetic convention.
func (v *Value) UDiv(other *Value) *Value {
	requireSameWidth("udiv", v, other)
	if other.isZero() {
		return Ones(v.width)
	}
	return binResult(v.width, new(big.Int).Div(&v.bits, &other.bits))
}

// URem returns the unsigned remainder of v / other. Division by zero
// yields the dividend.
func (v *Value) URem(other *Value) *Value {
	requireSameWidth("urem", v, other)
	if other.isZero() {
		return v.Clone()
	}
	return binResult(v.width, new(big.Int).Mod(&v.bits, &other.bits))
}

// SDiv returns the signed (truncating) quotient of v / other.
func (v *Value) SDiv(other *Value) *Value {
	requireSameWidth("sdiv", v, other)
	if other.isZero() {
		if v.signed().Sign() < 0 {
			return One(v.width)
		}
		return Ones(v.width)
	}
	q := new(big.Int).Quo(v.signed(), other.signed())
	return binResult(v.width, q)
}

// SRem returns the signed (truncating) remainder of v / other.
func (v *Value) SRem(other *Value) *Value {
	requireSameWidth("srem", v, other)
	if other.isZero() {
		return v.Clone()
	}
	r := new(big.Int).Rem(v.signed(), other.signed())
	return binResult(v.width, r)
}

// Neg returns the two's-complement negation of v.
func (v *Value) Neg() *Value {
	return binResult(v.width, new(big.Int).Neg(&v.bits))
}

// Inc returns v + 1.
func (v *Value) Inc() *Value { return v.Add(One(v.width)) }

// Dec returns v - 1.
func (v *Value) Dec() *Value { return v.Sub(One(v.width)) }

// And returns the bitwise AND of v and other.
func (v *Value) And(other *Value) *Value {
	requireSameWidth("and", v, other)
	return binResult(v.width, new(big.Int).And(&v.bits, &other.bits))
}

// Or returns the bitwise OR of v and other.
func (v *Value) Or(other *Value) *Value {
	requireSameWidth("or", v, other)
	return binResult(v.width, new(big.Int).Or(&v.bits, &other.bits))
}

// Xor returns the bitwise XOR of v and other.
func (v *Value) Xor(other *Value) *Value {
	requireSameWidth("xor", v, other)
	return binResult(v.width, new(big.Int).Xor(&v.bits, &other.bits))
}

// Xnor returns the bitwise XNOR of v and other.
func (v *Value) Xnor(other *Value) *Value { return v.Xor(other).Not() }

// Nand returns the bitwise NAND of v and other.
func (v *Value) Nand(other *Value) *Value { return v.And(other).Not() }

// Nor returns the bitwise NOR of v and other.
func (v *Value) Nor(other *Value) *Value { return v.Or(other).Not() }

// Not returns the bitwise complement of v.
func (v *Value) Not() *Value {
	return binResult(v.width, new(big.Int).Xor(&v.bits, mask(v.width)))
}

// Implies returns NOT(v) OR other, interpreting v/other as width-1 booleans.
func (v *Value) Implies(other *Value) *Value { return v.Not().Or(other) }

// Iff returns the bitwise XNOR of v and other (logical equivalence for
// width-1 values).
func (v *Value) Iff(other *Value) *Value { return v.Xnor(other) }

// Redand returns the AND-reduction of all bits in v.
func (v *Value) Redand() *Value { return boolValue(v.bits.Cmp(mask(v.width)) == 0) }

// Redor returns the OR-reduction of all bits in v.
func (v *Value) Redor() *Value { return boolValue(!v.isZero()) }

// Redxor returns the XOR-reduction of all bits in v.
func (v *Value) Redxor() *Value {
	parity := 0
	for i := uint(0); i < v.width; i++ {
		parity ^= int(v.bits.Bit(int(i)))
	}
	return boolValue(parity == 1)
}

func shiftAmount(other *Value) uint {
	n := other.bits.Uint64()
	if !other.bits.IsUint64() || n > uint64(^uint(0)) {
		return ^uint(0) // saturate to "larger than any width"
	}
	return uint(n)
}

// Sll returns v logically shifted left by other bits (amount read unsigned).
func (v *Value) Sll(other *Value) *Value {
	n := shiftAmount(other)
	if n >= v.width {
		return Zero(v.width)
	}
	return binResult(v.width, new(big.Int).Lsh(&v.bits, n))
}

// Srl returns v logically shifted right by other bits.
func (v *Value) Srl(other *Value) *Value {
	n := shiftAmount(other)
	if n >= v.width {
		return Zero(v.width)
	}
	return binResult(v.width, new(big.Int).Rsh(&v.bits, n))
}

// Sra returns v arithmetically shifted right by other bits.
func (v *Value) Sra(other *Value) *Value {
	n := shiftAmount(other)
	s := v.signed()
	if n >= v.width {
		if s.Sign() < 0 {
			return Ones(v.width)
		}
		return Zero(v.width)
	}
	return binResult(v.width, new(big.Int).Rsh(s, n))
}

// Eq returns whether v == other as a width-1 bit-vector.
func (v *Value) Eq(other *Value) *Value {
	requireSameWidth("eq", v, other)
	return boolValue(v.bits.Cmp(&other.bits) == 0)
}

// Neq returns whether v != other as a width-1 bit-vector.
func (v *Value) Neq(other *Value) *Value { return boolValue(v.bits.Cmp(&other.bits) != 0) }

// Ult returns whether v < other, unsigned.
func (v *Value) Ult(other *Value) *Value { return boolValue(v.bits.Cmp(&other.bits) < 0) }

// Ulte returns whether v <= other, unsigned.
func (v *Value) Ulte(other *Value) *Value { return boolValue(v.bits.Cmp(&other.bits) <= 0) }

// Ugt returns whether v > other, unsigned.
func (v *Value) Ugt(other *Value) *Value { return boolValue(v.bits.Cmp(&other.bits) > 0) }

// Ugte returns whether v >= other, unsigned.
func (v *Value) Ugte(other *Value) *Value { return boolValue(v.bits.Cmp(&other.bits) >= 0) }

// Slt returns whether v < other, signed.
func (v *Value) Slt(other *Value) *Value { return boolValue(v.signed().Cmp(other.signed()) < 0) }

// Slte returns whether v <= other, signed.
func (v *Value) Slte(other *Value) *Value { return boolValue(v.signed().Cmp(other.signed()) <= 0) }

// Sgt returns whether v > other, signed.
func (v *Value) Sgt(other *Value) *Value { return boolValue(v.signed().Cmp(other.signed()) > 0) }

// Sgte returns whether v >= other, signed.
func (v *Value) Sgte(other *Value) *Value { return boolValue(v.signed().Cmp(other.signed()) >= 0) }

// Concat returns the concatenation of v (as the MSBs) and lsb (as the LSBs).
func (v *Value) Concat(lsb *Value) *Value {
	width := v.width + lsb.width
	n := new(big.Int).Lsh(&v.bits, lsb.width)
	n.Or(n, &lsb.bits)
	return binResult(width, n)
}

// Slice returns bits [hi:lo] of v, inclusive.
func (v *Value) Slice(hi, lo uint) *Value {
	if hi < lo {
		panic("bv: slice: hi < lo")
	}
	width := hi - lo + 1
	n := new(big.Int).Rsh(&v.bits, lo)
	return binResult(width, n)
}

// Uext returns v zero-extended by n additional bits. A no-op (copy)
// when n == 0.
func (v *Value) Uext(n uint) *Value {
	if n == 0 {
		return v.Clone()
	}
	return binResult(v.width+n, new(big.Int).Set(&v.bits))
}

// Sext returns v sign-extended by n additional bits. A no-op (copy)
// when n == 0.
func (v *Value) Sext(n uint) *Value {
	if n == 0 {
		return v.Clone()
	}
	return binResult(v.width+n, v.signed())
}

// IsAllOnes reports whether every bit of v is set.
func (v *Value) IsAllOnes() bool { return v.bits.Cmp(mask(v.width)) == 0 }

// Compare returns -1, 0 or 1 ordering a and b first by width (the
// narrower one is smaller) and then, for equal widths, by unsigned
// value. It returns 0 only for equal widths and equal bits.
func Compare(a, b *Value) int {
	if a.width != b.width {
		if a.width < b.width {
			return -1
		}
		return 1
	}
	return a.bits.Cmp(&b.bits)
}

// FormatUint64Binary is a small helper used by the vcd package to
// render raw index bit-patterns without allocating a Value.
func FormatUint64Binary(v uint64, width uint) string {
	s := strconv.FormatUint(v, 2)
	if pad := int(width) - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}
