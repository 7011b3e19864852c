package bv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBinaryString(t *testing.T) {
	v, err := FromBinaryString("1011")
	require.NoError(t, err)
	assert.Equal(t, uint(4), v.Width())
	assert.Equal(t, "1011", v.String())
}

func TestFromBinaryStringRejectsInvalidDigit(t *testing.T) {
	_, err := FromBinaryString("102")
	assert.Error(t, err)
}

func TestFromDecimalStringNegative(t *testing.T) {
	v, err := FromDecimalString("-1", 8)
	require.NoError(t, err)
	assert.True(t, v.IsAllOnes())
}

func TestFromHexString(t *testing.T) {
	v, err := FromHexString("ff", 8)
	require.NoError(t, err)
	assert.True(t, v.IsAllOnes())
}

func TestArithmeticWraps(t *testing.T) {
	a := FromUint64(200, 8)
	b := FromUint64(100, 8)
	assert.Equal(t, uint64(44), a.Add(b).Uint64()) // 300 mod 256
}

func TestUDivByZeroYieldsAllOnes(t *testing.T) {
	a := FromUint64(5, 8)
	z := Zero(8)
	assert.True(t, a.UDiv(z).IsAllOnes())
}

func TestURemByZeroYieldsDividend(t *testing.T) {
	a := FromUint64(5, 8)
	z := Zero(8)
	assert.Equal(t, uint64(5), a.URem(z).Uint64())
}

func TestSDivSignedTruncation(t *testing.T) {
	a := FromDecimalStringMust(t, "-7", 8)
	b := FromDecimalStringMust(t, "2", 8)
	got := a.SDiv(b)
	want := FromDecimalStringMust(t, "-3", 8)
	assert.Equal(t, 0, Compare(want, got))
}

func FromDecimalStringMust(t *testing.T, s string, width uint) *Value {
	t.Helper()
	v, err := FromDecimalString(s, width)
	require.NoError(t, err)
	return v
}

func TestShiftsSaturateAtWidth(t *testing.T) {
	a := Ones(4)
	huge := FromUint64(100, 8)
	assert.Equal(t, uint64(0), a.Sll(huge).Uint64())
	assert.Equal(t, uint64(0), a.Srl(huge).Uint64())
}

func TestSraSignExtends(t *testing.T) {
	a := FromBinaryStringMust(t, "1000")
	got := a.Sra(FromUint64(1, 4))
	assert.Equal(t, "1100", got.String())
}

func FromBinaryStringMust(t *testing.T, s string) *Value {
	t.Helper()
	v, err := FromBinaryString(s)
	require.NoError(t, err)
	return v
}

func TestConcatSliceRoundTrip(t *testing.T) {
	hi := FromBinaryStringMust(t, "1010")
	lo := FromBinaryStringMust(t, "0101")
	combined := hi.Concat(lo)
	assert.Equal(t, uint(8), combined.Width())
	assert.Equal(t, "1010", combined.Slice(7, 4).String())
	assert.Equal(t, "0101", combined.Slice(3, 0).String())
}

func TestUextSextNoOpAtZero(t *testing.T) {
	v := FromUint64(3, 4)
	assert.Equal(t, uint(4), v.Uext(0).Width())
	assert.Equal(t, uint(4), v.Sext(0).Width())
}

func TestSextPreservesSign(t *testing.T) {
	v := FromBinaryStringMust(t, "1000") // -8 in 4 bits
	got := v.Sext(4)
	assert.Equal(t, "11111000", got.String())
}

func TestRedxorParity(t *testing.T) {
	assert.Equal(t, uint64(0), FromBinaryStringMust(t, "1010").Redxor().Uint64())
	assert.Equal(t, uint64(1), FromBinaryStringMust(t, "1000").Redxor().Uint64())
}

func TestComparisonsSignedVsUnsigned(t *testing.T) {
	neg := FromBinaryStringMust(t, "1000") // -8 signed, 8 unsigned
	pos := FromBinaryStringMust(t, "0001") // 1

	assert.Equal(t, uint64(1), neg.Ugt(pos).Uint64())
	assert.Equal(t, uint64(1), neg.Slt(pos).Uint64())
}
