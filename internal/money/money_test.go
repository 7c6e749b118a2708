package money

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromKobo(t *testing.T) {
	a, err := FromKobo(5000)
	require.NoError(t, err)
	require.Equal(t, int64(5000), a.Kobo())

	_, err = FromKobo(-1)
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestArithmetic(t *testing.T) {
	a := Amount(10000)
	b := Amount(3000)

	require.Equal(t, Amount(13000), a.Add(b))
	require.Equal(t, Amount(7000), a.Sub(b))
	require.True(t, a.IsPositive())
	require.False(t, Amount(0).IsPositive())
}

func TestString(t *testing.T) {
	require.Equal(t, "₦50.00", Amount(5000).String())
	require.Equal(t, "₦12,345.67", Amount(1234567).String())
	require.Equal(t, "-₦0.01", Amount(-1).String())
}

func TestGenerateWalletNumber(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		num, err := GenerateWalletNumber()
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{12}$`), num)
		seen[num] = true
	}

	// 100 draws from a 13-digit space should never collide
	require.Len(t, seen, 100)
}

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference()
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^txn_[0-9]+_[0-9a-f]{12}$`), ref)

	other, err := GenerateReference()
	require.NoError(t, err)
	require.NotEqual(t, ref, other)
}
