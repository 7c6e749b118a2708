package money

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount is a monetary value in kobo (minor units).
// All arithmetic stays in integers; floats never enter the ledger.
type Amount int64

var ErrNegativeAmount = errors.New("amount cannot be negative")

func FromKobo(kobo int64) (Amount, error) {
	if kobo < 0 {
		return 0, ErrNegativeAmount
	}
	return Amount(kobo), nil
}

func (a Amount) Kobo() int64 {
	return int64(a)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

func (a Amount) Add(b Amount) Amount {
	return a + b
}

func (a Amount) Sub(b Amount) Amount {
	return a - b
}

var printer = message.NewPrinter(language.English)

// String renders the amount in naira for display and notification emails.
// e.g. Amount(1234567) -> "₦12,345.67"
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return printer.Sprintf("%s₦%d.%02d", sign, v/100, v%100)
}

const walletNumberLength = 13

// GenerateWalletNumber returns a random 13-digit numeric wallet number.
// Callers must check uniqueness against the wallets table and retry on
// collision.
func GenerateWalletNumber() (string, error) {
	// 1000000000000 .. 9999999999999
	max := big.NewInt(9_000_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", walletNumberLength, n.Int64()+1_000_000_000_000), nil
}

// GenerateReference returns a unique-looking transaction reference.
// Uniqueness is ultimately enforced by the transactions table; callers
// retry against that constraint.
func GenerateReference() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return fmt.Sprintf("txn_%d_%s", time.Now().UnixNano(), hex.EncodeToString(buf)), nil
}
