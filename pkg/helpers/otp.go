package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the fixed length of verification codes.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// GenOTPCode draws a uniform code in [0, 999999] from crypto/rand and
// zero-pads it to six digits, so "007421" is a valid code.
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}
