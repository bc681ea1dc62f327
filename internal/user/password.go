package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordDigits  = "0123456789"
	passwordSpecial = "!@#$%^&*()-_=+"
)

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GeneratePassword returns a random password of the given length containing
// at least one lowercase, uppercase, digit and special character.
func GeneratePassword(length int) (string, error) {
	if length < 4 {
		length = 12
	}

	pool := passwordLower + passwordUpper + passwordDigits + passwordSpecial

	for {
		var b strings.Builder
		for i := 0; i < length; i++ {
			idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
			if err != nil {
				return "", fmt.Errorf("generate password: %w", err)
			}
			b.WriteByte(pool[idx.Int64()])
		}
		pw := b.String()

		if strings.ContainsAny(pw, passwordLower) &&
			strings.ContainsAny(pw, passwordUpper) &&
			strings.ContainsAny(pw, passwordDigits) &&
			strings.ContainsAny(pw, passwordSpecial) {
			return pw, nil
		}
	}
}
