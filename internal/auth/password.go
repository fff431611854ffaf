package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword хэширует пароль bcrypt-ом, исходный текст нигде не хранится.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("хэширование пароля: %w", err)
	}
	return string(hash), nil
}

func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
