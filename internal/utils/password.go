package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword хеширует пароль bcrypt'ом (cost 12, соль в каждом вызове своя).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash сравнивает пароль с хешем (сравнение внутри bcrypt constant-time).
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
