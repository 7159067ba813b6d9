package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSessionToken создаёт подписанный токен сессии для куки.
// Окно фиксированное: exp ставится один раз при выдаче и не продлевается.
func GenerateSessionToken(secret, sid string, userID int, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sid":     sid,
		"user_id": userID,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken проверяет подпись и срок и возвращает sid и user_id.
func ParseSessionToken(secret, tokenString string) (string, int, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", 0, errors.New("невалидный токен сессии")
	}

	sid, ok1 := claims["sid"].(string)
	userID, ok2 := claims["user_id"].(float64)
	if !ok1 || !ok2 {
		return "", 0, errors.New("неверный payload токена")
	}
	return sid, int(userID), nil
}
