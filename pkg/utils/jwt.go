package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims petugas loket. Role dipakai untuk membatasi endpoint tertentu.
type Claims struct {
	IDKaryawan string `json:"id_karyawan"`
	Role       string `json:"role"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateJWTToken membuat token HS256 untuk terminal petugas.
func GenerateJWTToken(secret, idKaryawan, role, username string, exp time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret key is missing")
	}

	claims := Claims{
		IDKaryawan: idKaryawan,
		Role:       role,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   idKaryawan,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWTToken memvalidasi token JWT dan mengembalikan klaimnya.
func ValidateJWTToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret key is missing")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
