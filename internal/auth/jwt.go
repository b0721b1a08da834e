package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access tokens from refresh tokens. A refresh
// token can mint a new pair but never authorizes an API call directly.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Issuer signs and verifies the JWTs used by the API.
type Issuer struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewIssuer(secret string, accessExpiry, refreshExpiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret must not be empty")
	}
	return &Issuer{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}, nil
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	UserID uint
	Type   TokenType
}

func (i *Issuer) Issue(userID uint, tokenType TokenType) (string, error) {
	expiry := i.accessExpiry
	if tokenType == TokenRefresh {
		expiry = i.refreshExpiry
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"type": string(tokenType),
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// IssuePair mints a fresh access/refresh token pair for userID.
func (i *Issuer) IssuePair(userID uint) (access, refresh string, err error) {
	if access, err = i.Issue(userID, TokenAccess); err != nil {
		return "", "", err
	}
	if refresh, err = i.Issue(userID, TokenRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify parses tokenString and checks signature, expiry and type.
func (i *Issuer) Verify(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenType, _ := claims["type"].(string)
	if TokenType(tokenType) != expected {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expected, tokenType)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
		return nil, fmt.Errorf("invalid subject in token")
	}

	return &Claims{UserID: userID, Type: TokenType(tokenType)}, nil
}
