package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const purposePasswordReset = "password_reset"

// TokenManager handles issuing and validating JWT tokens. Session tokens and
// password reset tokens share the signing secret but carry different
// lifetimes, and reset tokens are tagged with a purpose claim so one can
// never be used in place of the other.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, resetTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 2 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 20 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, resetTTL: resetTTL}
}

// Claims describes the JWT payload.
type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken builds and signs a session token for the user.
func (tm *TokenManager) GenerateAccessToken(userID, email string) (string, time.Time, error) {
	return tm.sign(&Claims{UserID: userID, Email: email}, tm.accessTTL)
}

// GenerateResetToken builds a short-lived password reset token. Nothing is
// persisted; validity rests entirely on the signature and expiry.
func (tm *TokenManager) GenerateResetToken(userID string) (string, time.Time, error) {
	return tm.sign(&Claims{UserID: userID, Purpose: purposePasswordReset}, tm.resetTTL)
}

func (tm *TokenManager) sign(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAccessToken validates a session token and returns its claims.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, errors.New("not a session token")
	}
	return claims, nil
}

// ParseResetToken validates a reset token and returns the embedded user id.
func (tm *TokenManager) ParseResetToken(tokenStr string) (string, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposePasswordReset {
		return "", errors.New("not a reset token")
	}
	return claims.UserID, nil
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
