package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

// TokenTTL is how long an admin session lasts.
const TokenTTL = 24 * time.Hour

var (
	ErrInvalidPIN   = errors.New("invalid PIN")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims defines what is inside the token
type Claims struct {
	Terminal string `json:"terminal"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager checks the admin PIN and issues the session tokens.
type Manager struct {
	key      []byte
	pinHash  []byte
	terminal string
	now      func() time.Time
}

// NewManager builds a manager from the configured secret and PIN. A PIN
// hash wins over a plain PIN. Without a secret a random one is generated,
// so tokens do not survive a restart.
func NewManager(secret, pin, pinHash, terminal string) (*Manager, error) {
	m := &Manager{terminal: terminal, now: time.Now}

	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Wrap(err, "generate jwt secret")
		}
		secret = hex.EncodeToString(buf)
		log.Warn("JWT_SECRET is not set, admin sessions end when the server restarts")
	}
	m.key = []byte(secret)

	switch {
	case pinHash != "":
		if _, err := bcrypt.Cost([]byte(pinHash)); err != nil {
			return nil, errors.Wrap(err, "ADMIN_PIN_HASH is not a bcrypt hash")
		}
		m.pinHash = []byte(pinHash)
	case pin != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash admin pin")
		}
		m.pinHash = hash
	default:
		return nil, errors.New("either ADMIN_PIN or ADMIN_PIN_HASH is required")
	}
	return m, nil
}

// Login checks pin and returns a signed admin token.
func (m *Manager) Login(pin string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(m.pinHash, []byte(pin)); err != nil {
		return "", time.Time{}, ErrInvalidPIN
	}
	return m.GenerateToken(RoleAdmin)
}

// GenerateToken creates a signed JWT carrying role.
func (m *Manager) GenerateToken(role string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(TokenTTL)
	claims := &Claims{
		Terminal: m.terminal,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, expires, nil
}

// ValidateToken checks if a token is fake or expired
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
