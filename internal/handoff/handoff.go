// Package handoff issues the signed token a finder shows at the meetup. Redeeming it
// asserts that the item was returned.
package handoff

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrInvalidToken is returned for tokens that are forged, expired or malformed.
var ErrInvalidToken = errors.New("invalid handoff token")

const (
	issuer   = "lnfd"
	audience = "handoff"
)

// Claims binds a token to one conversation.
type Claims struct {
	ConversationID string `json:"conversation_id"`
	Item           string `json:"item,omitempty"`
	jwt.RegisteredClaims
}

// Ticket is an issued handoff token.
type Ticket struct {
	ConversationID string    `json:"conversation_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Issuer signs and verifies handoff tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. Tokens expire after ttl.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for conversationID.
func (i *Issuer) Issue(conversationID, item string) (Ticket, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := &Claims{
		ConversationID: conversationID,
		Item:           item,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   conversationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Ticket{}, fmt.Errorf("sign handoff token: %w", err)
	}
	return Ticket{ConversationID: conversationID, Token: token, ExpiresAt: exp}, nil
}

// Verify returns the claims of a valid token.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ConversationID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RenderQR draws content as a QR code using Unicode half blocks, two bitmap rows per
// terminal line.
func RenderQR(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("generate qr: %w", err)
	}
	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}

// WriteQRFile writes content as a PNG QR code.
func WriteQRFile(content, path string, size int) error {
	if size <= 0 {
		size = 256
	}
	if err := qrcode.WriteFile(content, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}

// EncodePNG returns content as a PNG QR code.
func EncodePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}
