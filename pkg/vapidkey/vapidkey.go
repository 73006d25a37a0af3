// Package vapidkey handles VAPID application server keys: generating a key
// pair and converting the base64url form served by the backend into the raw
// bytes a push platform expects as applicationServerKey.
package vapidkey

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
)

const (
	// PublicKeySize is the length of an uncompressed P-256 point.
	PublicKeySize = 65
	// PrivateKeySize is the length of a P-256 scalar.
	PrivateKeySize = 32
)

var ErrInvalidPublicKey = errors.New("invalid VAPID public key")

var urlSafeReplacer = strings.NewReplacer("-", "+", "_", "/")

// KeyPair is a VAPID key pair in unpadded base64url form.
type KeyPair struct {
	PublicKey  string
	PrivateKey string
}

// Generate creates a new P-256 key pair.
func Generate() (*KeyPair, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	return &KeyPair{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}, nil
}

// Decode converts an unpadded base64url string into raw bytes. The input is
// padded with '=' to a multiple of four and mapped onto the standard base64
// alphabet before decoding.
func Decode(s string) ([]byte, error) {
	padding := strings.Repeat("=", (4-len(s)%4)%4)
	std := urlSafeReplacer.Replace(s + padding)
	b, err := base64.StdEncoding.DecodeString(std)
	if err != nil {
		return nil, fmt.Errorf("failed to decode application server key: %w", err)
	}
	return b, nil
}

// Encode is the inverse of Decode.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodePublicKey decodes s and checks that it is an uncompressed P-256 point.
func DecodePublicKey(s string) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != PublicKeySize || b[0] != 0x04 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidPublicKey, len(b))
	}
	return b, nil
}
