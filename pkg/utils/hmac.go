package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// HmacSHA256Hex returns the hex-encoded HMAC-SHA256 of message under secret.
func HmacSHA256Hex(secret, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// HmacSHA512Hex returns the hex-encoded HMAC-SHA512 of message under secret.
func HmacSHA512Hex(secret, message []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// SecureCompare performs a constant-time comparison of two signature strings.
// Length mismatch short-circuits, which is fine: length is not secret.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
