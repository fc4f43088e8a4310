package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHmacSHA256Hex(t *testing.T) {
	// RFC 2202-style known vector.
	got := HmacSHA256Hex([]byte("key"), []byte("The quick brown fox jumps over the lazy dog"))
	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", got)
}

func TestHmacSHA512Hex(t *testing.T) {
	got := HmacSHA512Hex([]byte("key"), []byte("The quick brown fox jumps over the lazy dog"))
	assert.Equal(t,
		"b42af09057bac1e2d41708e48a902e09b5ff7f12ab428a4fe86653c73dd248fb82f948a549f7b791a5b41915ee4d1ec3935357e4e2317250d0372afa2ebeeb3a",
		got)
}

func TestHmacDiffersOnTamper(t *testing.T) {
	secret := []byte("whsec_test")
	a := HmacSHA256Hex(secret, []byte(`{"amount":40000}`))
	b := HmacSHA256Hex(secret, []byte(`{"amount":40001}`))
	assert.NotEqual(t, a, b)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("abc123", "abc123"))
	assert.False(t, SecureCompare("abc123", "abc124"))
	assert.False(t, SecureCompare("abc123", "abc12"))
	assert.False(t, SecureCompare("", "x"))
	assert.True(t, SecureCompare("", ""))
}
