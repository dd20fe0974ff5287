package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC computes a hex-encoded HMAC-SHA256 of the message. This is the
// scheme Razorpay uses for payment signatures: the signed message is
// "<order_id>|<payment_id>" and the secret is the API key secret.
func SignHMAC(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC verifies a hex-encoded HMAC signature in constant time.
func VerifyHMAC(message, signature, secret string) bool {
	expected := SignHMAC(message, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
