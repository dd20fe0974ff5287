package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerifyHMAC(t *testing.T) {
	message := "order_abc|pay_123"
	secret := "key_secret"

	sig := SignHMAC(message, secret)
	assert.NotEmpty(t, sig)
	assert.True(t, VerifyHMAC(message, sig, secret))
}

func TestVerifyHMACRejectsTampering(t *testing.T) {
	sig := SignHMAC("order_abc|pay_123", "key_secret")

	assert.False(t, VerifyHMAC("order_abc|pay_999", sig, "key_secret"))
	assert.False(t, VerifyHMAC("order_abc|pay_123", sig, "other_secret"))
	assert.False(t, VerifyHMAC("order_abc|pay_123", "deadbeef", "key_secret"))
}
