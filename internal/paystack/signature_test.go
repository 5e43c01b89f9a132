package paystack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jetemi/ng-pycon/internal/paystack"
)

func TestComputeSignature_KnownVector(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ORDERCODE123","amount":5400}}`)

	// openssl dgst -sha512 -hmac sk_test_webhook_secret
	want := "7a57a56fd799a7c0ca8c55f4924760236346abdfc812c3e77665f20915f1d23fa71424a1c890713926d194cd84cf9c39608c2ef7dccee97e7041437b894846a7"

	assert.Equal(t, want, paystack.ComputeSignature("sk_test_webhook_secret", body))
}

func TestVerifySignature(t *testing.T) {
	secret := "sk_test_webhook_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"ORDERCODE123"}}`)
	signature := paystack.ComputeSignature(secret, body)

	// Test case 1: a signature computed with the shared secret verifies.
	assert.True(t, paystack.VerifySignature(secret, body, signature))

	// Test case 2: any change to the payload invalidates the signature.
	tampered := []byte(`{"event":"charge.success","data":{"reference":"FORGEDCODE99"}}`)
	assert.False(t, paystack.VerifySignature(secret, tampered, signature))

	// Test case 3: a signature minted with another key is rejected.
	forged := paystack.ComputeSignature("sk_test_other_key", body)
	assert.False(t, paystack.VerifySignature(secret, body, forged))

	// Test case 4: a missing header never verifies.
	assert.False(t, paystack.VerifySignature(secret, body, ""))
}

func TestSignatureHeaderName(t *testing.T) {
	assert.Equal(t, "X-Paystack-Signature", paystack.SignatureHeader)
}
