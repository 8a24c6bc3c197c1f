package razorpay

import "github.com/dmitrymomot/menukit/pkg/webhook"

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Razorpay-Signature"

// VerifyWebhook checks the signature of a raw webhook body.
func VerifyWebhook(secret string, body []byte, signature string) error {
	return webhook.Verify(secret, body, signature)
}

// VerifyPayment checks the checkout callback signature, computed over
// paymentID + "|" + subscriptionID with the API key secret.
func VerifyPayment(secret, paymentID, subscriptionID, signature string) error {
	return webhook.Verify(secret, []byte(paymentID+"|"+subscriptionID), signature)
}
