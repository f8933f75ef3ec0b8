package payment

// Gateway abstracts the payment provider's cryptographic surface. The
// provider itself (checkout widget, capture, refunds) is an external
// collaborator; this service only ever verifies what the provider signed.
type Gateway interface {
	// VerifyWebhookSignature checks the HMAC over a raw webhook body.
	VerifyWebhookSignature(body []byte, signature string) error
	// VerifyPaymentSignature checks the signature a client submits after a
	// redirect-based payment flow.
	VerifyPaymentSignature(orderID, paymentID, signature string) error
}
