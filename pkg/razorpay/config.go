package razorpay

// Config holds gateway credentials. KeyID is public and returned to checkout clients.
type Config struct {
	KeyID         string `env:"RAZORPAY_KEY_ID"`
	KeySecret     string `env:"RAZORPAY_KEY_SECRET"`
	WebhookSecret string `env:"RAZORPAY_WEBHOOK_SECRET"`
	TestMode      bool   `env:"RAZORPAY_TEST_MODE" envDefault:"false"`
	TotalCount    int    `env:"RAZORPAY_TOTAL_COUNT" envDefault:"12"`
}
