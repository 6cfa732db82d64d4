package config

type PaymentConfig interface {
	GetRazorpayKeyID() string
	GetDefaultCurrency() string
}

type Payment struct{}

var _ PaymentConfig = Payment{}

func (Payment) GetRazorpayKeyID() string {
	return GetEnv("RAZORPAY_KEY_ID", "")
}

func (Payment) GetDefaultCurrency() string {
	return GetEnv("PAYMENT_CURRENCY", "INR")
}
