package entity

// DeliveryResult reports the outcome of sending a code to an identifier.
//
// Ordinary delivery failures are a value, not an error: providers fail often
// and the caller decides how to surface it.
type DeliveryResult struct {
	Delivered   bool
	ProviderRef string
}
