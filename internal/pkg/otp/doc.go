// Package otp generates one-time verification codes.
//
// Codes are short numeric strings drawn from crypto/rand. They are meant to
// be stored server-side with a TTL and compared against user input; knowing
// any number of previously issued codes gives no information about the next
// one, which is why a general-purpose PRNG is not acceptable here.
package otp
