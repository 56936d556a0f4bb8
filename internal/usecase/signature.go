package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"course-access-platform/internal/domain"
)

// PaymentSigner derives and checks gateway callback signatures:
// hex(HMAC-SHA256(secret, orderRef + "|" + paymentRef)).
type PaymentSigner struct {
	secret []byte
}

func NewPaymentSigner(secret string) *PaymentSigner {
	return &PaymentSigner{secret: []byte(secret)}
}

func (s *PaymentSigner) Sign(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify requires an exact byte match with the derived signature.
func (s *PaymentSigner) Verify(orderRef, paymentRef, supplied string) error {
	if len(s.secret) == 0 || orderRef == "" || paymentRef == "" || supplied == "" {
		return domain.ErrSignatureMismatch
	}
	expected := s.Sign(orderRef, paymentRef)
	if !hmac.Equal([]byte(expected), []byte(supplied)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}
