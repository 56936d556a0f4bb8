//go:build !integration

package usecase_test

import (
	"errors"
	"testing"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/usecase"
)

func TestPaymentSigner_RoundTrip(t *testing.T) {
	s := usecase.NewPaymentSigner("rzp_secret")
	sig := s.Sign("order_A1", "pay_B2")

	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	if err := s.Verify("order_A1", "pay_B2", sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestPaymentSigner_AnySingleCharMutationFails(t *testing.T) {
	s := usecase.NewPaymentSigner("rzp_secret")
	sig := s.Sign("order_A1", "pay_B2")

	for i := range sig {
		b := []byte(sig)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		if err := s.Verify("order_A1", "pay_B2", string(b)); !errors.Is(err, domain.ErrSignatureMismatch) {
			t.Fatalf("mutation at %d accepted", i)
		}
	}
}

func TestPaymentSigner_Rejects(t *testing.T) {
	s := usecase.NewPaymentSigner("rzp_secret")
	sig := s.Sign("order_A1", "pay_B2")

	cases := map[string]struct {
		signer              *usecase.PaymentSigner
		order, payment, sig string
	}{
		"swapped refs":   {s, "pay_B2", "order_A1", sig},
		"other payment":  {s, "order_A1", "pay_B3", sig},
		"uppercase hex":  {s, "order_A1", "pay_B2", upper(sig)},
		"empty sig":      {s, "order_A1", "pay_B2", ""},
		"empty order":    {s, "", "pay_B2", sig},
		"other secret":   {usecase.NewPaymentSigner("other"), "order_A1", "pay_B2", sig},
		"missing secret": {usecase.NewPaymentSigner(""), "order_A1", "pay_B2", sig},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := tc.signer.Verify(tc.order, tc.payment, tc.sig); !errors.Is(err, domain.ErrSignatureMismatch) {
				t.Fatalf("expected ErrSignatureMismatch, got %v", err)
			}
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}
