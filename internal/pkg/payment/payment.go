// Package payment 校验支付网关回传的签名（Razorpay 方案）。
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingReference = errors.New("payment reference is required")
	ErrInvalidSignature = errors.New("payment signature mismatch")
)

// Reference 支付凭证
type Reference struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Verifier 未配置 key_secret 时只要求 payment_id 非空（开发环境）
type Verifier struct {
	keySecret string
}

func NewVerifier(keySecret string) *Verifier {
	return &Verifier{keySecret: keySecret}
}

// Verify 校验 HMAC-SHA256(order_id|payment_id)
func (v *Verifier) Verify(ref Reference) error {
	if strings.TrimSpace(ref.PaymentID) == "" {
		return ErrMissingReference
	}
	if v.keySecret == "" {
		return nil
	}
	if ref.OrderID == "" || ref.Signature == "" {
		return ErrMissingReference
	}

	expected := Sign(v.keySecret, ref.OrderID, ref.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(ref.Signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign 计算签名，十六进制小写
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
