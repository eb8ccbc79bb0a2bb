package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode はクライアントが分岐に使う失敗理由。closedな集合。
type ErrorCode string

const (
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInternal        ErrorCode = "INTERNAL"

	//注文作成まわり
	CodeAddressNotFound     ErrorCode = "ADDRESS_NOT_FOUND"
	CodeProductUnavailable  ErrorCode = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock   ErrorCode = "INSUFFICIENT_STOCK"
	CodeInvalidCoupon       ErrorCode = "INVALID_COUPON"
	CodeCouponLimitExceeded ErrorCode = "COUPON_LIMIT_EXCEEDED"
	CodeMinimumAmountNotMet ErrorCode = "MINIMUM_AMOUNT_NOT_MET"
	CodeIdempotencyConflict ErrorCode = "IDEMPOTENCY_CONFLICT"

	//遷移・決済まわり
	CodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeAmountMismatch              ErrorCode = "AMOUNT_MISMATCH"
	CodeCODNotEligible              ErrorCode = "COD_NOT_ELIGIBLE"
	CodeCollectionAmountMismatch    ErrorCode = "COLLECTION_AMOUNT_MISMATCH"
	CodeSignatureVerificationFailed ErrorCode = "SIGNATURE_VERIFICATION_FAILED"
	CodeInvalidSignature            ErrorCode = "INVALID_SIGNATURE"
)

// HTTPError はusecaseから上に返す失敗。
// Statusはそのままレスポンスコード、Codeは機械用、Messageは人間用。
type HTTPError struct {
	Status  int
	Code    ErrorCode
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code ErrorCode, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// DB起因の失敗は詳細を漏らさず500に丸める
func errInternal() error {
	return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
}
