package validator

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator はechoのc.Validate()から呼ばれるアダプタ。
// エラーはそのまま返し、HTTPエラーへの変換はhandler側でやる。
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
