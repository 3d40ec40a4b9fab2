package middleware

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator registers the custom binding tags:
//
//	accessmode  the value is a known access mode
//	reasonlen   the trimmed value has at least minReasonLength characters
func SetupValidator(minReasonLength int) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("accessmode", func(fl validator.FieldLevel) bool {
		return domain.AccessMode(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("reasonlen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minReasonLength
	})
}
