package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hszk-dev/mediagate/internal/domain/model"
)

// PresignInput contains the input parameters for issuing a presigned URL.
// A nil ExpiresIn selects the configured default.
type PresignInput struct {
	ObjectKey string  `json:"object_key" validate:"required,maxbytes=1024"`
	ExpiresIn *uint64 `json:"expires_in"`
}

// PresignURL implements MediaService.
func (s *mediaService) PresignURL(ctx context.Context, input PresignInput) (*model.PresignedURL, error) {
	expiresIn := s.cfg.PresignDefaultExpiry
	if input.ExpiresIn != nil {
		expiresIn = *input.ExpiresIn
	}

	if err := s.validatePresign(input, expiresIn); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, input.ObjectKey, time.Duration(expiresIn)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", input.ObjectKey, err)
	}

	return &model.PresignedURL{
		URL:       url,
		ExpiresIn: expiresIn,
	}, nil
}

func (s *mediaService) validatePresign(input PresignInput, expiresIn uint64) error {
	if err := s.validate.Struct(input); err != nil {
		return toValidationError(err)
	}

	bounds := fmt.Sprintf("gte=%d,lte=%d", s.cfg.PresignMinExpiry, s.cfg.PresignMaxExpiry)
	if err := s.validate.Var(expiresIn, bounds); err != nil {
		return &ValidationError{
			Field:  "expires_in",
			Reason: fmt.Sprintf("must be between %d and %d seconds", s.cfg.PresignMinExpiry, s.cfg.PresignMaxExpiry),
		}
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// S3 caps keys at 1024 bytes of UTF-8; the built-in max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// toValidationError turns the first validator failure into a client-facing message.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}

	fe := verrs[0]
	ve := &ValidationError{Field: fe.Field()}
	switch fe.Tag() {
	case "required":
		ve.Reason = "is required"
	case "maxbytes":
		ve.Reason = fmt.Sprintf("must be at most %s bytes", fe.Param())
	default:
		ve.Reason = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return ve
}
