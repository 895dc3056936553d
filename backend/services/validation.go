package services

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
}

// structFields runs the struct tags of input and converts failures into field errors.
func structFields(input interface{}) ([]FieldError, error) {
	err := validate.Struct(input)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fieldMessage(fe), Kind: ErrInvalidInput})
	}
	return fields, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

const MaxImageSize = 5 << 20

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// checkImage applies the cover image rules: allowed extension and at most MaxImageSize bytes.
func checkImage(u *Upload, field string) []FieldError {
	if u == nil {
		return nil
	}
	if !imageExts[u.Ext()] || u.Size > MaxImageSize {
		return []FieldError{fieldError(field, ErrInvalidImage)}
	}
	return nil
}

func fileExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
