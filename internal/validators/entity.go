package validators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MKhiriev/go-farm-sync/models"
)

var (
	collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)
	fieldNamePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)
)

// CollectionName marks a string as a remote collection name so that it can
// be passed to [Validator.Validate].
type CollectionName string

// EntityValidator implements [Validator] on top of go-playground/validator.
//
// Supported inputs are any [models.Syncable], [models.Query],
// [models.DocumentWrite] and [CollectionName], by value or by pointer where
// applicable. Field names passed to Validate are Go struct field names
// ("Name", "ID") and restrict validation to those fields.
type EntityValidator struct {
	v *validator.Validate
}

// NewEntityValidator constructs an EntityValidator with the custom tags used
// by the models package registered.
func NewEntityValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("collection", func(fl validator.FieldLevel) bool {
		return collectionPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
		return fieldNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("filterop", func(fl validator.FieldLevel) bool {
		return models.FilterOp(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("jsonobject", func(fl validator.FieldLevel) bool {
		var obj map[string]json.RawMessage
		return json.Unmarshal(fl.Field().Bytes(), &obj) == nil
	})

	return &EntityValidator{v: v}
}

// Validate dispatches on the dynamic type of obj.
func (e *EntityValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case CollectionName:
		if err := e.v.VarCtx(ctx, string(value), "required,collection"); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidName, value)
		}
		return nil

	case models.Query:
		return e.validateStruct(ctx, ErrInvalidQuery, &value, fields...)
	case *models.Query:
		if value == nil {
			return ErrNilEntity
		}
		return e.validateStruct(ctx, ErrInvalidQuery, value, fields...)

	case models.DocumentWrite:
		return e.validateStruct(ctx, ErrInvalidDocument, &value, fields...)
	case *models.DocumentWrite:
		if value == nil {
			return ErrNilEntity
		}
		return e.validateStruct(ctx, ErrInvalidDocument, value, fields...)

	case models.Syncable:
		if isNilPointer(value) {
			return ErrNilEntity
		}
		return e.validateStruct(ctx, ErrInvalidEntity, value, fields...)
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
}

func (e *EntityValidator) validateStruct(ctx context.Context, sentinel error, obj any, fields ...string) error {
	var err error
	if len(fields) == 0 {
		err = e.v.StructCtx(ctx, obj)
	} else {
		paths, resolveErr := fieldPaths(obj, fields)
		if resolveErr != nil {
			return resolveErr
		}
		err = e.v.StructPartialCtx(ctx, obj, paths...)
	}
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	details := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, fe.Field()+" "+friendlyMessage(fe))
	}

	return fmt.Errorf("%w: %s", sentinel, strings.Join(details, "; "))
}

// fieldPaths turns Go field names into the dotted paths StructPartial
// expects, walking through embedded structs such as SyncMeta.
func fieldPaths(obj any, fields []string) ([]string, error) {
	typ := reflect.TypeOf(obj)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	paths := make([]string, 0, len(fields))
	for _, name := range fields {
		sf, ok := typ.FieldByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}

		parts := make([]string, 0, len(sf.Index))
		for i := range sf.Index {
			parts = append(parts, typ.FieldByIndex(sf.Index[:i+1]).Name)
		}
		paths = append(paths, strings.Join(parts, "."))
	}

	return paths, nil
}

func isNilPointer(obj any) bool {
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must not exceed " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "ne":
		return "must not be " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	case "collection":
		return "must be a lower-case collection name"
	case "fieldname":
		return "must be a plain field name"
	case "filterop":
		return "must be one of: == != < <= > >="
	case "jsonobject":
		return "must be a JSON object"
	default:
		return "is invalid"
	}
}
