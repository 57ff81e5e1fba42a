package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrNilEntity       = errors.New("entity is nil")
	ErrInvalidEntity   = errors.New("invalid entity")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidName     = errors.New("invalid collection name")
)
