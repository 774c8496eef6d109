package types

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("itinerary is no longer pending")
	ErrLLMNotConfigured    = errors.New("la clave de API del modelo de lenguaje no está configurada")
	ErrEmptyLLMResponse    = errors.New("el modelo de lenguaje devolvió una respuesta vacía")
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
)

// InputError is a user-facing validation failure. Message is Spanish and is
// returned verbatim to API clients.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func NewInputError(msg string) error {
	return &InputError{Message: msg}
}
