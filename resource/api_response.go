package resource

import "fmt"

// APIResponseKind classifies a transport outcome.
type APIResponseKind int

const (
	APISuccess APIResponseKind = iota
	APIEmpty
	APIError
)

// APIResponse is the generic wrapped transport response of a remote call.
type APIResponse[T any] struct {
	Kind         APIResponseKind
	Body         T
	StatusCode   int
	ErrorMessage string
}

// NewAPISuccess wraps a decoded body.
func NewAPISuccess[T any](statusCode int, body T) APIResponse[T] {
	return APIResponse[T]{Kind: APISuccess, StatusCode: statusCode, Body: body}
}

// NewAPIEmpty marks a successful response without body.
func NewAPIEmpty[T any](statusCode int) APIResponse[T] {
	return APIResponse[T]{Kind: APIEmpty, StatusCode: statusCode}
}

// NewAPIError wraps a server or transport failure message.
func NewAPIError[T any](statusCode int, message string) APIResponse[T] {
	return APIResponse[T]{Kind: APIError, StatusCode: statusCode, ErrorMessage: message}
}

// String implements the stringer interface.
func (r APIResponse[T]) String() string {
	switch r.Kind {
	case APISuccess:
		return fmt.Sprintf("success (%d)", r.StatusCode)
	case APIEmpty:
		return fmt.Sprintf("empty (%d)", r.StatusCode)
	}

	return fmt.Sprintf("error (%d): %s", r.StatusCode, r.ErrorMessage)
}
