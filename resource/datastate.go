package resource

import "fmt"

type (
	// Status is the envelope state.
	Status int

	// ResponseType tells the host how to surface a Response.
	ResponseType int

	// Response is a message attached to an envelope.
	Response struct {
		Message string
		Type    ResponseType
	}

	// DataState is the envelope published to observers.
	// Data and Response are consumed-once; either may be nil.
	DataState[T any] struct {
		Status   Status
		Data     *Event[*T]
		Response *Event[Response]
	}
)

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

const (
	ResponseNone ResponseType = iota
	ResponseToast
	ResponseDialog
)

// String implements the stringer interface.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}

	return fmt.Sprintf("status(%d)", int(s))
}

// String implements the stringer interface.
func (t ResponseType) String() string {
	switch t {
	case ResponseNone:
		return "none"
	case ResponseToast:
		return "toast"
	case ResponseDialog:
		return "dialog"
	}

	return fmt.Sprintf("responseType(%d)", int(t))
}

// Loading builds an intermediate envelope, optionally carrying stale cached data.
func Loading[T any](cached *T) DataState[T] {
	state := DataState[T]{Status: StatusLoading}
	if cached != nil {
		state.Data = NewEvent(cached)
	}

	return state
}

// Data builds a successful terminal envelope.
func Data[T any](data *T, response *Response) DataState[T] {
	state := DataState[T]{Status: StatusSuccess}
	if data != nil {
		state.Data = NewEvent(data)
	}
	if response != nil {
		state.Response = NewEvent(*response)
	}

	return state
}

// Error builds a failed terminal envelope.
func Error[T any](response Response) DataState[T] {
	return DataState[T]{
		Status:   StatusError,
		Response: NewEvent(response),
	}
}

// IsTerminal reports whether no further envelopes follow this one.
func (s DataState[T]) IsTerminal() bool {
	return s.Status != StatusLoading
}

// Message peeks the attached response message ("" when absent).
func (s DataState[T]) Message() string {
	if s.Response == nil {
		return ""
	}

	return s.Response.PeekContent().Message
}

// String implements the stringer interface.
func (s DataState[T]) String() string {
	return fmt.Sprintf("%s (data: %t, message: %q)", s.Status, s.Data != nil, s.Message())
}
