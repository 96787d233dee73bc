package model

import "strings"

// User facing error messages.
const (
	ErrorUnknown                 = "Unknown error"
	ErrorCheckNetworkConnection  = "Check network connection."
	ErrorNetworkTimeout          = "Network timeout"
	ErrorMustSelectImage         = "You must select an image."
	ErrorSomethingWrongWithImage = "Something went wrong with the image."
	// ErrorInvalidPage is sent by the server when a page past the last one is requested.
	ErrorInvalidPage = "Invalid page."
)

// Success / status strings returned in GenericResponse.Response.
const (
	SuccessBlogDeleted          = "deleted"
	SuccessBlogUpdated          = "updated"
	ResponseHasPermissionToEdit = "You have permission to edit that."
	ResponseNoPermissionToEdit  = "You don't have permission to edit that."
)

// IsPaginationDone reports whether an error message means "no more pages".
func IsPaginationDone(message string) bool {
	return strings.Contains(message, ErrorInvalidPage)
}
