/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported message format."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Canvas and Room Business Logic Errors
	ErrNothingToUndo:  {Code: ErrNothingToUndo, Message: "Nothing to undo."},
	ErrNothingToRedo:  {Code: ErrNothingToRedo, Message: "Nothing to redo."},
	ErrInvalidStroke:  {Code: ErrInvalidStroke, Message: "Invalid stroke."},
	ErrStrokeTooLarge: {Code: ErrStrokeTooLarge, Message: "Stroke has too many points."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
