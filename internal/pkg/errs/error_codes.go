/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a message body could not be parsed as JSON.
	ErrInvalidJSONFormat = 1002

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1003
)

// 2xxx: Canvas and Room Business Logic Errors
const (
	// ErrNothingToUndo indicates an undo request against a blank canvas.
	// Expected and non-fatal; reported to the requesting client only.
	ErrNothingToUndo = 2101

	// ErrNothingToRedo indicates a redo request with no undone strokes to restore.
	// Expected and non-fatal; reported to the requesting client only.
	ErrNothingToRedo = 2102

	// ErrInvalidStroke indicates a stroke payload that failed transport-level
	// validation (no points, or a non-positive width).
	ErrInvalidStroke = 2201

	// ErrStrokeTooLarge indicates a stroke payload with more points than the server accepts.
	ErrStrokeTooLarge = 2202
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
