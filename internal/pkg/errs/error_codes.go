/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both internally and in
payloads sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Business Logic Errors
const (
	// ErrEmptyUsername indicates a join attempt with an empty (after trimming) display name.
	ErrEmptyUsername = 2101

	// ErrUsernameTaken indicates a join attempt with a display name that is already online.
	ErrUsernameTaken = 2102

	// ErrMessageNotFound indicates a reaction or read receipt referencing an unknown message id.
	ErrMessageNotFound = 2201

	// ErrMessageContentTooLong indicates that the message body exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrRecipientRequired indicates a private message without a recipient connection id.
	ErrRecipientRequired = 2203
)

// 3xxx: Session Errors
const (
	// ErrNotAuthenticated indicates an operation attempted before a successful join.
	ErrNotAuthenticated = 3001
)

// 4xxx: File Upload Errors
const (
	// ErrFileSizeTooLarge indicates an uploaded file above the size limit.
	ErrFileSizeTooLarge = 4001

	// ErrFileTypeInvalid indicates a file whose MIME type or extension is not allowed.
	ErrFileTypeInvalid = 4002

	// ErrFileStorageFailed indicates the storage backend rejected the upload.
	ErrFileStorageFailed = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
