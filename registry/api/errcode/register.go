package errcode

import (
	"fmt"
	"net/http"
	"sync"
)

var (
	errorCodeToDescriptors = map[ErrorCode]ErrorDescriptor{}
	idToDescriptors        = map[string]ErrorDescriptor{}

	nextCode     = 1000
	registerLock sync.Mutex
)

func register(descriptor ErrorDescriptor) ErrorCode {
	registerLock.Lock()
	defer registerLock.Unlock()

	descriptor.Code = ErrorCode(nextCode)
	if _, ok := idToDescriptors[descriptor.Value]; ok {
		panic(fmt.Sprintf("errcode: %q already registered", descriptor.Value))
	}

	errorCodeToDescriptors[descriptor.Code] = descriptor
	idToDescriptors[descriptor.Value] = descriptor
	nextCode++
	return descriptor.Code
}

// The error codes below map directly onto the "Kinds" enumerated in
// spec.md §7 and the status codes in spec.md §6.
var (
	// ErrorCodeUnknown is the fallback for anything not classified below.
	ErrorCodeUnknown = register(ErrorDescriptor{
		Value:          "UNKNOWN",
		Message:        "unknown error",
		Description:    "Generic error with no more specific classification.",
		HTTPStatusCode: http.StatusInternalServerError,
	})

	// ErrorCodeUnauthorized is returned when no credential is presented
	// and one is required (§7 Unauthorized).
	ErrorCodeUnauthorized = register(ErrorDescriptor{
		Value:          "UNAUTHORIZED",
		Message:        "authentication required",
		Description:    "No Authorization header was presented and the registry requires one.",
		HTTPStatusCode: http.StatusUnauthorized,
	})

	// ErrorCodeForbidden is returned when a credential is presented but
	// does not authenticate (§7 Forbidden).
	ErrorCodeForbidden = register(ErrorDescriptor{
		Value:          "FORBIDDEN",
		Message:        "invalid credential",
		Description:    "A credential was presented but did not match the configured token.",
		HTTPStatusCode: http.StatusForbidden,
	})

	// ErrorCodeNotFound covers unknown package names, versions, and
	// index paths (§7 NotFound).
	ErrorCodeNotFound = register(ErrorDescriptor{
		Value:          "NOT_FOUND",
		Message:        "not found",
		Description:    "The requested package, version, or index path is not known to the registry.",
		HTTPStatusCode: http.StatusNotFound,
	})

	// ErrorCodeBadRequest covers validation failures, malformed uploads,
	// and duplicate-version conflicts (§7 BadRequest / Conflict-as-BadRequest).
	ErrorCodeBadRequest = register(ErrorDescriptor{
		Value:          "BAD_REQUEST",
		Message:        "bad request",
		Description:    "The request was malformed, failed validation, or conflicted with existing state.",
		HTTPStatusCode: http.StatusBadRequest,
	})

	// ErrorCodePayloadTooLarge is returned when a publish body exceeds
	// crates.max_publish_size (§7 PayloadTooLarge).
	ErrorCodePayloadTooLarge = register(ErrorDescriptor{
		Value:          "PAYLOAD_TOO_LARGE",
		Message:        "payload too large",
		Description:    "The upload body exceeded the configured maximum publish size.",
		HTTPStatusCode: http.StatusRequestEntityTooLarge,
	})

	// ErrorCodeLengthRequired is returned when a publish request has no
	// known Content-Length (§7 LengthRequired).
	ErrorCodeLengthRequired = register(ErrorDescriptor{
		Value:          "LENGTH_REQUIRED",
		Message:        "length required",
		Description:    "The request body size must be known in advance via Content-Length.",
		HTTPStatusCode: http.StatusLengthRequired,
	})

	// ErrorCodeInternal wraps storage, codec, and I/O failures that are
	// not attributable to the caller (§7 InternalError).
	ErrorCodeInternal = register(ErrorDescriptor{
		Value:          "INTERNAL_ERROR",
		Message:        "internal error",
		Description:    "An unexpected storage, codec, or I/O error occurred.",
		HTTPStatusCode: http.StatusInternalServerError,
	})
)
