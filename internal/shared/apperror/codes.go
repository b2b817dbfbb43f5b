package apperror

// Stable machine-readable codes carried in the error envelope. Clients
// branch on these, so renaming one is a breaking API change.
const (
	// CodeInvalidInput covers request binding failures and form payloads
	// that fail per-code validation.
	CodeInvalidInput = "INVALID_INPUT"
	// CodeUnauthorized means the request carried no usable identity.
	CodeUnauthorized = "UNAUTHORIZED"
	// CodeForbidden means the caller is known but is not allowed to act,
	// e.g. approving an application they are not the current approver of.
	CodeForbidden = "FORBIDDEN"
	CodeNotFound  = "NOT_FOUND"
	// CodeConflict signals a lost race: a concurrent decision already
	// moved the application, or a referenced route is frozen.
	CodeConflict = "CONFLICT"
	// CodeInvalidState rejects transitions out of a terminal status.
	CodeInvalidState = "INVALID_STATE"

	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
