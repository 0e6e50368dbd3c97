package service

import "errors"

// Kind classifies an Error for the HTTP boundary.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindInvalid         Kind = "INVALID"
	KindExpired         Kind = "EXPIRED"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindAccessDenied    Kind = "ACCESS_DENIED"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// Error is a domain error with a stable code. Two Errors match under
// errors.Is when their codes are equal, so a validation error carrying a
// field-specific message still matches its sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

var (
	ErrValidation      = &Error{KindValidation, "VALIDATION_001", "validation failed"}
	ErrUnauthenticated = &Error{KindUnauthenticated, "AUTH_001", "authentication required"}
	ErrInternal        = &Error{KindInternal, "INTERNAL_001", "an unexpected error occurred"}

	ErrEmailExists      = &Error{KindConflict, "USER_001", "a user with this email already exists"}
	ErrUserNotFound     = &Error{KindNotFound, "USER_002", "user not found"}
	ErrUsernameExists   = &Error{KindConflict, "USER_003", "a user with this username already exists"}
	ErrInvalidUser      = &Error{KindValidation, "USER_004", "invalid user data"}
	ErrInvalidAvatar    = &Error{KindValidation, "USER_005", "invalid avatar image"}
	ErrUserDeleteFailed = &Error{KindInternal, "USER_008", "failed to delete user"}

	ErrInvalidCredentials = &Error{KindUnauthenticated, "AUTH_003", "invalid email or password"}
	ErrEmailNotVerified   = &Error{KindValidation, "AUTH_004", "email address is not verified"}

	ErrOtpNotFound = &Error{KindNotFound, "OTP_001", "no verification code found for this email"}
	ErrOtpExpired  = &Error{KindExpired, "OTP_002", "verification code has expired"}
	ErrOtpInvalid  = &Error{KindInvalid, "OTP_003", "verification code is invalid"}

	ErrWorkspaceNotFound     = &Error{KindNotFound, "WORKSPACE_001", "workspace not found"}
	ErrWorkspaceAccessDenied = &Error{KindAccessDenied, "WORKSPACE_002", "you do not have access to this workspace"}
	ErrInvalidWorkspace      = &Error{KindValidation, "WORKSPACE_003", "invalid workspace data"}

	ErrAlreadyMember           = &Error{KindConflict, "USER_WORKSPACE_001", "user is already a member of this workspace"}
	ErrMembershipNotFound      = &Error{KindNotFound, "USER_WORKSPACE_002", "user is not a member of this workspace"}
	ErrInsufficientPermissions = &Error{KindAccessDenied, "USER_WORKSPACE_003", "insufficient permissions for this workspace"}
	ErrLastOwner               = &Error{KindConflict, "USER_WORKSPACE_004", "a workspace must keep at least one owner"}

	ErrDocumentNotFound = &Error{KindNotFound, "DOCUMENT_001", "document not found"}
	ErrInvalidDocument  = &Error{KindValidation, "DOCUMENT_002", "invalid document data"}
)

// AsError unwraps err to a domain Error. Anything else becomes ErrInternal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}
