// Package apierr defines the fixed error taxonomy shared by every endpoint.
package apierr

// Code is a stable machine-readable error identifier.
type Code string

const (
	InvalidAuthToken           Code = "INVALID_AUTH_TOKEN"
	AuthenticationFailed       Code = "AUTHENTICATION_FAILED"
	IncorrectCredentials       Code = "INCORRECT_CREDENTIALS"
	MissingRequiredPermissions Code = "MISSING_REQUIRED_PERMISSIONS"
	AccountWasSuspended        Code = "ACCOUNT_WAS_SUSPENDED"
	AccountNotFound            Code = "ACCOUNT_NOT_FOUND"
	ItemNotFound               Code = "ITEM_NOT_FOUND"
	ResourceNotFound           Code = "RESOURCE_NOT_FOUND"
	AccountAlreadyExists       Code = "ACCOUNT_ALREADY_EXISTS"
	AccountWasDeleted          Code = "ACCOUNT_WAS_DELETED"
	MissingOrInvalidFields     Code = "MISSING_OR_INVALID_FIELDS"
	TooManyRequests            Code = "TOO_MANY_REQUESTS"
	FeatureUnavailable         Code = "FEATURE_UNAVAILABLE"
	InternalServerError        Code = "INTERNAL_SERVER_ERROR"
)

type entry struct {
	Message string
	Status  int
}

var catalog = map[Code]entry{
	InvalidAuthToken:           {"Your OAuth token was expired.", 401},
	AuthenticationFailed:       {"Authentication failed due to invalid verification code.", 401},
	IncorrectCredentials:       {"Your app is outdated or have an issue.", 401},
	MissingRequiredPermissions: {"You lack the necessary permissions to access this resource.", 403},
	AccountWasSuspended:        {"Your account has been suspended.", 404},
	AccountNotFound:            {"This account does not exists.", 404},
	ItemNotFound:               {"This item does not exists.", 404},
	ResourceNotFound:           {"This route does not exists.", 404},
	AccountAlreadyExists:       {"An account with this credential already exists.", 409},
	AccountWasDeleted:          {"Your account was deleted and should be recovered before you can use it.", 410},
	MissingOrInvalidFields:     {"Your app is outdated or have an issue.", 422},
	TooManyRequests:            {"Server is busy please try again later.", 429},
	FeatureUnavailable:         {"The feature is currently unavailable.", 500},
	InternalServerError:        {"Something went wrong on our side.", 500},
}

// Error is a typed failure outcome carrying a catalog code, an optional
// exception detail (surfaced only in debug mode) and optional extra body
// fields merged into the error envelope.
type Error struct {
	Code      Code
	Exception string
	Extra     map[string]any
}

func (e *Error) Error() string {
	if e.Exception != "" {
		return string(e.Code) + ": " + e.Exception
	}
	return string(e.Code)
}

// Message returns the human-readable catalog message for the code.
func (e *Error) Message() string {
	return catalog[e.Code].Message
}

// Status returns the mapped HTTP status for the code.
func (e *Error) Status() int {
	if entry, ok := catalog[e.Code]; ok {
		return entry.Status
	}
	return 500
}

// New returns an Error for the given code.
func New(code Code) *Error {
	return &Error{Code: code}
}

// WithException attaches a failure detail to the error.
func (e *Error) WithException(detail string) *Error {
	e.Exception = detail
	return e
}

// WithExtra merges additional fields into the error body.
func (e *Error) WithExtra(extra map[string]any) *Error {
	e.Extra = extra
	return e
}
