// Package errors carries the categorized service errors that HTTP handlers
// translate into status codes.
package errors

import (
	"errors"
	"net/http"
)

// Category classifies a ServiceError for transport mapping.
type Category int

const (
	// zero value is reserved so an unset Category never maps to a 4xx
	_ Category = iota
	// CategoryDataError covers malformed requests: bad JSON, invalid
	// addresses, envelopes whose digest does not match their record.
	CategoryDataError
	// CategoryUnauthorized means the caller (or its wallet) could not be
	// authenticated.
	CategoryUnauthorized
	// CategoryForbidden means the caller is known but the operation was
	// refused, e.g. a contract account rejected a signature.
	CategoryForbidden
	CategoryResourceNotFound
	// CategoryDataConflict means the request collides with existing state,
	// e.g. a submission that was already accepted.
	CategoryDataConflict
	// CategoryDependencyFailure means a chain node, bundler or wallet failed.
	CategoryDependencyFailure
	CategoryGeneralError
)

var categoryInfo = map[Category]struct {
	name   string
	status int
}{
	CategoryDataError:         {"CategoryDataError", http.StatusBadRequest},
	CategoryUnauthorized:      {"CategoryUnauthorized", http.StatusUnauthorized},
	CategoryForbidden:         {"CategoryForbidden", http.StatusForbidden},
	CategoryResourceNotFound:  {"CategoryResourceNotFound", http.StatusNotFound},
	CategoryDataConflict:      {"CategoryDataConflict", http.StatusConflict},
	CategoryDependencyFailure: {"CategoryDependencyFailure", http.StatusBadGateway},
}

func (c Category) String() string {
	if info, ok := categoryInfo[c]; ok {
		return info.name
	}
	return "CategoryGeneralError"
}

// StatusCode returns the HTTP status for the category.
func (c Category) StatusCode() int {
	if info, ok := categoryInfo[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// ServiceError pairs a client-facing Message with the underlying Err that is
// only ever logged.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func (err ServiceError) Unwrap() error {
	return err.Err
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	return err.Category.StatusCode()
}

// Is reports whether err carries a ServiceError of category cat.
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

// CategoryOf returns the category of the first ServiceError in err's chain,
// or CategoryGeneralError when there is none.
func CategoryOf(err error) Category {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category
	}
	return CategoryGeneralError
}

func newError(cat Category, err error, fallback, message string) error {
	if err == nil {
		err = errors.New(fallback)
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError hides err behind "Internal Server Error".
func GeneralError(err error) error {
	return newError(CategoryGeneralError, err, "internal server error", "Internal Server Error")
}

// ResourceNotFoundError returns an error with category ResourceNotFound.
// message is returned to the user, err is only logged.
func ResourceNotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, err, "resource not found: "+message, message)
}

// BadRequestError returns an error with category DataError.
func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, err, "bad request: "+message, message)
}

func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, err, "request forbidden", message)
}

func UnAuthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, err, "unauthorized", message)
}

// ConflictError returns an error with category DataConflict.
func ConflictError(err error, message string) error {
	return newError(CategoryDataConflict, err, "conflict", message)
}

// DependencyFailureError reports a failing chain node, bundler or wallet.
func DependencyFailureError(err error, message string) error {
	return newError(CategoryDependencyFailure, err, "dependency failure", message)
}
