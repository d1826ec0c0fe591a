package apperrors

import "fmt"

// Errors shared by the protocol engine and its HTTP adapters. The Status
// field is the HTTP status an adapter should answer with.
var (
	ErrInvalidRequest = &ServiceError{
		Code:    "INVALID_REQUEST",
		Message: "Invalid Request",
		Status:  400,
	}

	ErrInvalidSignature = &ServiceError{
		Code:    "INVALID_SIGNATURE",
		Message: "Cannot validate app signature",
		Status:  401,
	}

	ErrUnknownShop = &ServiceError{
		Code:    "UNKNOWN_SHOP",
		Message: "Invalid shop given",
		Status:  401,
	}

	ErrMissingSignatureHeader = &ServiceError{
		Code:    "MISSING_SIGNATURE",
		Message: "Missing shopware-shop-signature header",
		Status:  400,
	}
)

// ServiceError represents a protocol-level failure.
type ServiceError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Wrap attaches a cause to a ServiceError without mutating the template.
func Wrap(err error, serviceErr *ServiceError) *ServiceError {
	return &ServiceError{
		Code:    serviceErr.Code,
		Message: serviceErr.Message,
		Status:  serviceErr.Status,
		Err:     err,
	}
}

// WithMessage returns a copy of the ServiceError carrying a custom message,
// e.g. a hook listener's veto reason.
func WithMessage(serviceErr *ServiceError, message string) *ServiceError {
	return &ServiceError{
		Code:    serviceErr.Code,
		Message: message,
		Status:  serviceErr.Status,
	}
}
