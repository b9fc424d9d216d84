// Package svcerr defines the coded error returned by the storage services.
package svcerr

import (
	"errors"
	"fmt"
)

// ServiceError carries a stable "<operation>.<reason>" code and wraps its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

// New builds a ServiceError coded "<operation>.<reason>".
func New(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// CodeOf returns the code of the first ServiceError in err's chain.
func CodeOf(err error) (string, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code(), true
	}
	return "", false
}
