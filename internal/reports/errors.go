package reports

import (
	"errors"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/svcerr"
)

var (
	errMissingStore = errors.New("key-value store is required")
	errNullElement  = errors.New("reports: null collection element")
	// ErrAlreadySigned indicates that the day's report already carries a signature.
	ErrAlreadySigned = errors.New("reports: report already signed")
)

// ServiceError is the coded error returned by the report store.
type ServiceError = svcerr.ServiceError

func newServiceError(operation, reason string, cause error) error {
	return svcerr.New(operation, reason, cause)
}
