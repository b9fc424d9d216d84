package reports

import "github.com/google/uuid"

// IDProvider issues identifiers for new records.
type IDProvider interface {
	NewID() (string, error)
}

// IDFunc adapts a plain function to IDProvider.
type IDFunc func() (string, error)

func (fn IDFunc) NewID() (string, error) {
	return fn()
}

// NewUUIDProvider issues time-ordered UUIDv7 identifiers, so ids sort in
// creation order.
func NewUUIDProvider() IDProvider {
	return IDFunc(func() (string, error) {
		value, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return value.String(), nil
	})
}
