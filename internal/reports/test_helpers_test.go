package reports

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"go.uber.org/zap"
)

var siteLocation = time.FixedZone("site", -7*60*60)

func fixedClock(value time.Time) func() time.Time {
	return func() time.Time {
		return value
	}
}

func newTestService(t *testing.T, store kvstore.Store) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Store:    store,
		Clock:    fixedClock(time.Date(2026, time.February, 10, 9, 30, 0, 0, siteLocation)),
		Location: siteLocation,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func mustDateKey(t *testing.T, value string) DateKey {
	t.Helper()
	key, err := ParseDateKey(value)
	if err != nil {
		t.Fatalf("unexpected date key error: %v", err)
	}
	return key
}

func mustSet(t *testing.T, store kvstore.Store, key, value string) {
	t.Helper()
	if err := store.Set(context.Background(), key, value); err != nil {
		t.Fatalf("failed to seed %s: %v", key, err)
	}
}
