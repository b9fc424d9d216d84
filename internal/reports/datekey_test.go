package reports

import (
	"errors"
	"testing"
	"time"
)

func TestGetDateKeyUsesLocalCalendarDay(t *testing.T) {
	morning := time.Date(2026, time.February, 5, 0, 0, 1, 0, siteLocation)
	lateEvening := time.Date(2026, time.February, 5, 23, 59, 59, 0, siteLocation)

	if GetDateKey(morning) != GetDateKey(lateEvening) {
		t.Fatalf("expected same key, got %s and %s", GetDateKey(morning), GetDateKey(lateEvening))
	}
	if GetDateKey(lateEvening) != "2026-02-05" {
		t.Fatalf("expected local day key, got %s", GetDateKey(lateEvening))
	}
	if GetDateKey(lateEvening.UTC()) == GetDateKey(lateEvening) {
		t.Fatalf("expected the UTC projection to fall on the next day")
	}

	nextDay := lateEvening.Add(2 * time.Second)
	if GetDateKey(nextDay) == GetDateKey(lateEvening) {
		t.Fatalf("expected different keys across midnight")
	}
}

func TestGetDateKeyPadsComponents(t *testing.T) {
	key := GetDateKey(time.Date(812, time.March, 4, 12, 0, 0, 0, time.UTC))
	if key != "0812-03-04" {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestParseDateKey(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    DateKey
		wantErr bool
	}{
		{name: "valid", input: "2026-02-05", want: "2026-02-05"},
		{name: "trimmed", input: " 2026-02-05 ", want: "2026-02-05"},
		{name: "empty", input: "", wantErr: true},
		{name: "impossible-day", input: "2026-02-30", wantErr: true},
		{name: "timestamp", input: "2026-02-05T10:00:00Z", wantErr: true},
		{name: "unpadded", input: "2026-2-5", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := ParseDateKey(testCase.input)
			if testCase.wantErr {
				if !errors.Is(err, ErrInvalidDateKey) {
					t.Fatalf("expected ErrInvalidDateKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != testCase.want {
				t.Fatalf("want %s got %s", testCase.want, got)
			}
		})
	}
}

func TestDateKeyTimeIsLocalMidnight(t *testing.T) {
	midnight := DateKey("2026-02-05").Time(siteLocation)
	if midnight.Hour() != 0 || midnight.Location() != siteLocation {
		t.Fatalf("unexpected midnight %v", midnight)
	}
	if GetDateKey(midnight) != "2026-02-05" {
		t.Fatalf("expected round trip to key, got %s", GetDateKey(midnight))
	}
	if !DateKey("bogus").Time(siteLocation).IsZero() {
		t.Fatalf("expected zero time for invalid key")
	}
}

func TestFormatDateLabel(t *testing.T) {
	label := FormatDateLabel(time.Date(2026, time.February, 12, 15, 0, 0, 0, siteLocation))
	if label != "Thu, Feb 12, 2026" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestFormatTimestampMatchesISOMilliseconds(t *testing.T) {
	stamp := FormatTimestamp(time.Date(2026, time.February, 5, 1, 2, 3, 4000000, siteLocation))
	if stamp != "2026-02-05T08:02:03.004Z" {
		t.Fatalf("unexpected timestamp %q", stamp)
	}
}
