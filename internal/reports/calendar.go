package reports

import (
	"context"
	"time"
)

// DayStatus drives the calendar indicator for a day.
type DayStatus string

const (
	DayStatusSigned   DayStatus = "signed"
	DayStatusUnsigned DayStatus = "unsigned"
	DayStatusMissing  DayStatus = "missing"
	DayStatusNone     DayStatus = "none"
)

// DayIndicator pairs a calendar day with its status.
type DayIndicator struct {
	DateKey DateKey   `json:"dateKey"`
	Status  DayStatus `json:"status"`
}

// DayStatus classifies day relative to today. Weekends and days after today
// carry no indicator; otherwise a signed day wins over one that merely has data.
func (service *Service) DayStatus(ctx context.Context, day, today time.Time) DayStatus {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return DayStatusNone
	}
	dayKey := GetDateKey(day)
	if GetDateKey(today).Before(dayKey) {
		return DayStatusNone
	}
	report := service.GetReportForDate(ctx, day, "")
	switch {
	case report.IsSigned():
		return DayStatusSigned
	case report.HasData():
		return DayStatusUnsigned
	default:
		return DayStatusMissing
	}
}

// MonthStatuses returns one indicator per day of the month, in day order.
func (service *Service) MonthStatuses(ctx context.Context, year int, month time.Month, today time.Time) []DayIndicator {
	first := time.Date(year, month, 1, 0, 0, 0, 0, service.location)
	indicators := make([]DayIndicator, 0, 31)
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		indicators = append(indicators, DayIndicator{
			DateKey: GetDateKey(day),
			Status:  service.DayStatus(ctx, day, today),
		})
	}
	return indicators
}
