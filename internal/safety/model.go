package safety

import "github.com/MarcoPoloResearchLab/fieldreport/internal/reports"

// Status is the persisted state of a talk. Missed is never stored; see Classify.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusMissed    Status = "missed"
	StatusConducted Status = "conducted"
)

// Tab is the read-time classification of a talk.
type Tab string

const (
	TabUpcoming  Tab = "upcoming"
	TabMissed    Tab = "missed"
	TabCompleted Tab = "completed"
)

// Talk is a scheduled or conducted safety briefing. Date is a scheduling
// attribute, not a storage partition.
type Talk struct {
	ID           string          `json:"id"`
	TemplateID   string          `json:"templateId"`
	TemplateName string          `json:"templateName"`
	Date         reports.DateKey `json:"date"`
	Status       Status          `json:"status"`
	CreatedAt    string          `json:"createdAt"`
}

// Classify derives the talk's tab relative to today. It must be evaluated on
// every read because today moves independently of writes.
func Classify(talk Talk, today reports.DateKey) Tab {
	if talk.Status == StatusConducted {
		return TabCompleted
	}
	if talk.Date.Before(today) {
		return TabMissed
	}
	return TabUpcoming
}

// Editable reports whether talks in the tab can still be rescheduled.
func Editable(tab Tab) bool {
	return tab == TabUpcoming || tab == TabMissed
}

// Grouped holds talks split by tab, each in stored order.
type Grouped struct {
	Upcoming  []Talk `json:"upcoming"`
	Missed    []Talk `json:"missed"`
	Completed []Talk `json:"completed"`
}

// Group classifies every talk against today.
func Group(talks []Talk, today reports.DateKey) Grouped {
	grouped := Grouped{Upcoming: []Talk{}, Missed: []Talk{}, Completed: []Talk{}}
	for _, talk := range talks {
		switch Classify(talk, today) {
		case TabCompleted:
			grouped.Completed = append(grouped.Completed, talk)
		case TabMissed:
			grouped.Missed = append(grouped.Missed, talk)
		default:
			grouped.Upcoming = append(grouped.Upcoming, talk)
		}
	}
	return grouped
}
