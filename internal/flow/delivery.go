package flow

import "time"

// deliveryCutoffHour is the local hour after which same-day dispatch is no
// longer possible and the estimate slips one extra day.
const deliveryCutoffHour = 18

// TimeSlot is one selectable delivery window.
type TimeSlot struct {
	ID    string
	Label string
}

// TimeSlots lists the delivery windows offered on the checkout form, in
// display order.
var TimeSlots = []TimeSlot{
	{ID: "morning", Label: "Morning (9:00 - 12:00)"},
	{ID: "afternoon", Label: "Afternoon (12:00 - 17:00)"},
	{ID: "evening", Label: "Evening (17:00 - 21:00)"},
}

// TimeSlotLabel resolves a slot id to its display label, falling back to the
// id itself for unknown slots.
func TimeSlotLabel(id string) string {
	for _, s := range TimeSlots {
		if s.ID == id {
			return s.Label
		}
	}
	return id
}

// EstimateDeliveryDate projects the earliest delivery day: orders placed
// before the cutoff ship next day, later orders the day after.
func EstimateDeliveryDate(now time.Time) time.Time {
	days := 2
	if now.Hour() < deliveryCutoffHour {
		days = 1
	}
	return now.AddDate(0, 0, days)
}
