// This file implements reminder classification: deciding which active
// subscriptions are close enough to their next payment date to warrant a
// heads-up, bucketed by urgency.

package core

import "time"

// Reminders partitions subscriptions into two disjoint urgency buckets.
// DueTomorrow wins: a subscription due today or tomorrow never also appears
// in DueInThreeDays.
type Reminders struct {
	DueTomorrow    []Subscription
	DueInThreeDays []Subscription
}

// Empty reports whether no reminder is pending in either bucket.
func (r Reminders) Empty() bool {
	return len(r.DueTomorrow) == 0 && len(r.DueInThreeDays) == 0
}

// DaysUntil returns the whole-day difference between now's calendar day and
// the target date. Both sides are truncated to midnight first, so time-of-day
// never influences the result. Negative means overdue.
func DaysUntil(now time.Time, d Date) int {
	from := DateOf(now)
	return int(d.Time.Sub(from.Time) / (24 * time.Hour))
}

// UpcomingReminders classifies active subscriptions by proximity of their next
// payment date to now: due within 0-1 days lands in DueTomorrow, 2-3 days in
// DueInThreeDays. Overdue and far-future subscriptions are excluded, as are
// Paused ones regardless of date. Each bucket keeps the input order.
func UpcomingReminders(now time.Time, subs []Subscription) Reminders {
	var r Reminders
	for _, sub := range subs {
		if sub.Status != StatusActive {
			continue
		}
		days := DaysUntil(now, sub.NextPaymentDate)
		switch {
		case days >= 0 && days <= 1:
			r.DueTomorrow = append(r.DueTomorrow, sub)
		case days >= 2 && days <= 3:
			r.DueInThreeDays = append(r.DueInThreeDays, sub)
		}
	}
	return r
}
