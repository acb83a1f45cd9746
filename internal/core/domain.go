package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly    BillingCycle = "Weekly"
	Monthly   BillingCycle = "Monthly"
	Quarterly BillingCycle = "Quarterly"
	Yearly    BillingCycle = "Yearly"
)

const (
	StatusActive Status = "Active"
	StatusPaused Status = "Paused"
)

const (
	AUD Currency = "AUD"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// PaymentPaid is the conventional success value for Payment.Status.
// The field is an open string; other values are stored as-is.
const PaymentPaid = "Paid"

type (
	BillingCycle string

	Status string

	Currency string

	// Date is a calendar day. Time-of-day is not meaningful anywhere in the
	// domain; comparisons happen at day granularity.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Subscription struct {
		ID              int64
		Name            string
		Amount          Money // charge per one billing cycle
		Currency        Currency
		BillingCycle    BillingCycle
		NextPaymentDate Date
		Status          Status
		Notes           string
		Icon            string
		IconColor       string
	}

	// Payment is an immutable payment-history record. Amount and Currency are
	// snapshots taken at payment time: later edits to the subscription do not
	// rewrite history.
	Payment struct {
		ID             int64
		SubscriptionID int64
		PaymentDate    Date
		Amount         Money
		Currency       Currency
		Status         string
	}

	// SubscriptionPatch carries a partial update. Nil fields are left
	// untouched; ID can never be patched.
	SubscriptionPatch struct {
		Name            *string
		Amount          *Money
		Currency        *Currency
		BillingCycle    *BillingCycle
		NextPaymentDate *Date
		Status          *Status
		Notes           *string
		Icon            *string
		IconColor       *string
	}
)

var (
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidSubject = errors.New("invalid subscription reference")
)

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp (the time part is
// discarded).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the day in ISO form, the only wire format used.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.NextPaymentDate.Validate(); err != nil {
		return err
	}
	return nil
}

func (p Payment) Validate() error {
	if p.SubscriptionID <= 0 {
		return ErrInvalidSubject
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.PaymentDate.Validate(); err != nil {
		return err
	}
	return nil
}

// Apply merges the provided fields of a patch into the subscription.
func (s *Subscription) Apply(p SubscriptionPatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Amount != nil {
		s.Amount = *p.Amount
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.BillingCycle != nil {
		s.BillingCycle = *p.BillingCycle
	}
	if p.NextPaymentDate != nil {
		s.NextPaymentDate = *p.NextPaymentDate
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Icon != nil {
		s.Icon = *p.Icon
	}
	if p.IconColor != nil {
		s.IconColor = *p.IconColor
	}
}
