package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"subtrack/internal/core"
)

// Creation defaults, applied when a field is omitted.
const (
	defaultCurrency  = core.AUD
	defaultCycle     = core.Monthly
	defaultStatus    = core.StatusActive
	defaultIcon      = "sync-alt"
	defaultIconColor = "#3B82F6"
)

// amountValue accepts a JSON number or a numeric string and converts either to
// cents. The conversion error is held until validation so one malformed field
// does not abort decoding of the rest of the payload.
type amountValue struct {
	cents int64
	set   bool
	err   error
}

func (a *amountValue) UnmarshalJSON(data []byte) error {
	a.set = true

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		a.cents, a.err = core.CentsFromFloat(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.cents, a.err = core.ParseDecimalToCents(s)
		return nil
	}

	a.err = core.ErrInvalidAmount
	return nil
}

// subscriptionPayload covers both create and patch requests. Pointers
// distinguish omitted fields from explicit zero values.
type subscriptionPayload struct {
	Name            *string     `json:"name"`
	Amount          amountValue `json:"amount"`
	Currency        *string     `json:"currency"`
	BillingCycle    *string     `json:"billingCycle"`
	NextPaymentDate *string     `json:"nextPaymentDate"`
	Status          *string     `json:"status"`
	Notes           *string     `json:"notes"`
	Icon            *string     `json:"icon"`
	IconColor       *string     `json:"iconColor"`
}

func decodePayload(r *http.Request) (subscriptionPayload, error) {
	var p subscriptionPayload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&p); err != nil {
		return subscriptionPayload{}, fmt.Errorf("malformed JSON body: %w", err)
	}
	return p, nil
}

// parseCreate validates a creation payload and fills the defaults.
func parseCreate(r *http.Request) (core.Subscription, []FieldError) {
	p, err := decodePayload(r)
	if err != nil {
		return core.Subscription{}, []FieldError{{Field: "body", Message: err.Error()}}
	}

	var errs []FieldError

	var name string
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
	}
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	var amount core.Money
	switch {
	case !p.Amount.set:
		errs = append(errs, FieldError{Field: "amount", Message: "amount is required"})
	case p.Amount.err != nil:
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be a positive number"})
	default:
		amount = core.Money{Cents: p.Amount.cents}
	}

	var date core.Date
	switch {
	case p.NextPaymentDate == nil:
		errs = append(errs, FieldError{Field: "nextPaymentDate", Message: "nextPaymentDate is required"})
	default:
		date, err = core.ParseDate(*p.NextPaymentDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "nextPaymentDate", Message: "nextPaymentDate must be a YYYY-MM-DD date"})
		}
	}

	if len(errs) > 0 {
		return core.Subscription{}, errs
	}

	sub := core.Subscription{
		Name:            name,
		Amount:          amount,
		Currency:        defaultCurrency,
		BillingCycle:    defaultCycle,
		NextPaymentDate: date,
		Status:          defaultStatus,
		Icon:            defaultIcon,
		IconColor:       defaultIconColor,
	}
	if p.Currency != nil {
		sub.Currency = core.Currency(*p.Currency)
	}
	if p.BillingCycle != nil {
		sub.BillingCycle = core.BillingCycle(*p.BillingCycle)
	}
	if p.Status != nil {
		sub.Status = core.Status(*p.Status)
	}
	if p.Notes != nil {
		sub.Notes = *p.Notes
	}
	if p.Icon != nil {
		sub.Icon = *p.Icon
	}
	if p.IconColor != nil {
		sub.IconColor = *p.IconColor
	}
	return sub, nil
}

// parsePatch validates a partial update. Only provided fields are checked;
// omitted ones stay untouched.
func parsePatch(r *http.Request) (core.SubscriptionPatch, []FieldError) {
	p, err := decodePayload(r)
	if err != nil {
		return core.SubscriptionPatch{}, []FieldError{{Field: "body", Message: err.Error()}}
	}

	var errs []FieldError
	var patch core.SubscriptionPatch

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty"})
		} else {
			patch.Name = &name
		}
	}
	if p.Amount.set {
		if p.Amount.err != nil {
			errs = append(errs, FieldError{Field: "amount", Message: "amount must be a positive number"})
		} else {
			amount := core.Money{Cents: p.Amount.cents}
			patch.Amount = &amount
		}
	}
	if p.NextPaymentDate != nil {
		date, err := core.ParseDate(*p.NextPaymentDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "nextPaymentDate", Message: "nextPaymentDate must be a YYYY-MM-DD date"})
		} else {
			patch.NextPaymentDate = &date
		}
	}
	if p.Currency != nil {
		currency := core.Currency(*p.Currency)
		patch.Currency = &currency
	}
	if p.BillingCycle != nil {
		cycle := core.BillingCycle(*p.BillingCycle)
		patch.BillingCycle = &cycle
	}
	if p.Status != nil {
		status := core.Status(*p.Status)
		patch.Status = &status
	}
	if p.Notes != nil {
		patch.Notes = p.Notes
	}
	if p.Icon != nil {
		patch.Icon = p.Icon
	}
	if p.IconColor != nil {
		patch.IconColor = p.IconColor
	}

	if len(errs) > 0 {
		return core.SubscriptionPatch{}, errs
	}
	return patch, nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subscription id %q", raw)
	}
	return id, nil
}
