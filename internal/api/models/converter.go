package models

import (
	"time"

	"github.com/mergestat/timediff"
	domain "github.com/rhymednick/inw-radio-log/internal/models"
)

// ToHeldRadio converts a radio to a HeldRadio, describing the checkout age
// relative to now.
func ToHeldRadio(r domain.Radio, now time.Time) HeldRadio {
	item := HeldRadio{
		ID:               r.ID,
		Name:             r.Name,
		PartiallyDamaged: r.PartiallyDamaged,
		Nonfunctional:    r.Nonfunctional,
		CheckoutDate:     r.CheckoutDate,
	}
	if r.CheckoutDate != nil {
		item.CheckedOutFor = timediff.TimeDiff(*r.CheckoutDate, timediff.WithStartTime(now))
	}
	return item
}

// ToHeldRadios converts a slice of radios to HeldRadios.
func ToHeldRadios(radios []domain.Radio, now time.Time) []HeldRadio {
	result := make([]HeldRadio, len(radios))
	for i, r := range radios {
		result[i] = ToHeldRadio(r, now)
	}
	return result
}
