// Package inventory manages the radio inventory and derives checkout log
// entries from changes to a radio's checkout state.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/samber/lo"
)

// CollectionName is the name of the radio collection in the record store.
const CollectionName = "radios"

// commentTimeLayout matches the en-US timestamps already present in stored comments.
const commentTimeLayout = "1/2/2006, 3:04:05 PM"

var (
	checkoutCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "radiolog",
		Subsystem: "inventory",
		Name:      "checkout_transitions_total",
		Help:      "The total number of radio check-outs and check-ins",
	}, []string{"operation"})

	reportCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "radiolog",
		Subsystem: "inventory",
		Name:      "reports_total",
		Help:      "The total number of damage and nonfunctional reports",
	}, []string{"kind"})
)

// Appender records checkout log entries.
type Appender interface {
	Append(ctx context.Context, radioID, userID string, op models.Operation) (models.LogEntry, error)
}

// Filter restricts List to a single radio or to the radios held by a single
// user. At most one field may be set.
type Filter struct {
	RadioID string
	UserID  string
}

// ReportKind is the kind of problem reported for a radio.
type ReportKind string

const (
	ReportDamage        ReportKind = "damage"
	ReportNonfunctional ReportKind = "nonfunctional"
)

func (k ReportKind) prefix() string {
	switch k {
	case ReportDamage:
		return "Damage Report: "
	case ReportNonfunctional:
		return "Nonfunctional Report: "
	default:
		return ""
	}
}

// Inventory manages radios. Every change to a radio's checked out user is
// recorded in the checkout log before the radio is stored.
type Inventory struct {
	radios *store.Collection[models.Radio]
	ledger Appender
	now    func() time.Time
}

// New creates an Inventory stored in s that records checkout events in ledger.
func New(s store.Store, ledger Appender) *Inventory {
	return &Inventory{
		radios: store.NewCollection[models.Radio](s, CollectionName),
		ledger: ledger,
		now:    time.Now,
	}
}

// List returns the radios matching f, sorted by model and index.
func (inv *Inventory) List(ctx context.Context, f Filter) ([]models.Radio, error) {
	if f.RadioID != "" && f.UserID != "" {
		return nil, fmt.Errorf("%w: filter by radioID or userID, not both", models.ErrBadRequest)
	}
	radios, err := inv.radios.Load(ctx)
	if err != nil {
		return nil, err
	}
	radios = lo.Filter(radios, func(r models.Radio, _ int) bool {
		switch {
		case f.RadioID != "":
			return r.ID == f.RadioID
		case f.UserID != "":
			return r.CheckedOutUser != nil && *r.CheckedOutUser == f.UserID
		default:
			return true
		}
	})
	sortRadios(radios)
	return radios, nil
}

// Get returns the radio with the given ID.
func (inv *Inventory) Get(ctx context.Context, id string) (models.Radio, error) {
	radios, err := inv.radios.Load(ctx)
	if err != nil {
		return models.Radio{}, err
	}
	idx := indexOf(radios, id)
	if idx < 0 {
		return models.Radio{}, fmt.Errorf("%w: radio %s", models.ErrNotFound, id)
	}
	return radios[idx], nil
}

// Create adds a radio that is available and undamaged.
func (inv *Inventory) Create(ctx context.Context, id, name string) (models.Radio, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return models.Radio{}, fmt.Errorf("%w: ID and Name are required", models.ErrBadRequest)
	}

	radio := models.Radio{ID: id, Name: name}
	err := inv.radios.Update(ctx, func(radios []models.Radio) ([]models.Radio, error) {
		if indexOf(radios, id) >= 0 {
			return nil, fmt.Errorf("%w: radio %s already exists", models.ErrConflict, id)
		}
		return append(radios, radio), nil
	})
	if err != nil {
		return models.Radio{}, err
	}
	log.Info("created radio", "id", id, "name", name)
	return radio, nil
}

// Upsert creates the radio if it does not exist and applies the fields set in p.
func (inv *Inventory) Upsert(ctx context.Context, p models.RadioPatch) (models.Radio, error) {
	if p.ID == "" {
		return models.Radio{}, fmt.Errorf("%w: ID is required", models.ErrBadRequest)
	}
	return inv.modify(ctx, p.ID, true, func(r *models.Radio) ([]CheckoutEvent, error) {
		return inv.apply(r, p), nil
	})
}

// Delete removes a radio.
func (inv *Inventory) Delete(ctx context.Context, id string) error {
	err := inv.radios.Update(ctx, func(radios []models.Radio) ([]models.Radio, error) {
		idx := indexOf(radios, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: radio %s", models.ErrNotFound, id)
		}
		return slices.Delete(radios, idx, idx+1), nil
	})
	if err != nil {
		return err
	}
	log.Info("deleted radio", "id", id)
	return nil
}

// CheckOut assigns a radio to a user. A radio that is already checked out is
// only reassigned when force is set.
func (inv *Inventory) CheckOut(ctx context.Context, radioID, userID string, force bool) (models.Radio, error) {
	if userID == "" {
		return models.Radio{}, fmt.Errorf("%w: userID is required", models.ErrBadRequest)
	}
	return inv.modify(ctx, radioID, false, func(r *models.Radio) ([]CheckoutEvent, error) {
		if r.IsCheckedOut() && !force {
			return nil, fmt.Errorf("%w: radio %s is already checked out", models.ErrConflict, r.ID)
		}
		return inv.apply(r, models.RadioPatch{CheckedOutUser: models.Some(userID)}), nil
	})
}

// CheckIn returns a radio. Checking in an available radio changes nothing.
func (inv *Inventory) CheckIn(ctx context.Context, radioID string) (models.Radio, error) {
	return inv.modify(ctx, radioID, false, func(r *models.Radio) ([]CheckoutEvent, error) {
		return inv.apply(r, models.RadioPatch{CheckedOutUser: models.Null[string]()}), nil
	})
}

// AppendComment adds a "[<time> by <author>] <text>" line to a radio's comments.
func (inv *Inventory) AppendComment(ctx context.Context, radioID, author, text string) (models.Radio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Radio{}, fmt.Errorf("%w: comment text is required", models.ErrBadRequest)
	}
	return inv.modify(ctx, radioID, false, func(r *models.Radio) ([]CheckoutEvent, error) {
		inv.appendComment(r, author, text)
		return nil, nil
	})
}

// Report records a damage or nonfunctional report: the matching condition
// flag is set and the report is appended to the comments.
func (inv *Inventory) Report(ctx context.Context, radioID, author string, kind ReportKind, text string) (models.Radio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Radio{}, fmt.Errorf("%w: report text is required", models.ErrBadRequest)
	}

	var patch models.RadioPatch
	switch kind {
	case ReportDamage:
		patch.PartiallyDamaged = lo.ToPtr(true)
	case ReportNonfunctional:
		patch.Nonfunctional = lo.ToPtr(true)
	default:
		return models.Radio{}, fmt.Errorf("%w: unknown report kind %q", models.ErrBadRequest, kind)
	}

	radio, err := inv.modify(ctx, radioID, false, func(r *models.Radio) ([]CheckoutEvent, error) {
		inv.apply(r, patch)
		inv.appendComment(r, author, kind.prefix()+text)
		return nil, nil
	})
	if err != nil {
		return models.Radio{}, err
	}
	reportCounter.WithLabelValues(string(kind)).Inc()
	return radio, nil
}

// InitializeDefault creates radios with the IDs "1" to count, all named
// name. Existing IDs are left untouched. It returns the number of radios created.
func (inv *Inventory) InitializeDefault(ctx context.Context, count int, name string) (int, error) {
	if count <= 0 || name == "" {
		return 0, fmt.Errorf("%w: count and name are required", models.ErrBadRequest)
	}
	var created int
	err := inv.radios.Update(ctx, func(radios []models.Radio) ([]models.Radio, error) {
		created = 0
		for i := 1; i <= count; i++ {
			id := strconv.Itoa(i)
			if indexOf(radios, id) >= 0 {
				continue
			}
			radios = append(radios, models.Radio{ID: id, Name: name})
			created++
		}
		return radios, nil
	})
	if err != nil {
		return 0, err
	}
	log.Info("initialized default inventory", "created", created, "count", count, "name", name)
	return created, nil
}

// modify runs fn on the radio with the given id under the collection lock,
// records the returned checkout events and stores the result. With create
// set a missing radio is created first.
func (inv *Inventory) modify(ctx context.Context, id string, create bool, fn func(r *models.Radio) ([]CheckoutEvent, error)) (models.Radio, error) {
	var result models.Radio
	var events []CheckoutEvent
	err := inv.radios.Update(ctx, func(radios []models.Radio) ([]models.Radio, error) {
		idx := indexOf(radios, id)
		if idx < 0 {
			if !create {
				return nil, fmt.Errorf("%w: radio %s", models.ErrNotFound, id)
			}
			radios = append(radios, models.Radio{ID: id})
			idx = len(radios) - 1
		}

		radio := radios[idx]
		var err error
		events, err = fn(&radio)
		if err != nil {
			return nil, err
		}

		// the log entries are written before the radio
		for _, ev := range events {
			if _, err := inv.ledger.Append(ctx, radio.ID, ev.UserID, ev.Operation); err != nil {
				return nil, fmt.Errorf("failed to record %s of radio %s: %w", ev.Operation, radio.ID, err)
			}
		}

		radios[idx] = radio
		result = radio
		return radios, nil
	})
	if err != nil {
		return models.Radio{}, err
	}

	for _, ev := range events {
		checkoutCounter.WithLabelValues(string(ev.Operation)).Inc()
		log.Info("radio "+string(ev.Operation), "radio", id, "user", ev.UserID)
	}
	return result, nil
}

// apply sets the fields of p on r and returns the checkout events the change implies.
func (inv *Inventory) apply(r *models.Radio, p models.RadioPatch) []CheckoutEvent {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Comments != nil {
		r.Comments = *p.Comments
	}

	if p.Nonfunctional != nil {
		r.Nonfunctional = *p.Nonfunctional
		if r.Nonfunctional {
			r.PartiallyDamaged = false
		}
	}
	if p.PartiallyDamaged != nil && !r.Nonfunctional {
		r.PartiallyDamaged = *p.PartiallyDamaged
	}

	if !p.CheckedOutUser.Set {
		// a date is only meaningful while the radio is checked out
		if p.CheckoutDate.Value != nil && r.IsCheckedOut() {
			r.CheckoutDate = p.CheckoutDate.Value
		}
		return nil
	}

	next := p.CheckedOutUser.Value
	if next != nil && *next == "" {
		next = nil
	}
	events := TransitionCheckout(r.CheckedOutUser, next)
	r.CheckedOutUser = next

	switch {
	case next == nil:
		r.CheckoutDate = nil
	case p.CheckoutDate.Value != nil:
		r.CheckoutDate = p.CheckoutDate.Value
	case len(events) > 0 || r.CheckoutDate == nil:
		r.CheckoutDate = lo.ToPtr(inv.now())
	}
	return events
}

func (inv *Inventory) appendComment(r *models.Radio, author, text string) {
	if author == "" {
		author = models.UnknownUserName
	}
	line := fmt.Sprintf("[%s by %s] %s", inv.now().Format(commentTimeLayout), author, text)
	if r.Comments == "" {
		r.Comments = line
		return
	}
	r.Comments += "\n" + line
}

func indexOf(radios []models.Radio, id string) int {
	return slices.IndexFunc(radios, func(r models.Radio) bool {
		return r.ID == id
	})
}
