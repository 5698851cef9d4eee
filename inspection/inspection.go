// Package inspection drives a guest through the pre-ride evidence capture
// steps and creates the rental at the end. The workflow is a plain value:
// the HTTP layer round-trips it with the guest, so the server keeps no
// per-session state.
package inspection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/internal/evidence"
	"github.com/fairwayfleet/fleet-backend/rental"
)

// Steps, in order. Guest info first, then one photo per body angle. No step
// is skippable and there is no backward navigation.
const (
	StepGuestInfo = "guest-info"
	StepFront     = "front"
	StepLeft      = "left"
	StepRight     = "right"
	StepBack      = "back"
	StepDone      = "done"
)

var photoSteps = []string{StepFront, StepLeft, StepRight, StepBack}

var (
	ErrGuestInfoRequired = errors.New("guest name and phone are required")
	ErrPhotoRequired     = errors.New("a photo is required for this step")
	ErrWaiverRequired    = errors.New("the waiver must be agreed to")
	ErrWrongStep         = errors.New("operation does not match the current step")
)

// Workflow is the full state of one guest inspection. It serializes to JSON
// and is valid to resume from any point.
type Workflow struct {
	CartID    uuid.UUID `json:"cartId"`
	SessionID string    `json:"sessionId"`
	// StepIndex is 0 for guest info, 1..len(photoSteps) for photos, and
	// len(photoSteps)+1 once the rental exists.
	StepIndex  int       `json:"stepIndex"`
	GuestName  string    `json:"guestName"`
	GuestPhone string    `json:"guestPhone"`
	// PhotoURLs accumulates in step order. Held here, not in the database,
	// until the terminal step persists the rental.
	PhotoURLs []string  `json:"photoUrls"`
	RentalID  uuid.UUID `json:"rentalId,omitzero"`
}

func Begin(cartID uuid.UUID, sessionID string) Workflow {
	return Workflow{CartID: cartID, SessionID: sessionID}
}

// Step names the current step.
func (w Workflow) Step() string {
	switch {
	case w.StepIndex == 0:
		return StepGuestInfo
	case w.StepIndex <= len(photoSteps):
		return photoSteps[w.StepIndex-1]
	default:
		return StepDone
	}
}

// Terminal reports whether every capture step is complete and only the rental
// write remains (or has already happened).
func (w Workflow) Terminal() bool {
	return w.StepIndex > len(photoSteps)
}

// SubmitGuestInfo validates and records the guest fields. It has no side
// effects beyond the returned state.
func (w Workflow) SubmitGuestInfo(name, phone string) (Workflow, error) {
	if w.Step() != StepGuestInfo {
		return w, ErrWrongStep
	}
	if name == "" || phone == "" {
		return w, ErrGuestInfoRequired
	}
	w.GuestName = name
	w.GuestPhone = phone
	w.StepIndex++
	return w, nil
}

// Engine performs the steps that touch the outside world.
type Engine struct {
	store   evidence.Store
	rentals RentalCreator
	clock   func() time.Time
}

// RentalCreator is the slice of the rental repository the engine needs.
type RentalCreator interface {
	Create(ctx context.Context, rt *rental.Rental) error
}

func NewEngine(store evidence.Store, rentals RentalCreator) *Engine {
	return &Engine{store: store, rentals: rentals, clock: time.Now}
}

// SubmitPhoto uploads the image for the current photo step and advances. The
// upload and the public URL must both succeed before the state moves; on any
// failure the returned state equals the input and the guest retries manually.
func (e *Engine) SubmitPhoto(ctx context.Context, w Workflow, image []byte) (Workflow, error) {
	step := w.Step()
	if step == StepGuestInfo || w.Terminal() {
		return w, ErrWrongStep
	}
	if len(image) == 0 {
		return w, ErrPhotoRequired
	}

	key := fmt.Sprintf("%s/%s/%s_%d.jpg", w.CartID, w.SessionID, step, e.clock().UnixNano())
	if err := e.store.Upload(ctx, key, image, false); err != nil {
		return w, err
	}

	w.PhotoURLs = append(w.PhotoURLs, e.store.PublicURL(key))
	w.StepIndex++
	return w, nil
}

// Complete runs the terminal persistence step: one rental insert carrying the
// accumulated photos and a signed waiver. On failure the state is unchanged
// and the uploaded photos stay in the store; a retry reuses them rather than
// re-uploading.
func (e *Engine) Complete(ctx context.Context, w Workflow, waiverAgreed bool) (Workflow, error) {
	if !w.Terminal() || w.RentalID != uuid.Nil {
		return w, ErrWrongStep
	}
	if !waiverAgreed {
		return w, ErrWaiverRequired
	}

	rt := &rental.Rental{
		ID:             uuid.New(),
		CartID:         w.CartID,
		GuestName:      w.GuestName,
		GuestPhone:     w.GuestPhone,
		Photos:         rental.PhotoList(w.PhotoURLs),
		WaiverAgreed:   true,
		WaiverSignedAt: sql.NullTime{Time: e.clock(), Valid: true},
		DepositStatus:  rental.DepositPending,
	}
	if err := e.rentals.Create(ctx, rt); err != nil {
		return w, err
	}

	w.RentalID = rt.ID
	return w, nil
}
