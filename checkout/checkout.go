// Package checkout drives end-of-rental evidence capture. Electric carts must
// prove they were left charging; everything else completes on a single photo.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/internal/evidence"
	"github.com/fairwayfleet/fleet-backend/internal/notify"
	"github.com/fairwayfleet/fleet-backend/internal/vision"
	"github.com/fairwayfleet/fleet-backend/rental"
)

// DefaultRejectionMessage is shown when the verifier rejects a photo without
// giving a reason.
const DefaultRejectionMessage = "We couldn't confirm the cart is plugged in. Please retake the photo showing the charging cable."

var ErrPhotoRequired = errors.New("a checkout photo is required")

// Result is what the guest sees after a submit.
type Result struct {
	Verified bool `json:"verified"`
	// Reason is set only on a domain rejection.
	Reason   string `json:"reason,omitempty"`
	RentalID string `json:"rentalId"`
}

// RentalCompleter is the slice of the rental repository the workflow needs.
// Completion is keyed by rental and cart so a rental on another cart cannot
// be closed from here.
type RentalCompleter interface {
	Complete(ctx context.Context, id, cartID uuid.UUID, checkoutPhotoURL string) (rental.Rental, error)
}

type Workflow struct {
	store    evidence.Store
	verifier vision.Verifier
	rentals  RentalCompleter
	notifier notify.Dispatcher
	logger   *slog.Logger
}

func NewWorkflow(store evidence.Store, verifier vision.Verifier, rentals RentalCompleter, notifier notify.Dispatcher, logger *slog.Logger) *Workflow {
	return &Workflow{
		store:    store,
		verifier: verifier,
		rentals:  rentals,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit runs one checkout attempt. The photo path is fixed per cart+session
// and uploaded with upsert, so a retry overwrites the previous attempt rather
// than appending to it.
func (w *Workflow) Submit(ctx context.Context, c cart.Cart, sessionID string, rentalID uuid.UUID, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrPhotoRequired
	}

	if c.Type == cart.Electric {
		return w.verified(ctx, c, sessionID, rentalID, image)
	}
	return w.unconditional(ctx, c, sessionID, rentalID, image)
}

func (w *Workflow) unconditional(ctx context.Context, c cart.Cart, sessionID string, rentalID uuid.UUID, image []byte) (Result, error) {
	key := fmt.Sprintf("%s/%s/checkout_gas.jpg", c.ID, sessionID)
	if err := w.store.Upload(ctx, key, image, true); err != nil {
		return Result{}, err
	}

	rt, err := w.rentals.Complete(ctx, rentalID, c.ID, w.store.PublicURL(key))
	if err != nil {
		return Result{}, err
	}

	return Result{Verified: true, RentalID: rt.ID.String()}, nil
}

func (w *Workflow) verified(ctx context.Context, c cart.Cart, sessionID string, rentalID uuid.UUID, image []byte) (Result, error) {
	key := fmt.Sprintf("%s/%s/checkout_plug.jpg", c.ID, sessionID)
	if err := w.store.Upload(ctx, key, image, true); err != nil {
		return Result{}, err
	}
	photoURL := w.store.PublicURL(key)

	judgment, err := w.verifier.Verify(ctx, photoURL)
	if err != nil {
		return Result{}, err
	}
	if !judgment.IsPluggedIn {
		reason := judgment.Reason
		if reason == "" {
			reason = DefaultRejectionMessage
		}
		// Domain rejection, not a failure: the guest retries with a new
		// photo and the upsert path overwrites this one.
		return Result{Verified: false, Reason: reason, RentalID: rentalID.String()}, nil
	}

	rt, err := w.rentals.Complete(ctx, rentalID, c.ID, photoURL)
	if err != nil {
		return Result{}, err
	}

	// Closing notification is best-effort: log and move on.
	if rt.GuestPhone != "" {
		body := fmt.Sprintf("Thanks %s! Your rental is closed and the cart is confirmed charging.", rt.GuestName)
		if _, err := w.notifier.Send(ctx, rt.GuestPhone, body); err != nil {
			w.logger.ErrorContext(ctx, "failed to send rental closed SMS", "error", err, "rental_id", rt.ID)
		}
	}

	return Result{Verified: true, RentalID: rt.ID.String()}, nil
}
