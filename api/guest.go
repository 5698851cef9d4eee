package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/checkout"
	"github.com/fairwayfleet/fleet-backend/inspection"
	"github.com/fairwayfleet/fleet-backend/internal/evidence"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
	"github.com/fairwayfleet/fleet-backend/internal/vision"
	"github.com/fairwayfleet/fleet-backend/rental"
)

// maxPhotoBytes caps a single uploaded inspection photo.
const maxPhotoBytes = 10 << 20

type guestCartResponse struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Type             cart.VehicleType `json:"type"`
	AccessType       cart.AccessType  `json:"accessType"`
	UpsellPriceCents *int64           `json:"upsellPriceCents,omitempty"`
	UpsellUnit       *string          `json:"upsellUnit,omitempty"`
	RequireLockPhoto bool             `json:"requireLockPhoto"`
	DepositCents     int64            `json:"depositCents"`
	WelcomeMessage   string           `json:"welcomeMessage"`
}

func (a *API) guestCartHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	ct, ok := a.guestCart(c)
	if !ok {
		return
	}

	resp := guestCartResponse{
		ID:               ct.ID,
		Name:             ct.Name,
		Type:             ct.Type,
		AccessType:       ct.AccessType,
		RequireLockPhoto: ct.RequireLockPhoto,
		DepositCents:     ct.DepositCents,
	}
	if ct.UpsellPriceCents.Valid {
		resp.UpsellPriceCents = &ct.UpsellPriceCents.Int64
	}
	if ct.UpsellUnit.Valid {
		resp.UpsellUnit = &ct.UpsellUnit.String
	}

	// The key/access codes never reach the guest before a rental exists.
	owner, err := a.hr.GetByID(c, ct.HostID)
	if err == nil {
		resp.WelcomeMessage = owner.WelcomeMessage
	} else {
		logger.ErrorContext(c, "failed to get cart owner", "error", err)
	}

	c.JSON(http.StatusOK, resp)
}

type workflowResponse struct {
	State inspection.Workflow `json:"state"`
	Step  string              `json:"step"`
}

func (a *API) beginInspectionHandler(c *gin.Context) {
	ct, ok := a.guestCart(c)
	if !ok {
		return
	}
	session, _ := middleware.GetGuestSession(c)

	w := inspection.Begin(ct.ID, session)
	c.JSON(http.StatusOK, workflowResponse{State: w, Step: w.Step()})
}

type guestInfoRequest struct {
	State inspection.Workflow `json:"state"`
	Name  string              `json:"name"`
	Phone string              `json:"phone"`
}

func (a *API) guestInfoHandler(c *gin.Context) {
	var req guestInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	if !a.ownWorkflow(c, req.State) {
		return
	}

	w, err := req.State.SubmitGuestInfo(req.Name, req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, workflowResponse{State: w, Step: w.Step()})
}

func (a *API) inspectionPhotoHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	state, image, ok := a.photoForm(c)
	if !ok {
		return
	}
	if !a.ownWorkflow(c, state) {
		return
	}

	w, err := a.engine.SubmitPhoto(c, state, image)
	if err != nil {
		if errors.Is(err, inspection.ErrPhotoRequired) || errors.Is(err, inspection.ErrWrongStep) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
			return
		}
		if errors.Is(err, evidence.ErrUploadFailed) {
			logger.ErrorContext(c, "evidence upload failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": "UPLOAD_FAILED", "message": "Photo upload failed, please try again"})
			return
		}
		logger.ErrorContext(c, "failed to submit inspection photo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, workflowResponse{State: w, Step: w.Step()})
}

type completeInspectionRequest struct {
	State        inspection.Workflow `json:"state"`
	WaiverAgreed bool                `json:"waiverAgreed"`
}

func (a *API) completeInspectionHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req completeInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	if !a.ownWorkflow(c, req.State) {
		return
	}

	w, err := a.engine.Complete(c, req.State, req.WaiverAgreed)
	if err != nil {
		if errors.Is(err, inspection.ErrWrongStep) || errors.Is(err, inspection.ErrWaiverRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
			return
		}
		// Evidence stays in the store; the guest retries the write with the
		// same state.
		logger.ErrorContext(c, "failed to create rental", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": "PERSISTENCE_FAILED", "message": "Could not save your rental, please try again"})
		return
	}

	c.JSON(http.StatusCreated, struct {
		State    inspection.Workflow `json:"state"`
		RentalID uuid.UUID           `json:"rentalId"`
	}{State: w, RentalID: w.RentalID})
}

func (a *API) checkoutHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	ct, ok := a.guestCart(c)
	if !ok {
		return
	}
	session, _ := middleware.GetGuestSession(c)

	rentalID, err := uuid.Parse(c.PostForm("rentalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rentalId"})
		return
	}

	image, ok := a.photoFile(c)
	if !ok {
		return
	}

	result, err := a.checkout.Submit(c, ct, session, rentalID, image)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrPhotoRequired):
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		case errors.Is(err, rental.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "RENTAL_NOT_FOUND", "message": "Rental not found"})
		case errors.Is(err, rental.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"code": "ALREADY_COMPLETED", "message": "Rental is already completed"})
		case errors.Is(err, evidence.ErrUploadFailed):
			logger.ErrorContext(c, "checkout upload failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": "UPLOAD_FAILED", "message": "Photo upload failed, please try again"})
		case errors.Is(err, vision.ErrVerificationFailed):
			logger.ErrorContext(c, "checkout verification failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": "VERIFICATION_FAILED", "message": "Verification is unavailable, please try again"})
		default:
			logger.ErrorContext(c, "checkout failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// guestCart resolves the path cart for a guest route. Inactive and unknown
// carts look the same.
func (a *API) guestCart(c *gin.Context) (cart.Cart, bool) {
	logger := middleware.GetLogger(c)

	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid cartId"})
		return cart.Cart{}, false
	}

	ct, err := a.cr.GetForGuest(c, cartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CART_NOT_FOUND", "message": "Cart not found"})
			return cart.Cart{}, false
		}
		logger.ErrorContext(c, "failed to get cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return cart.Cart{}, false
	}
	return ct, true
}

// ownWorkflow rejects state blobs that belong to another cart or session.
func (a *API) ownWorkflow(c *gin.Context, w inspection.Workflow) bool {
	session, _ := middleware.GetGuestSession(c)
	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil || w.CartID != cartID || w.SessionID != session {
		c.JSON(http.StatusForbidden, gin.H{"code": "NOT_PERMITTED", "message": "Not permitted"})
		return false
	}
	return true
}

// photoForm reads the multipart photo and the serialized workflow state.
func (a *API) photoForm(c *gin.Context) (inspection.Workflow, []byte, bool) {
	var w inspection.Workflow
	if err := json.Unmarshal([]byte(c.PostForm("state")), &w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid workflow state"})
		return w, nil, false
	}

	image, ok := a.photoFile(c)
	if !ok {
		return w, nil, false
	}
	return w, image, true
}

func (a *API) photoFile(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "A photo is required"})
		return nil, false
	}
	if fh.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Photo too large"})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Unreadable photo"})
		return nil, false
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Unreadable photo"})
		return nil, false
	}
	return image, true
}
