package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/checkout"
	"github.com/fairwayfleet/fleet-backend/host"
	"github.com/fairwayfleet/fleet-backend/inspection"
	"github.com/fairwayfleet/fleet-backend/internal/middleware"
	"github.com/fairwayfleet/fleet-backend/internal/notify"
	"github.com/fairwayfleet/fleet-backend/internal/o11y"
	"github.com/fairwayfleet/fleet-backend/rental"
	"github.com/fairwayfleet/fleet-backend/servicelog"
)

// Config carries the non-repository knobs the API needs.
type Config struct {
	MetricsUsername string
	MetricsPassword string
	CronSecret      string
}

type API struct {
	r *gin.Engine

	hr  *host.Repository
	cr  *cart.Repository
	rr  *rental.Repository
	slr *servicelog.Repository

	engine   *inspection.Engine
	checkout *checkout.Workflow
	notifier notify.Dispatcher

	obs *o11y.Observability
	cfg Config
}

// New wires the router. hostAuth is the JWT middleware for host routes; tests
// substitute a fake that injects claims directly.
func New(hr *host.Repository, cr *cart.Repository, rr *rental.Repository, slr *servicelog.Repository,
	engine *inspection.Engine, chk *checkout.Workflow, notifier notify.Dispatcher,
	obs *o11y.Observability, hostAuth gin.HandlerFunc, cfg Config) *API {

	a := &API{
		r:        gin.New(),
		hr:       hr,
		cr:       cr,
		rr:       rr,
		slr:      slr,
		engine:   engine,
		checkout: chk,
		notifier: notifier,
		obs:      obs,
		cfg:      cfg,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	metrics := a.r.Group("/metrics", gin.BasicAuth(gin.Accounts{
		cfg.MetricsUsername: cfg.MetricsPassword,
	}))
	metrics.GET("", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))

	hosts := a.r.Group("/", hostAuth)
	{
		hosts.GET("/carts", a.getCartsHandler)
		hosts.POST("/carts", a.createCartHandler)
		hosts.GET("/carts/:cartId", a.getCartHandler)
		hosts.PUT("/carts/:cartId", a.updateCartHandler)
		hosts.DELETE("/carts/:cartId", a.deleteCartHandler)

		hosts.GET("/carts/:cartId/service-logs", a.getServiceLogsHandler)
		hosts.POST("/carts/:cartId/service-logs", a.createServiceLogHandler)
		hosts.PATCH("/service-logs/:logId/cost", a.updateServiceLogCostHandler)

		hosts.GET("/rentals", a.getRentalsHandler)
		hosts.GET("/rentals/:rentalId", a.getRentalHandler)
		hosts.PATCH("/rentals/:rentalId/revenue", a.updateRevenueHandler)
		hosts.PATCH("/rentals/:rentalId/deposit", a.updateDepositHandler)
		hosts.POST("/rentals/:rentalId/deposit/collect", a.collectDepositHandler)
		hosts.POST("/rentals/:rentalId/deposit/refund", a.refundDepositHandler)

		hosts.GET("/profile", a.getProfileHandler)
		hosts.PUT("/profile", a.updateProfileHandler)

		hosts.GET("/fleet/health", a.fleetHealthHandler)
		hosts.GET("/fleet/financials", a.fleetFinancialsHandler)
	}

	guests := a.r.Group("/guest", middleware.GuestSession())
	{
		guests.GET("/carts/:cartId", a.guestCartHandler)
		guests.POST("/carts/:cartId/inspection/begin", a.beginInspectionHandler)
		guests.POST("/carts/:cartId/inspection/guest-info", a.guestInfoHandler)
		guests.POST("/carts/:cartId/inspection/photo", a.inspectionPhotoHandler)
		guests.POST("/carts/:cartId/inspection/complete", a.completeInspectionHandler)
		guests.POST("/carts/:cartId/checkout", a.checkoutHandler)
	}

	jobs := a.r.Group("/jobs", middleware.CronSecret(cfg.CronSecret))
	{
		jobs.POST("/departure-reminders", a.departureRemindersHandler)
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// currentHost resolves the authenticated host's profile row, creating it on
// first touch. Writes the error response itself on failure.
func (a *API) currentHost(c *gin.Context) (*host.Host, bool) {
	logger := middleware.GetLogger(c)

	auth0ID, ok := middleware.GetHostAuth0ID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return nil, false
	}

	h, err := a.hr.GetByAuth0ID(c, auth0ID)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			h, err = a.hr.Create(c, auth0ID)
			if err != nil {
				logger.ErrorContext(c, "failed to create host profile", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return nil, false
			}
			return h, true
		}
		logger.ErrorContext(c, "failed to get host profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return h, true
}
