package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fairwayfleet/fleet-backend/cart"
	"github.com/fairwayfleet/fleet-backend/checkout"
	"github.com/fairwayfleet/fleet-backend/host"
	"github.com/fairwayfleet/fleet-backend/inspection"
	"github.com/fairwayfleet/fleet-backend/internal/evidence"
	"github.com/fairwayfleet/fleet-backend/internal/notify"
	"github.com/fairwayfleet/fleet-backend/internal/o11y"
	"github.com/fairwayfleet/fleet-backend/internal/vision"
	"github.com/fairwayfleet/fleet-backend/rental"
	"github.com/fairwayfleet/fleet-backend/servicelog"
)

const (
	testAuth0ID    = "auth0|host-1"
	testCronSecret = "cron-secret"
)

var (
	hostColumns = []string{
		"id", "auth0_id", "email", "name", "phone", "default_deposit_cents",
		"welcome_message", "sms_notifications", "show_financial_tiles",
		"guest_text_support", "billing_address", "created_at",
	}
	cartColumns = []string{
		"id", "host_id", "name", "key_code", "vehicle_type", "access_type",
		"upsell_price_cents", "upsell_unit", "access_code",
		"require_lock_photo", "deposit_cents", "last_serviced_at", "active",
		"created_at",
	}
	rentalColumns = []string{
		"id", "cart_id", "guest_name", "guest_phone", "photos", "status",
		"waiver_agreed", "waiver_signed_at", "revenue_cents", "deposit_status",
		"stripe_payment_intent_id", "created_at", "completed_at",
	}
)

type testServer struct {
	api        *API
	hostID     uuid.UUID
	mock       sqlmock.Sqlmock
	store      *evidence.FakeStore
	verifier   *vision.FakeVerifier
	dispatcher *notify.FakeDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "sqlmock")

	hr := host.NewRepository(sdb)
	cr := cart.NewRepository(sdb)
	rr := rental.NewRepository(sdb)
	slr := servicelog.NewRepository(sdb)

	store := evidence.NewFakeStore()
	verifier := &vision.FakeVerifier{}
	dispatcher := &notify.FakeDispatcher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	obs := &o11y.Observability{Logger: logger, Registry: prometheus.NewRegistry()}

	a := New(hr, cr, rr, slr,
		inspection.NewEngine(store, rr),
		checkout.NewWorkflow(store, verifier, rr, dispatcher, logger),
		dispatcher, obs, fakeHostAuth(testAuth0ID),
		Config{MetricsUsername: "metrics", MetricsPassword: "metrics", CronSecret: testCronSecret})

	return &testServer{
		api:        a,
		hostID:     uuid.New(),
		mock:       mock,
		store:      store,
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

// fakeHostAuth injects validated claims the way the real JWT middleware does,
// so handler-side claim extraction is exercised unchanged.
func fakeHostAuth(auth0ID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
		}
		ctx := context.WithValue(c.Request.Context(), jwtmiddleware.ContextKey{}, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// expectHostLookup queues the profile select every authenticated route starts
// with.
func (ts *testServer) expectHostLookup() {
	ts.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM hosts WHERE auth0_id = $1`)).
		WithArgs(testAuth0ID).
		WillReturnRows(sqlmock.NewRows(hostColumns).AddRow(
			ts.hostID, testAuth0ID, nil, nil, nil, int64(10000),
			"Welcome! Carts are by the garage.", true, true, false, nil,
			time.Now(),
		))
}

func (ts *testServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.api.Router().ServeHTTP(w, req)
	return w
}

func (ts *testServer) POST(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.api.Router().ServeHTTP(w, req)
	return w
}

// POSTPhoto sends a multipart form the way the guest app does: a photo part
// plus any extra form fields.
func (ts *testServer) POSTPhoto(t *testing.T, path string, photo []byte, fields map[string]string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "photo.jpg")
		if err != nil {
			t.Fatalf("multipart: %v", err)
		}
		fw.Write(photo)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.api.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, spew.Sdump(w.Body.String()))
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	decode(t, w, &resp)
	return resp.Code
}
