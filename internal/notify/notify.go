// Package notify wraps the SMS dispatcher. Delivery is best-effort: callers
// log failures and never let them fail the primary workflow.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var ErrSendFailed = errors.New("failed to send SMS")

type Dispatcher interface {
	// Send dispatches a single SMS and returns the provider message id.
	Send(ctx context.Context, toPhone, body string) (string, error)
}

// HTTPDispatcher posts to a Twilio-compatible messages endpoint.
type HTTPDispatcher struct {
	baseURL    string
	accountSID string
	authToken  string
	fromPhone  string
	httpClient *http.Client
}

func NewHTTPDispatcher(baseURL, accountSID, authToken, fromPhone string) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		fromPhone:  fromPhone,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (d *HTTPDispatcher) Send(ctx context.Context, toPhone, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", d.baseURL, d.accountSID)

	form := url.Values{}
	form.Set("To", toPhone)
	form.Set("From", d.fromPhone)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return out.SID, nil
}
