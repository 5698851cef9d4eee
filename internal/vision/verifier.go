// Package vision wraps the vision-model judgment used by verified checkout.
package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/genai"
)

var ErrVerificationFailed = errors.New("verification request failed")

// Judgment is the structured answer for a checkout photo.
type Judgment struct {
	IsPluggedIn bool   `json:"is_plugged_in"`
	Reason      string `json:"reason"`
}

type Verifier interface {
	// Verify fetches the image at imageURL and asks whether the cart is
	// visibly plugged in and charging.
	Verify(ctx context.Context, imageURL string) (Judgment, error)
}

const prompt = `You are inspecting a photo taken by a guest returning an electric golf cart.
Answer whether the cart's charging cable is visibly plugged into both the cart and a power outlet.
Respond with JSON only: {"is_plugged_in": boolean, "reason": string}.
The reason must be a short guest-facing sentence.`

// GeminiVerifier judges checkout photos with a Gemini vision model.
type GeminiVerifier struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

func NewGeminiVerifier(ctx context.Context, apiKey, model string) (*GeminiVerifier, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiVerifier{
		client: client,
		model:  model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (v *GeminiVerifier) Verify(ctx context.Context, imageURL string) (Judgment, error) {
	img, err := v.fetchImage(ctx, imageURL)
	if err != nil {
		return Judgment{}, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img, "image/jpeg"),
		}, genai.RoleUser),
	}

	result, err := v.client.Models.GenerateContent(ctx, v.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return Judgment{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	var j Judgment
	if err := json.Unmarshal([]byte(result.Text()), &j); err != nil {
		return Judgment{}, fmt.Errorf("%w: unparseable model response: %v", ErrVerificationFailed, err)
	}
	return j, nil
}

func (v *GeminiVerifier) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image fetch status %d", ErrVerificationFailed, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
