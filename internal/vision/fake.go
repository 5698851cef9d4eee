package vision

import "context"

// FakeVerifier is a test implementation of Verifier.
type FakeVerifier struct {
	Judgment Judgment
	Err      error
	// Calls records the URLs verified.
	Calls []string
}

func (v *FakeVerifier) Verify(ctx context.Context, imageURL string) (Judgment, error) {
	v.Calls = append(v.Calls, imageURL)
	if v.Err != nil {
		return Judgment{}, v.Err
	}
	return v.Judgment, nil
}
