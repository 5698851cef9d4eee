package evidence

import "context"

// FakeStore is a test implementation of Store.
type FakeStore struct {
	Objects map[string][]byte
	// FailNext makes the next Upload call fail once.
	FailNext bool
	// Uploads records keys in call order.
	Uploads []string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: make(map[string][]byte)}
}

func (s *FakeStore) Upload(ctx context.Context, key string, data []byte, upsert bool) error {
	if s.FailNext {
		s.FailNext = false
		return ErrUploadFailed
	}
	if !upsert {
		if _, exists := s.Objects[key]; exists {
			return ErrUploadFailed
		}
	}
	s.Objects[key] = data
	s.Uploads = append(s.Uploads, key)
	return nil
}

func (s *FakeStore) PublicURL(key string) string {
	return "https://evidence.test/" + key
}
