package notify

import "context"

type SentMessage struct {
	To   string
	Body string
}

// FakeDispatcher is a test implementation of Dispatcher.
type FakeDispatcher struct {
	Sent []SentMessage
	Err  error
}

func (d *FakeDispatcher) Send(ctx context.Context, toPhone, body string) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	d.Sent = append(d.Sent, SentMessage{To: toPhone, Body: body})
	return "SM" + toPhone, nil
}
