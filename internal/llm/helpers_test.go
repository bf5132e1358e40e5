package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// failingClient fails the test on any network use.
func failingClient(t *testing.T) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request to %s", r.URL)
		return nil, errors.New("network disabled")
	})}
}

// recorderLog collects every attempt in order.
type recorderLog struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *recorderLog) Record(a Attempt) {
	r.mu.Lock()
	r.attempts = append(r.attempts, a)
	r.mu.Unlock()
}

func (r *recorderLog) last() Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.attempts) == 0 {
		return Attempt{}
	}
	return r.attempts[len(r.attempts)-1]
}

// fakeChatModel answers Generate from a function and remembers its inputs.
type fakeChatModel struct {
	generate func(ctx context.Context, in []*schema.Message) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	return f.generate(ctx, in)
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// factoryCall captures the arguments a ChatModelFactory saw.
type factoryCall struct {
	creds Credentials
	model string
	input []*schema.Message
}

func fakeFactory(calls *[]factoryCall, reply string, err error) ChatModelFactory {
	return func(_ context.Context, creds Credentials, modelName string) (einomodel.BaseChatModel, error) {
		call := factoryCall{creds: creds, model: modelName}
		return &fakeChatModel{generate: func(_ context.Context, in []*schema.Message) (*schema.Message, error) {
			call.input = in
			*calls = append(*calls, call)
			if err != nil {
				return nil, err
			}
			return schema.AssistantMessage(reply, nil), nil
		}}, nil
	}
}
