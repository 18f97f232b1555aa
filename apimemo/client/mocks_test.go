package client

import (
	"context"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/stretchr/testify/mock"
)

// MockTransport for testing
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, url string, headers map[string]string) (*ports.Response, error) {
	args := m.Called(ctx, url, headers)
	resp, _ := args.Get(0).(*ports.Response)
	return resp, args.Error(1)
}

// MockLedger for testing
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Record(ctx context.Context, d ports.Dispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockLedger) Recent(ctx context.Context, limit int) ([]ports.Dispatch, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]ports.Dispatch)
	return out, args.Error(1)
}

// staticOptions is an in-memory OptionSource.
type staticOptions map[string]string

func (o staticOptions) GetOption(name string) (string, bool) {
	v, ok := o[name]
	return v, ok && v != ""
}

func carCodeOptions() staticOptions {
	return staticOptions{
		ports.OptionHost:         "car-code.p.rapidapi.com",
		ports.OptionEndpoint:     "obd2",
		ports.OptionHeader:       "X-RapidAPI-Host",
		ports.OptionRapidAPIHost: "car-code.p.rapidapi.com",
		ports.OptionHeader1:      "X-RapidAPI-Key",
		ports.OptionRapidAPIKey:  "secret",
	}
}

func carCodeHeaders() map[string]string {
	return map[string]string{
		"X-RapidAPI-Host": "car-code.p.rapidapi.com",
		"X-RapidAPI-Key":  "secret",
	}
}
