package handlers_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/safety"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/mock"
)

var errMock = errors.New("mock error")

// mockChecker is a testify mock of safety.Checker.
type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) Check(ctx context.Context, target string) (safety.Verdict, error) {
	args := m.Called(ctx, target)

	return args.Get(0).(safety.Verdict), args.Error(1)
}

// brokenKV wraps a KV and fails metadata writes and every delete, which
// leaves a half-written link behind.
type brokenKV struct {
	shortener.KV
}

func (b *brokenKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, "meta_") {
		return errMock
	}

	return b.KV.Put(ctx, key, value, ttl)
}

func (b *brokenKV) Delete(context.Context, string) error {
	return errMock
}

// unreachableKV fails every call.
type unreachableKV struct{}

func (unreachableKV) Get(context.Context, string) ([]byte, error) {
	return nil, errMock
}

func (unreachableKV) Put(context.Context, string, []byte, time.Duration) error {
	return errMock
}

func (unreachableKV) Delete(context.Context, string) error {
	return errMock
}

func (unreachableKV) List(context.Context) ([]string, error) {
	return nil, errMock
}

// eventRecorder captures published events.
type eventRecorder struct {
	mu           sync.Mutex
	created      []events.LinkCreatedEvent
	deleted      []events.LinkDeletedEvent
	inconsistent []events.LinkInconsistentEvent
	fail         bool
}

func (r *eventRecorder) publishers() *events.Publishers {
	return &events.Publishers{
		Created: func(_ context.Context, e *events.LinkCreatedEvent) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.created = append(r.created, *e)

			return r.err()
		},
		Deleted: func(_ context.Context, e *events.LinkDeletedEvent) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.deleted = append(r.deleted, *e)

			return r.err()
		},
		Inconsistent: func(_ context.Context, e *events.LinkInconsistentEvent) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.inconsistent = append(r.inconsistent, *e)

			return r.err()
		},
	}
}

func (r *eventRecorder) err() error {
	if r.fail {
		return errMock
	}

	return nil
}
