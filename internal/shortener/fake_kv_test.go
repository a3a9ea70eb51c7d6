package shortener_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/shortener"
)

var errStoreDown = errors.New("store unavailable")

type fakeEntry struct {
	value     []byte
	expiresAt time.Time
}

// fakeKV is an in-memory shortener.KV whose expiry follows a mock clock and
// whose writes can be made to fail per key.
type fakeKV struct {
	mu          sync.Mutex
	clock       *clock.Mock
	entries     map[string]fakeEntry
	failPut     map[string]error
	failDelete  map[string]error
	failGet     map[string]error
	puts        int
	conditional bool
}

func newFakeKV(clk *clock.Mock) *fakeKV {
	return &fakeKV{
		clock:      clk,
		entries:    make(map[string]fakeEntry),
		failPut:    make(map[string]error),
		failDelete: make(map[string]error),
		failGet:    make(map[string]error),
	}
}

func (f *fakeKV) live(key string) (fakeEntry, bool) {
	e, ok := f.entries[key]
	if !ok {
		return fakeEntry{}, false
	}

	if !e.expiresAt.IsZero() && !f.clock.Now().Before(e.expiresAt) {
		delete(f.entries, key)

		return fakeEntry{}, false
	}

	return e, true
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failGet[key]; err != nil {
		return nil, err
	}

	e, ok := f.live(key)
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return append([]byte(nil), e.value...), nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.put(key, value, ttl)
}

func (f *fakeKV) put(key string, value []byte, ttl time.Duration) error {
	if err := f.failPut[key]; err != nil {
		return err
	}

	e := fakeEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = f.clock.Now().Add(ttl)
	}

	f.entries[key] = e
	f.puts++

	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failDelete[key]; err != nil {
		return err
	}

	delete(f.entries, key)

	return nil
}

func (f *fakeKV) List(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.entries))

	for k := range f.entries {
		if _, ok := f.live(k); ok {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

func (f *fakeKV) keys() []string {
	keys, _ := f.List(context.Background())

	return keys
}

// conditionalKV adds PutIfAbsent on top of fakeKV.
type conditionalKV struct {
	*fakeKV
}

func (c conditionalKV) PutIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(key); ok {
		return false, nil
	}

	return true, c.put(key, value, ttl)
}

func sequence(keys ...string) shortener.KeyGenerator {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		k := keys[i%len(keys)]
		i++

		return k
	}
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
