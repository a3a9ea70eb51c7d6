package shortener

import (
	"context"
	"errors"
	"strings"

	"github.com/serroba/shortlink/internal/clock"
	"go.uber.org/zap"
)

// DefaultMaxMintAttempts bounds how many generated keys are tried before
// minting gives up with ErrKeySpaceExhausted.
const DefaultMaxMintAttempts = 8

// Policy holds the feature flags that shape a shorten request.
type Policy struct {
	// Dedup makes identical target URLs share one short key.
	Dedup bool
	// AllowCustom permits callers to choose their own key.
	AllowCustom        bool
	MaxCustomKeyLength int
	MaxMintAttempts    int
}

// Request is a single shorten call.
type Request struct {
	URL       string
	CustomKey string
}

// Result is the link a shorten call resolved to. Reused is set when an
// existing deduplicated link was returned instead of a new one.
type Result struct {
	Link   *Link
	Reused bool
}

// Service issues and resolves short links.
type Service struct {
	links    *LinkStore
	index    *ContentIndex
	generate KeyGenerator
	policy   Policy
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService wires a Service.
func NewService(
	links *LinkStore,
	index *ContentIndex,
	generate KeyGenerator,
	policy Policy,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	if policy.MaxMintAttempts <= 0 {
		policy.MaxMintAttempts = DefaultMaxMintAttempts
	}

	if policy.MaxCustomKeyLength <= 0 {
		policy.MaxCustomKeyLength = DefaultMaxCustomKeyLength
	}

	return &Service{
		links:    links,
		index:    index,
		generate: generate,
		policy:   policy,
		clock:    clk,
		logger:   logger,
	}
}

// Policy returns the effective policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Shorten maps req.URL to a short key.
//
// A custom key always creates its own mapping, even when the URL already has
// a deduplicated key. Without one, dedup returns the live key recorded for
// the URL digest, and otherwise a fresh key is minted.
func (s *Service) Shorten(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	if custom := strings.TrimSpace(req.CustomKey); custom != "" {
		return s.shortenCustom(ctx, req.URL, custom)
	}

	if !s.policy.Dedup {
		link, err := s.mint(ctx, req.URL)
		if err != nil {
			return nil, err
		}

		return &Result{Link: link}, nil
	}

	hash := HashURL(req.URL)

	existing, err := s.lookup(ctx, hash, req.URL)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return &Result{Link: existing, Reused: true}, nil
	}

	link, err := s.mint(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	// The link is complete at this point; a missing index entry only costs a
	// dedup miss on the next request.
	if err = s.index.Record(ctx, hash, link.Key); err != nil {
		s.logger.Warn("content hash not recorded",
			zap.String("key", string(link.Key)),
			zap.Error(err),
		)
	}

	return &Result{Link: link}, nil
}

func (s *Service) shortenCustom(ctx context.Context, rawURL, custom string) (*Result, error) {
	if !s.policy.AllowCustom {
		return nil, ErrCustomKeysDisabled
	}

	if err := ValidateCustomKey(custom, s.policy.MaxCustomKeyLength); err != nil {
		return nil, err
	}

	link := s.newLink(Key(custom), rawURL)
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	return &Result{Link: link}, nil
}

// lookup returns the live link recorded for hash. An index entry whose link
// was deleted, expired, or reused for another URL counts as a miss.
func (s *Service) lookup(ctx context.Context, hash, rawURL string) (*Link, error) {
	key, err := s.index.Lookup(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	target, err := s.links.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if target != rawURL {
		return nil, nil
	}

	link := &Link{Key: key, URL: target}

	if meta, metaErr := s.links.GetMetadata(ctx, key); metaErr == nil {
		link.CreatedAt = meta.CreatedAt
		link.ExpiresAt = meta.ExpiresAt
	}

	return link, nil
}

func (s *Service) mint(ctx context.Context, rawURL string) (*Link, error) {
	for range s.policy.MaxMintAttempts {
		link := s.newLink(Key(s.generate()), rawURL)

		err := s.links.Create(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrKeyTaken) {
			return nil, err
		}

		s.logger.Debug("generated key collided", zap.String("key", string(link.Key)))
	}

	return nil, ErrKeySpaceExhausted
}

func (s *Service) newLink(key Key, rawURL string) *Link {
	now := s.clock.Now()

	link := &Link{Key: key, URL: rawURL, CreatedAt: now}
	if ttl := s.links.TTL(); ttl > 0 {
		link.ExpiresAt = now.Add(ttl)
	}

	return link
}

// Resolve returns the target URL stored for key.
func (s *Service) Resolve(ctx context.Context, key Key) (string, error) {
	return s.links.Get(ctx, key)
}
