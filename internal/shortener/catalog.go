package shortener

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Pagination describes where a page sits in the full listing.
type Pagination struct {
	CurrentPage     int
	TotalPages      int
	TotalLinks      int
	Limit           int
	HasNextPage     bool
	HasPreviousPage bool
}

// Page is one slice of the admin listing.
type Page struct {
	Links      []*Link
	Pagination Pagination
}

// Catalog lists and deletes links for administrators.
type Catalog struct {
	links           *LinkStore
	index           *ContentIndex
	defaultPageSize int
	maxPageSize     int
	logger          *zap.Logger
}

// NewCatalog creates a Catalog. Non-positive sizes fall back to the defaults.
func NewCatalog(links *LinkStore, index *ContentIndex, defaultPageSize, maxPageSize int, logger *zap.Logger) *Catalog {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}

	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = min(DefaultPageSize, maxPageSize)
	}

	return &Catalog{
		links:           links,
		index:           index,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

// List returns page number page of all links, newest first. Links without a
// readable creation time sort last. pageSize 0 means the default size and is
// otherwise clamped to the maximum; page below 1 is treated as 1.
func (c *Catalog) List(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	switch {
	case pageSize <= 0:
		pageSize = c.defaultPageSize
	case pageSize > c.maxPageSize:
		pageSize = c.maxPageSize
	}

	keys, err := c.links.List(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]*Link, 0, len(keys))

	for _, key := range keys {
		link, err := c.links.GetMetadata(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}

			c.logger.Warn("skipping unreadable metadata",
				zap.String("key", string(key)),
				zap.Error(err),
			)

			continue
		}

		links = append(links, link)
	}

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	total := len(links)
	totalPages := (total + pageSize - 1) / pageSize

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return &Page{
		Links: links[start:end],
		Pagination: Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			TotalLinks:      total,
			Limit:           pageSize,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
		},
	}, nil
}

// Delete removes a link. It returns ErrNotFound unless the primary mapping
// exists. The content-hash entry is dropped as well when it points at key.
func (c *Catalog) Delete(ctx context.Context, key Key) error {
	exists, err := c.links.Exists(ctx, key)
	if err != nil {
		return err
	}

	if !exists {
		return ErrNotFound
	}

	meta, err := c.links.GetMetadata(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("metadata unreadable during delete",
			zap.String("key", string(key)),
			zap.Error(err),
		)
	}

	if err = c.links.Delete(ctx, key); err != nil {
		return err
	}

	if meta != nil && meta.URL != "" {
		if err = c.index.Forget(ctx, HashURL(meta.URL), key); err != nil {
			c.logger.Warn("content hash not forgotten",
				zap.String("key", string(key)),
				zap.Error(err),
			)
		}
	}

	return nil
}
