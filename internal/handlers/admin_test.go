package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListLinks(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})

		assert.Equal(t, http.StatusUnauthorized, f.api.Get("/api/admin/links").Code)
		assert.Equal(t, http.StatusUnauthorized, f.api.Get("/api/admin/links", apiKeyHeader).Code)
	})

	t.Run("lists newest first with pagination", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})

		keys := make([]string, 0, 3)

		for _, target := range []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"} {
			keys = append(keys, f.shorten(t, target))
			f.clock.Advance(time.Minute)
		}

		resp := f.api.Get("/api/admin/links?page=1&limit=2", f.sessionHeader(t))
		require.Equal(t, http.StatusOK, resp.Code)

		body := decode(t, resp)
		assert.Equal(t, true, body["success"])

		links, ok := body["links"].([]any)
		require.True(t, ok)
		require.Len(t, links, 2)

		newest, _ := links[0].(map[string]any)
		assert.Equal(t, "https://c.example.com", newest["url"])
		assert.Equal(t, keys[2], newest["short"])
		assert.Equal(t, "2025-01-01T00:02:00Z", newest["created"])

		pagination, ok := body["pagination"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 1, pagination["currentPage"])
		assert.EqualValues(t, 2, pagination["totalPages"])
		assert.EqualValues(t, 3, pagination["totalLinks"])
		assert.EqualValues(t, 2, pagination["limit"])
		assert.Equal(t, true, pagination["hasNextPage"])
		assert.Equal(t, false, pagination["hasPreviousPage"])

		resp = f.api.Get("/api/admin/links?page=2&limit=2", f.sessionHeader(t))
		require.Equal(t, http.StatusOK, resp.Code)

		body = decode(t, resp)
		links, _ = body["links"].([]any)
		require.Len(t, links, 1)

		oldest, _ := links[0].(map[string]any)
		assert.Equal(t, keys[0], oldest["short"])
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})

		resp := f.api.Get("/api/admin/links", f.sessionHeader(t))
		require.Equal(t, http.StatusOK, resp.Code)

		body := decode(t, resp)
		assert.Equal(t, []any{}, body["links"])

		pagination, _ := body["pagination"].(map[string]any)
		assert.EqualValues(t, 0, pagination["totalPages"])
		assert.EqualValues(t, 50, pagination["limit"])
	})

	t.Run("store failure is a generic 500", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{kv: unreachableKV{}})

		resp := f.api.Get("/api/admin/links", f.sessionHeader(t))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestDeleteLink(t *testing.T) {
	t.Run("removes the link and publishes", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})
		key := f.shorten(t, testURL)

		resp := f.api.Delete("/api/admin/links/"+key, f.sessionHeader(t))

		require.Equal(t, http.StatusOK, resp.Code)

		body := decode(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Delete successful", body["message"])

		assert.Equal(t, http.StatusNotFound, f.api.Get("/"+key).Code)

		require.Len(t, f.events.deleted, 1)
		assert.Equal(t, key, f.events.deleted[0].Key)
		assert.Equal(t, "admin", f.events.deleted[0].DeletedBy)
		assert.Equal(t, f.clock.Now(), f.events.deleted[0].DeletedAt)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})

		resp := f.api.Delete("/api/admin/links/nothere", f.sessionHeader(t))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "Short URL does not exist")
		assert.Empty(t, f.events.deleted)
	})

	t.Run("requires a session", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})
		key := f.shorten(t, testURL)

		resp := f.api.Delete("/api/admin/links/"+key, apiKeyHeader)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, http.StatusFound, f.api.Get("/"+key).Code)
	})

	t.Run("store failure is a generic 500", func(t *testing.T) {
		memory := store.NewMemoryKV(time.Minute)
		f := newFixture(t, fixtureOptions{kv: &brokenKV{KV: memory}})

		require.NoError(t, memory.Put(t.Context(), "stuck", []byte(testURL), time.Hour))

		resp := f.api.Delete("/api/admin/links/stuck", f.sessionHeader(t))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Empty(t, f.events.deleted)
	})
}
