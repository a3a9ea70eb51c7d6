package handlers

import "net/http"

// ShortenRequest is the body accepted by both shorten endpoints. A missing
// url is reported as an invalid URL rather than a schema error.
type ShortenRequest struct {
	Body struct {
		URL    string `doc:"The URL to shorten"        example:"https://example.com/very/long/path" json:"url"              required:"false"`
		Custom string `doc:"Optional custom short key" example:"my-link"                            json:"custom,omitempty"`
	}
}

// ShortenResponse is returned by POST /.
type ShortenResponse struct {
	Body struct {
		Status int    `doc:"HTTP status of the operation" example:"200"     json:"status"`
		Key    string `doc:"Path of the short link"       example:"/abc123" json:"key"`
	}
}

// ShortenData describes a created link for external tools.
type ShortenData struct {
	ShortURL    string `doc:"The full short URL" example:"http://localhost:8888/abc123"       json:"short_url"`
	ShortCode   string `doc:"The short key"      example:"abc123"                             json:"short_code"`
	OriginalURL string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"original_url"`
}

// APIShortenResponse is returned by POST /api/shorten.
type APIShortenResponse struct {
	Body struct {
		Success bool        `json:"success"`
		Data    ShortenData `json:"data"`
	}
}

// ResolveRequest is the request for following a short link.
type ResolveRequest struct {
	Key string `doc:"The short key" example:"abc123" path:"key"`
}

// ResolveResponse is either a redirect or an HTML page.
type ResolveResponse struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// LoginRequest carries the admin credentials.
type LoginRequest struct {
	Body struct {
		Username string `example:"admin" json:"username"`
		Password string `json:"password"`
	}
}

// LoginResponse sets the session cookie.
type LoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success bool `json:"success"`
	}
}

// LogoutResponse clears the session cookie and sends the caller home.
type LogoutResponse struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// ListLinksRequest selects one page of the admin listing.
type ListLinksRequest struct {
	Page  int `default:"1" doc:"Page number, starting at 1"        query:"page"`
	Limit int `default:"0" doc:"Page size, 0 for the default size" query:"limit"`
}

// LinkItem is one row of the admin listing.
type LinkItem struct {
	URL     string `json:"url"`
	Created string `json:"created"`
	Short   string `json:"short"`
}

// PaginationBody describes where a page sits in the listing.
type PaginationBody struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalLinks      int  `json:"totalLinks"`
	Limit           int  `json:"limit"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// ListLinksResponse is one page of links, newest first.
type ListLinksResponse struct {
	Body struct {
		Success    bool           `json:"success"`
		Links      []LinkItem     `json:"links"`
		Pagination PaginationBody `json:"pagination"`
	}
}

// DeleteLinkRequest names the link to remove.
type DeleteLinkRequest struct {
	Key string `doc:"The short key" example:"abc123" path:"key"`
}

// DeleteLinkResponse confirms a removal.
type DeleteLinkResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}
