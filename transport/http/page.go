package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestPage presents one HTTP request as a page load. Navigation commits a
// redirect response and ends the page; a replaced URL is answered with a
// redirect to it by the handler once no navigation happened.
type requestPage struct {
	c           *gin.Context
	url         string
	originalURL string
	navigated   bool
	onNavigate  context.CancelFunc
}

func newRequestPage(c *gin.Context, publicURL string) *requestPage {
	u := absoluteURL(c.Request, publicURL)
	return &requestPage{c: c, url: u, originalURL: u}
}

func (p *requestPage) CurrentURL() string {
	return p.url
}

func (p *requestPage) ReplaceURL(url string) {
	p.url = url
}

func (p *requestPage) Navigate(ctx context.Context, url string) error {
	if p.navigated {
		return nil
	}
	p.navigated = true
	p.c.Redirect(http.StatusFound, url)
	p.c.Writer.Flush()
	if p.onNavigate != nil {
		p.onNavigate()
	}
	return nil
}

func (p *requestPage) replaced() bool {
	return p.url != p.originalURL
}

// absoluteURL rebuilds the URL the browser requested. publicURL, when set,
// replaces the scheme and host seen by the server.
func absoluteURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
