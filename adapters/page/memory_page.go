package page

import (
	"context"
	"sync"

	"github.com/layer-3/walletredirect/ports"
)

// MemoryPage is a Page that records replacements and navigations instead of
// acting on them. Navigate does not end the caller, so code waiting on a
// navigation observes its timeout.
type MemoryPage struct {
	mu           sync.Mutex
	url          string
	replacements []string
	navigations  []string
	navigateErr  error
}

// NewMemoryPage creates a page showing url
func NewMemoryPage(url string) *MemoryPage {
	return &MemoryPage{url: url}
}

var _ ports.Page = (*MemoryPage)(nil)

func (p *MemoryPage) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *MemoryPage) ReplaceURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.replacements = append(p.replacements, url)
}

func (p *MemoryPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.navigations = append(p.navigations, url)
	return nil
}

// FailNavigation makes every later Navigate return err.
func (p *MemoryPage) FailNavigation(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigateErr = err
}

// Replacements returns every URL passed to ReplaceURL, oldest first.
func (p *MemoryPage) Replacements() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.replacements...)
}

// Navigations returns every URL passed to Navigate, oldest first.
func (p *MemoryPage) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}
