package testsupport

import (
	"context"
	"strings"
	"sync"

	"autouploader/internal/metadata"
)

// Provider is a canned metadata.Provider keyed by lowercased title.
type Provider struct {
	mu      sync.Mutex
	name    string
	entries map[string]metadata.Info
	Err     error
	Queries []metadata.Query
}

// NewProvider returns a provider reporting name.
func NewProvider(name string) *Provider {
	return &Provider{name: name, entries: map[string]metadata.Info{}}
}

// Add registers info for title.
func (p *Provider) Add(title string, info metadata.Info) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[strings.ToLower(title)] = info
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Lookup(_ context.Context, q metadata.Query) (metadata.Info, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Queries = append(p.Queries, q)
	if p.Err != nil {
		return metadata.Info{}, false, p.Err
	}
	info, ok := p.entries[strings.ToLower(q.Title)]
	return info, ok, nil
}
