package settings

import (
	"sync/atomic"
)

// Provider hands out the current settings snapshot. Operators replace the
// snapshot as a whole; readers never see a partially updated value.
type Provider struct {
	current atomic.Pointer[GatewaySettings]
}

func NewProvider(initial GatewaySettings) *Provider {
	p := &Provider{}
	p.Set(initial)
	return p
}

// Current returns a copy of the active settings.
func (p *Provider) Current() GatewaySettings {
	return *p.current.Load()
}

func (p *Provider) Set(s GatewaySettings) {
	p.current.Store(&s)
}
