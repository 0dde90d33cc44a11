package provider

import (
	"fmt"

	"github.com/phrazzld/lessonforge/internal/config"
)

// Registry maps provider ids to descriptors. It is built once and read-only afterwards,
// so it is safe for concurrent use.
type Registry struct {
	descriptors map[ID]Descriptor
	defaultChat ID
}

// NewRegistry builds a registry from descriptors. defaultChat must name a
// descriptor with the chat capability.
func NewRegistry(defaultChat ID, descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make(map[ID]Descriptor, len(descriptors)),
		defaultChat: defaultChat,
	}
	for _, d := range descriptors {
		c, ok := CapabilityOf(d.ID)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", d.ID)
		}
		d.Capability = c
		r.descriptors[d.ID] = d
	}

	if d, ok := r.descriptors[defaultChat]; !ok || d.Capability != CapabilityChat {
		return nil, fmt.Errorf("default chat provider %q is not a registered chat provider", defaultChat)
	}
	return r, nil
}

// FromConfig builds the registry from the providers section of the configuration.
func FromConfig(cfg config.ProvidersConfig) (*Registry, error) {
	entry := func(id ID, p config.ProviderConfig) Descriptor {
		return Descriptor{
			ID:            id,
			Endpoint:      p.BaseURL,
			Model:         p.Model,
			LongFormModel: p.LongFormModel,
			Credential:    Secret(p.APIKey),
			Scope:         p.SearchEngineID,
		}
	}

	return NewRegistry(ID(cfg.DefaultChat),
		entry(OpenAI, cfg.OpenAI),
		entry(Anthropic, cfg.Anthropic),
		entry(Gemini, cfg.Gemini),
		entry(OpenRouter, cfg.OpenRouter),
		entry(Replicate, cfg.Replicate),
		entry(RunPod, cfg.RunPod),
		entry(GoogleImages, cfg.GoogleImages),
		entry(YouTube, cfg.YouTube),
	)
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id ID) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// DefaultChat returns the id of the configured default chat provider.
func (r *Registry) DefaultChat() ID {
	return r.defaultChat
}

// ResolveChat returns the chat descriptor for id. Unknown, empty, or non-chat
// ids resolve to the default chat provider; resolution never fails.
func (r *Registry) ResolveChat(id string) Descriptor {
	if d, ok := r.descriptors[ID(id)]; ok && d.Capability == CapabilityChat {
		return d
	}
	return r.descriptors[r.defaultChat]
}
