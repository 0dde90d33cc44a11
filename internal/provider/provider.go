package provider

// ID identifies a provider variant.
type ID string

// Supported providers.
const (
	OpenAI       ID = "openai"
	Anthropic    ID = "anthropic"
	Gemini       ID = "gemini"
	OpenRouter   ID = "openrouter"
	Replicate    ID = "replicate"
	RunPod       ID = "runpod"
	GoogleImages ID = "google_images"
	YouTube      ID = "youtube"
)

// Capability is what a provider can do for the gateway.
type Capability string

// Provider capabilities.
const (
	CapabilityChat   Capability = "chat"
	CapabilityImage  Capability = "image"
	CapabilitySearch Capability = "search"
	// CapabilityLookup marks reference-validation services.
	CapabilityLookup Capability = "lookup"
)

// capabilities is the closed table of known providers.
var capabilities = map[ID]Capability{
	OpenAI:       CapabilityChat,
	Anthropic:    CapabilityChat,
	Gemini:       CapabilityChat,
	OpenRouter:   CapabilityChat,
	Replicate:    CapabilityImage,
	RunPod:       CapabilityImage,
	GoogleImages: CapabilitySearch,
	YouTube:      CapabilityLookup,
}

// CapabilityOf returns the capability of id and whether id is known.
func CapabilityOf(id ID) (Capability, bool) {
	c, ok := capabilities[id]
	return c, ok
}

// Descriptor is the immutable description of one configured upstream.
type Descriptor struct {
	ID         ID
	Capability Capability
	// Endpoint is the base URL; empty means the SDK default.
	Endpoint      string
	Model         string
	LongFormModel string
	Credential    Secret
	// Scope is a secondary identifier some providers need, such as a search engine id.
	Scope string
}

// Configured reports whether the descriptor has everything needed to make a call.
func (d Descriptor) Configured() bool {
	if d.Credential.Empty() {
		return false
	}
	switch d.ID {
	case GoogleImages:
		return d.Scope != ""
	case RunPod:
		return d.Model != ""
	default:
		return true
	}
}

// ModelFor returns the long-form model when requested and configured, otherwise Model.
func (d Descriptor) ModelFor(longForm bool) string {
	if longForm && d.LongFormModel != "" {
		return d.LongFormModel
	}
	return d.Model
}
