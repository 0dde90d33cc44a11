package provider

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds a credential. It renders as [REDACTED] through fmt and slog so
// that a descriptor can be logged without leaking the key.
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString implements fmt.GoStringer for %#v.
func (s Secret) GoString() string {
	return s.String()
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// MarshalText keeps the credential out of JSON and YAML encodings.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reveal returns the raw credential. Only adapters building upstream requests call it.
func (s Secret) Reveal() string {
	return string(s)
}

// Empty reports whether no credential is set.
func (s Secret) Empty() bool {
	return s == ""
}
