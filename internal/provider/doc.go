// Package provider defines the closed set of upstream services the gateway can
// call, the capability each one offers, and the immutable registry built from
// configuration at startup. Call sites switch on the typed ID and Capability
// values defined here rather than matching provider names as strings.
package provider
