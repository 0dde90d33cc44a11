// Package service contains the orchestration layer that sits between the HTTP
// handlers and the generation components.
//
// The Orchestrator enforces the one ordering rule every operation shares:
// admission runs to completion first, and nothing else runs unless it admits
// the request. Chat requests go to the chat dispatcher, image and illustration
// requests to the image fallback pipeline, and markup to the normalizer.
//
// Dependencies are injected through NewOrchestrator as small interfaces so
// that tests can substitute the fakes from internal/mocks.
package service
