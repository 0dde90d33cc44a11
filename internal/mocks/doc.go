// Package mocks provides centralized mock implementations for testing.
//
// Each mock has a function field per interface method for custom behavior,
// default return values used when the function field is nil, and mutex-guarded
// call tracking for verification:
//
//	dispatcher := &mocks.MockChatDispatcher{
//	    DispatchFn: func(ctx context.Context, providerID string, req chat.Request) (chat.Result, error) {
//	        return chat.Result{Text: "hi", ProviderID: "openai"}, nil
//	    },
//	}
//	// ... exercise the code under test ...
//	assert.Equal(t, 1, dispatcher.DispatchCalls.Count)
//
// When adding a new mock to this package, name the file after the interface
// being mocked and give it a Reset method.
package mocks
