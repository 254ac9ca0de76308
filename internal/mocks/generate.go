// Package mocks provides mock implementations for testing the auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	provider := mocks.NewMockAuthProvider(ctrl)
//	provider.EXPECT().Exchange(gomock.Any(), "code").Return("raw", nil)
package mocks

// Generate mock for AuthProvider interface from internal/ports.
// This creates MockAuthProvider with AuthCodeURL, Exchange, and Verify.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_provider_mock.go github.com/slicehq/slice/internal/ports AuthProvider
