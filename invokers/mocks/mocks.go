// Package mocks provides testify mocks for the transport collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/robbyt/go-evalwrap/invokers/resolver"
)

// Invoker is a mock implementation of bridge.Invoker.
type Invoker struct {
	mock.Mock
}

// Invoke is a mock implementation of the Invoke method.
func (m *Invoker) Invoke(ctx context.Context, uri, method string, args []byte) ([]byte, error) {
	ret := m.Called(ctx, uri, method, args)
	resp, _ := ret.Get(0).([]byte)
	return resp, ret.Error(1)
}

// Resolver is a mock implementation of resolver.Resolver.
type Resolver struct {
	mock.Mock
}

// Resolve is a mock implementation of the Resolve method.
func (m *Resolver) Resolve(ctx context.Context, uri resolver.URI) ([]byte, error) {
	ret := m.Called(ctx, uri)
	module, _ := ret.Get(0).([]byte)
	return module, ret.Error(1)
}
