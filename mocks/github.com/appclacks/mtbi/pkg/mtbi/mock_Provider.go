package mocks

import (
	"context"

	"github.com/appclacks/mtbi/pkg/mtbi"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock type for the Provider type
type MockProvider struct {
	mock.Mock
}

// Query provides a mock function with given fields: ctx, query
func (_m *MockProvider) Query(ctx context.Context, query mtbi.Query) (*mtbi.Table, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	var r0 *mtbi.Table
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, mtbi.Query) (*mtbi.Table, error)); ok {
		return rf(ctx, query)
	}
	if rf, ok := ret.Get(0).(func(context.Context, mtbi.Query) *mtbi.Table); ok {
		r0 = rf(ctx, query)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mtbi.Table)
	}

	if rf, ok := ret.Get(1).(func(context.Context, mtbi.Query) error); ok {
		r1 = rf(ctx, query)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
