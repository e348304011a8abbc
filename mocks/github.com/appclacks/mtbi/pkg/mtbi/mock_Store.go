package mocks

import (
	"context"

	"github.com/appclacks/mtbi/pkg/mtbi/aggregates"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock type for the Store type
type MockStore struct {
	mock.Mock
}

// Load provides a mock function with given fields: ctx
func (_m *MockStore) Load(ctx context.Context) ([]aggregates.DailyRecord, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 []aggregates.DailyRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]aggregates.DailyRecord, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []aggregates.DailyRecord); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]aggregates.DailyRecord)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Save provides a mock function with given fields: ctx, series
func (_m *MockStore) Save(ctx context.Context, series aggregates.Series) error {
	ret := _m.Called(ctx, series)

	if len(ret) == 0 {
		panic("no return value specified for Save")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, aggregates.Series) error); ok {
		r0 = rf(ctx, series)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockStore creates a new instance of MockStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
