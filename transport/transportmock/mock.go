// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transportmock is a go.uber.org/mock generated-style mock of
// transport.Adapter, hand-maintained in the shape mockgen would
// produce so unit tests in this module don't depend on running the
// generator.
package transportmock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/luxfi/elders/transport"
)

// MockAdapter is a mock of the transport.Adapter interface.
type MockAdapter struct {
	ctrl     *gomock.Controller
	recorder *MockAdapterMockRecorder
}

// MockAdapterMockRecorder is the mock recorder for MockAdapter.
type MockAdapterMockRecorder struct {
	mock *MockAdapter
}

// NewMockAdapter creates a new mock instance.
func NewMockAdapter(ctrl *gomock.Controller) *MockAdapter {
	mock := &MockAdapter{ctrl: ctrl}
	mock.recorder = &MockAdapterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAdapter) EXPECT() *MockAdapterMockRecorder {
	return m.recorder
}

// Send mocks base method.
func (m *MockAdapter) Send(addr string, bytes []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Send", addr, bytes)
}

// Send indicates an expected call of Send.
func (mr *MockAdapterMockRecorder) Send(addr, bytes interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockAdapter)(nil).Send), addr, bytes)
}

// Disconnect mocks base method.
func (m *MockAdapter) Disconnect(addr string) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Disconnect", addr)
}

// Disconnect indicates an expected call of Disconnect.
func (mr *MockAdapterMockRecorder) Disconnect(addr interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Disconnect", reflect.TypeOf((*MockAdapter)(nil).Disconnect), addr)
}

// RegisterHandler mocks base method.
func (m *MockAdapter) RegisterHandler(handler transport.EventHandler) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "RegisterHandler", handler)
}

// RegisterHandler indicates an expected call of RegisterHandler.
func (mr *MockAdapterMockRecorder) RegisterHandler(handler interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RegisterHandler", reflect.TypeOf((*MockAdapter)(nil).RegisterHandler), handler)
}

// Start mocks base method.
func (m *MockAdapter) Start(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Start", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Start indicates an expected call of Start.
func (mr *MockAdapterMockRecorder) Start(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Start", reflect.TypeOf((*MockAdapter)(nil).Start), ctx)
}

// Stop mocks base method.
func (m *MockAdapter) Stop() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Stop")
	ret0, _ := ret[0].(error)
	return ret0
}

// Stop indicates an expected call of Stop.
func (mr *MockAdapterMockRecorder) Stop() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Stop", reflect.TypeOf((*MockAdapter)(nil).Stop))
}
