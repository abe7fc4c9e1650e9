// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nodemock is a go.uber.org/mock generated-style mock of
// node.Outbox, hand-maintained in the shape mockgen would produce so
// unit tests in this module don't depend on running the generator.
package nodemock

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/luxfi/elders/xorname"
)

// MockOutbox is a mock of the node.Outbox interface.
type MockOutbox struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxMockRecorder
}

// MockOutboxMockRecorder is the mock recorder for MockOutbox.
type MockOutboxMockRecorder struct {
	mock *MockOutbox
}

// NewMockOutbox creates a new mock instance.
func NewMockOutbox(ctrl *gomock.Controller) *MockOutbox {
	mock := &MockOutbox{ctrl: ctrl}
	mock.recorder = &MockOutboxMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOutbox) EXPECT() *MockOutboxMockRecorder {
	return m.recorder
}

// SendToNode mocks base method.
func (m *MockOutbox) SendToNode(dst xorname.Name, payload []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SendToNode", dst, payload)
}

// SendToNode indicates an expected call of SendToNode.
func (mr *MockOutboxMockRecorder) SendToNode(dst, payload interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendToNode", reflect.TypeOf((*MockOutbox)(nil).SendToNode), dst, payload)
}

// SendToSection mocks base method.
func (m *MockOutbox) SendToSection(dst xorname.Prefix, payload []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SendToSection", dst, payload)
}

// SendToSection indicates an expected call of SendToSection.
func (mr *MockOutboxMockRecorder) SendToSection(dst, payload interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendToSection", reflect.TypeOf((*MockOutbox)(nil).SendToSection), dst, payload)
}

// Notify mocks base method.
func (m *MockOutbox) Notify(kind string, detail interface{}) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Notify", kind, detail)
}

// Notify indicates an expected call of Notify.
func (mr *MockOutboxMockRecorder) Notify(kind, detail interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Notify", reflect.TypeOf((*MockOutbox)(nil).Notify), kind, detail)
}

// ScheduleTimer mocks base method.
func (m *MockOutbox) ScheduleTimer(token string, d time.Duration) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ScheduleTimer", token, d)
}

// ScheduleTimer indicates an expected call of ScheduleTimer.
func (mr *MockOutboxMockRecorder) ScheduleTimer(token, d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ScheduleTimer", reflect.TypeOf((*MockOutbox)(nil).ScheduleTimer), token, d)
}
