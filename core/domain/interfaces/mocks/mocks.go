// Package mocks provides testify mocks for the interfaces package.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
)

// MockHook is a mock implementation of interfaces.Hook
type MockHook struct {
	mock.Mock
}

// NewMockHook creates a MockHook whose expectations are asserted on cleanup
func NewMockHook(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHook {
	m := &MockHook{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Run provides a mock function
func (m *MockHook) Run(ctx context.Context, sql domain.SQL, autocommit bool, params domain.Parameters) error {
	args := m.Called(ctx, sql, autocommit, params)
	return args.Error(0)
}

// MockHookFactory is a mock implementation of interfaces.HookFactory
type MockHookFactory struct {
	mock.Mock
}

// NewMockHookFactory creates a MockHookFactory whose expectations are asserted on cleanup
func NewMockHookFactory(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHookFactory {
	m := &MockHookFactory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// NewHook provides a mock function
func (m *MockHookFactory) NewHook(ctx context.Context, connID string) (interfaces.Hook, error) {
	args := m.Called(ctx, connID)
	hook, _ := args.Get(0).(interfaces.Hook)
	return hook, args.Error(1)
}

// MockConnectionResolver is a mock implementation of interfaces.ConnectionResolver
type MockConnectionResolver struct {
	mock.Mock
}

// NewMockConnectionResolver creates a MockConnectionResolver whose expectations are asserted on cleanup
func NewMockConnectionResolver(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConnectionResolver {
	m := &MockConnectionResolver{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Resolve provides a mock function
func (m *MockConnectionResolver) Resolve(connID string) (*domain.Connection, error) {
	args := m.Called(connID)
	conn, _ := args.Get(0).(*domain.Connection)
	return conn, args.Error(1)
}

// List provides a mock function
func (m *MockConnectionResolver) List() []*domain.Connection {
	args := m.Called()
	conns, _ := args.Get(0).([]*domain.Connection)
	return conns
}

// LogRecord is a single message captured by RecordingLogger
type LogRecord struct {
	Level   string
	Message string
}

// RecordingLogger is an interfaces.Logger that keeps every message in memory
type RecordingLogger struct {
	mu      sync.Mutex
	records []LogRecord
	trace   *Trace
}

// NewRecordingLogger creates a logger that also appends "log:<level>" to trace when set
func NewRecordingLogger(trace *Trace) *RecordingLogger {
	return &RecordingLogger{trace: trace}
}

// Records returns a copy of the captured messages
func (l *RecordingLogger) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogRecord(nil), l.records...)
}

// Messages returns captured messages at level
func (l *RecordingLogger) Messages(level string) []string {
	var out []string
	for _, r := range l.Records() {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

func (l *RecordingLogger) record(level, message string) {
	l.mu.Lock()
	l.records = append(l.records, LogRecord{Level: level, Message: message})
	l.mu.Unlock()
	if l.trace != nil {
		l.trace.Add("log:" + level)
	}
}

func (l *RecordingLogger) Error(message string) { l.record("error", message) }
func (l *RecordingLogger) Errorf(format string, args ...any) {
	l.record("error", fmt.Sprintf(format, args...))
}
func (l *RecordingLogger) Warn(message string) { l.record("warn", message) }
func (l *RecordingLogger) Warnf(format string, args ...any) {
	l.record("warn", fmt.Sprintf(format, args...))
}
func (l *RecordingLogger) Info(message string) { l.record("info", message) }
func (l *RecordingLogger) Infof(format string, args ...any) {
	l.record("info", fmt.Sprintf(format, args...))
}
func (l *RecordingLogger) Success(message string) { l.record("success", message) }
func (l *RecordingLogger) Successf(format string, args ...any) {
	l.record("success", fmt.Sprintf(format, args...))
}
func (l *RecordingLogger) Debug(message string) { l.record("debug", message) }
func (l *RecordingLogger) Debugf(format string, args ...any) {
	l.record("debug", fmt.Sprintf(format, args...))
}

// PrintError records an error with a title
func (l *RecordingLogger) PrintError(title string, err error) {
	if err != nil {
		l.record("error", fmt.Sprintf("%s: %v", title, err))
	}
}

// PrintValidationErrors records each validation error
func (l *RecordingLogger) PrintValidationErrors(errors []string) {
	for _, e := range errors {
		l.record("error", e)
	}
}

// Trace records the order in which collaborators were called
type Trace struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event
func (t *Trace) Add(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

// Events returns the recorded events in order
func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

var (
	_ interfaces.Hook               = (*MockHook)(nil)
	_ interfaces.HookFactory        = (*MockHookFactory)(nil)
	_ interfaces.ConnectionResolver = (*MockConnectionResolver)(nil)
	_ interfaces.Logger             = (*RecordingLogger)(nil)
)
