package testutil

import (
	"github.com/gruyaume/goops/commands"
	"github.com/stretchr/testify/mock"
)

// MockCommands provides a testify mock for hooktool.Commands.
type MockCommands struct {
	mock.Mock
}

func (m *MockCommands) IsLeader() (bool, error) {
	args := m.Called()

	return args.Bool(0), args.Error(1)
}

func (m *MockCommands) StatusSet(opts *commands.StatusSetOptions) error {
	return m.Called(opts).Error(0)
}

func (m *MockCommands) StateGet(opts *commands.StateGetOptions) (string, error) {
	args := m.Called(opts)

	return args.String(0), args.Error(1)
}

func (m *MockCommands) StateSet(opts *commands.StateSetOptions) error {
	return m.Called(opts).Error(0)
}

func (m *MockCommands) RelationIDs(opts *commands.RelationIDsOptions) ([]string, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommands) RelationList(opts *commands.RelationListOptions) ([]string, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommands) RelationGet(opts *commands.RelationGetOptions) (map[string]string, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockCommands) RelationSet(opts *commands.RelationSetOptions) error {
	return m.Called(opts).Error(0)
}
