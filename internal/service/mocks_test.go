package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resultpay/internal/cache"
	"resultpay/internal/model"
	"resultpay/internal/notify"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

// MockPaymentRepository is a mock implementation of repository.PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByChargeID(ctx context.Context, chargeID string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) FindByExamID(ctx context.Context, examID string) ([]model.PaymentRecord, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, chargeID string, status model.CanonicalStatus, update repository.StatusUpdate) (*model.PaymentRecord, error) {
	args := m.Called(ctx, chargeID, status, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

// MockProviderClient is a mock implementation of provider.Client.
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) InitiateCharge(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResponse), args.Error(1)
}

func (m *MockProviderClient) QueryStatus(ctx context.Context, chargeID string) (*provider.StatusResponse, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.StatusResponse), args.Error(1)
}

// MockResultRepository is a mock implementation of repository.ResultRepository.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) FindByExamID(ctx context.Context, examID string) (*model.ExamResult, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExamResult), args.Error(1)
}

func (m *MockResultRepository) AttachToUser(ctx context.Context, examID string, userID uint) error {
	args := m.Called(ctx, examID, userID)
	return args.Error(0)
}

func (m *MockResultRepository) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, address string, kind notify.TemplateKind, payload notify.Payload) error {
	args := m.Called(ctx, address, kind, payload)
	return args.Error(0)
}

// MockRenderer is a mock implementation of render.Renderer.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderDocument(result *model.ExamResult) ([]byte, error) {
	args := m.Called(result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockStatusCache is a mock implementation of cache.StatusCache.
type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) Put(ctx context.Context, entry cache.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStatusCache) Get(ctx context.Context, chargeID string) (*cache.Entry, bool) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*cache.Entry), args.Bool(1)
}

// MockCompletionService is a mock implementation of CompletionService.
type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) HandleCompleted(ctx context.Context, record *model.PaymentRecord) {
	m.Called(ctx, record)
}
