package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"resultpay/internal/errors"
	"resultpay/internal/metrics"
	"resultpay/internal/model"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

// InitiateInput describes a new unlock charge.
type InitiateInput struct {
	ExamID string
	Phone  string
	Email  *string
	Amount decimal.Decimal // zero means the configured unlock fee
	UserID *uint
}

// InitiationService opens a charge with the provider and records it in the
// ledger as pending. This establishes the charge id / api_ref pairing every
// other pathway joins on.
type InitiationService interface {
	Initiate(ctx context.Context, in InitiateInput) (*model.PaymentRecord, error)
}

type initiationService struct {
	ledger     repository.PaymentRepository
	provider   provider.Client
	defaultFee decimal.Decimal
	currency   string
	logger     *zap.Logger
}

// NewInitiationService creates a new initiation service.
func NewInitiationService(
	ledger repository.PaymentRepository,
	providerClient provider.Client,
	defaultFee decimal.Decimal,
	currency string,
	logger *zap.Logger,
) InitiationService {
	return &initiationService{
		ledger:     ledger,
		provider:   providerClient,
		defaultFee: defaultFee,
		currency:   currency,
		logger:     logger,
	}
}

func (s *initiationService) Initiate(ctx context.Context, in InitiateInput) (*model.PaymentRecord, error) {
	amount := in.Amount
	if amount.IsZero() {
		amount = s.defaultFee
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.ErrInvalidAmount
	}

	email := ""
	if in.Email != nil {
		email = *in.Email
	}
	apiRef := provider.NewAPIRef(in.ExamID)

	charge, err := s.provider.InitiateCharge(ctx, provider.ChargeRequest{
		ExamID:     in.ExamID,
		Phone:      in.Phone,
		Email:      email,
		Amount:     amount,
		Currency:   s.currency,
		CallbackID: apiRef,
	})
	if err != nil {
		metrics.IncProviderRequest("initiate_charge", "error")
		return nil, err
	}
	metrics.IncProviderRequest("initiate_charge", "ok")

	record := &model.PaymentRecord{
		ProviderChargeID:   charge.ChargeID,
		APIRef:             charge.CorrelationRef,
		ExamID:             in.ExamID,
		UserID:             in.UserID,
		Amount:             amount,
		Currency:           s.currency,
		PayerPhone:         in.Phone,
		PayerEmail:         in.Email,
		PaymentMethod:      "mobile_money",
		Status:             model.StatusPending,
		ProviderRawPayload: charge.RawPayload,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		// the charge exists at the provider; the webhook ingress path will
		// recreate the ledger row from the api_ref when it arrives
		s.logger.Error("ledger create failed after charge initiation",
			zap.String("charge_id", charge.ChargeID),
			zap.String("api_ref", charge.CorrelationRef),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", errors.ErrLedgerUnavailable, err)
	}

	s.logger.Info("charge initiated",
		zap.String("charge_id", charge.ChargeID),
		zap.String("exam_id", in.ExamID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return record, nil
}
