package services

import (
	"context"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
)

// WithdrawalReaderSvc defines read operations for withdrawals
type WithdrawalReaderSvc interface {
	GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, params dto.ListWithdrawalsParams) ([]domain.Withdrawal, error)
}

// WithdrawalLifecycleSvc drives single withdrawals through their states
type WithdrawalLifecycleSvc interface {
	SubmitWithdrawal(ctx context.Context, req dto.SubmitWithdrawalRequest, operator string) (*domain.Withdrawal, error)
	StartReview(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error)
	ReviewWithdrawal(ctx context.Context, withdrawalID string, req dto.ReviewWithdrawalRequest, operator string) (*domain.Withdrawal, error)
	CloseWithdrawal(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error)
	InitiatePayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error)
	MarkPaymentSucceeded(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error)
	MarkPaymentFailed(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error)
	RetryWithdrawalPayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error)
}

// WithdrawalBatchSvc applies one action to many withdrawals. Each item
// succeeds or fails on its own.
type WithdrawalBatchSvc interface {
	BatchReview(ctx context.Context, req dto.BatchReviewRequest, operator string) (dto.BatchResult, error)
	BatchRetry(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error)
	BatchInitiatePayment(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error)
}

// WithdrawalSvcFacade combines all withdrawal-related service interfaces
type WithdrawalSvcFacade interface {
	WithdrawalReaderSvc
	WithdrawalLifecycleSvc
	WithdrawalBatchSvc
}
