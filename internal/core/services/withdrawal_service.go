package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 8

// withdrawalService implements the WithdrawalSvcFacade interface
type withdrawalService struct {
	BaseService
	tx               portsrepo.TransactionManager
	withdrawals      portsrepo.WithdrawalReader
	minReasonLength  int
	batchConcurrency int
}

// NewWithdrawalService creates a new withdrawal service. batchConcurrency
// bounds how many items of a batch action are processed at once.
func NewWithdrawalService(tx portsrepo.TransactionManager, withdrawals portsrepo.WithdrawalReader, minReasonLength, batchConcurrency int, options ...ServiceOption) portssvc.WithdrawalSvcFacade {
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &withdrawalService{
		BaseService:      newBaseService(options...),
		tx:               tx,
		withdrawals:      withdrawals,
		minReasonLength:  minReasonLength,
		batchConcurrency: batchConcurrency,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*withdrawalService)(nil)

func (s *withdrawalService) GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	return s.withdrawals.FindWithdrawalByID(ctx, withdrawalID)
}

func (s *withdrawalService) ListWithdrawals(ctx context.Context, params dto.ListWithdrawalsParams) ([]domain.Withdrawal, error) {
	filter := portsrepo.WithdrawalFilter{
		PartnerID: params.PartnerID,
		Limit:     params.Limit,
		Offset:    params.Offset,
	}
	if params.Status != "" {
		status := domain.WithdrawalStatus(params.Status)
		if !status.IsValid() {
			return nil, apperrors.NewValidationError("status", apperrors.CodeInvalidValue, fmt.Sprintf("unknown withdrawal status %q", params.Status))
		}
		filter.Statuses = []domain.WithdrawalStatus{status}
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	withdrawals, err := s.withdrawals.ListWithdrawals(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list withdrawals")
		return nil, err
	}
	if withdrawals == nil {
		return []domain.Withdrawal{}, nil
	}
	return withdrawals, nil
}

func (s *withdrawalService) SubmitWithdrawal(ctx context.Context, req dto.SubmitWithdrawalRequest, operator string) (*domain.Withdrawal, error) {
	var invoice *domain.WithdrawalInvoice
	if req.Invoice != nil {
		invoice = &domain.WithdrawalInvoice{
			InvoiceNumber: req.Invoice.InvoiceNumber,
			Amount:        domain.Money(req.Invoice.Amount),
			IssuedAt:      req.Invoice.IssuedAt.UTC(),
		}
	}

	var created domain.Withdrawal
	// Submissions for one partner are serialized so two requests cannot both
	// reserve the same balance.
	err := s.WithLock(ctx, partnerWithdrawalLock(req.PartnerID), func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			payable, inFlight, err := partnerBalance(ctx, store.Ledger, store.Withdrawals, req.PartnerID)
			if err != nil {
				return err
			}
			w, err := domain.NewWithdrawal(req.PartnerID, domain.Money(req.Amount), payable-inFlight,
				domain.PartnerAccountType(req.AccountType), invoice, operator, s.Now())
			if err != nil {
				return err
			}
			if err := store.Withdrawals.SaveWithdrawal(ctx, w); err != nil {
				return err
			}
			created = w
			return nil
		})
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to submit withdrawal",
			slog.String("partner_id", req.PartnerID),
			slog.Int64("amount", req.Amount))
		return nil, err
	}

	s.LogInfo(ctx, "Withdrawal submitted",
		slog.String("withdrawal_id", created.WithdrawalID),
		slog.String("partner_id", created.PartnerID),
		slog.Int64("amount", int64(created.Amount)))
	return &created, nil
}

// transitionFunc moves a withdrawal to its next state and returns the ledger
// entries the move posts, if any.
type transitionFunc func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, []domain.LedgerTransaction, error)

func noEntries(fn func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error)) transitionFunc {
	return func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, []domain.LedgerTransaction, error) {
		next, err := fn(w, now)
		return next, nil, err
	}
}

func partnerWithdrawalLock(partnerID string) string {
	return "partner-withdrawal:" + partnerID
}

// transition loads, moves and stores one withdrawal together with its ledger
// entries in a single unit of work. Lock order is partner, then withdrawal;
// the partner lock is the one SubmitWithdrawal reads the balance under.
func (s *withdrawalService) transition(ctx context.Context, withdrawalID, action string, fn transitionFunc) (*domain.Withdrawal, error) {
	var result domain.Withdrawal
	err := s.withPartnerLock(ctx, withdrawalID, func() error {
		return s.WithLock(ctx, "withdrawal:"+withdrawalID, func() error {
			return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
				current, err := store.Withdrawals.FindWithdrawalByID(ctx, withdrawalID)
				if err != nil {
					return err
				}
				next, entries, err := fn(*current, s.Now())
				if err != nil {
					return err
				}
				if err := store.Withdrawals.UpdateWithdrawal(ctx, next); err != nil {
					return err
				}
				if len(entries) > 0 {
					if err := store.Ledger.AppendTransactions(ctx, entries); err != nil {
						return err
					}
				}
				next.Version++
				result = next
				return nil
			})
		})
	})
	if err != nil {
		s.LogFailure(ctx, err, "Withdrawal transition failed",
			slog.String("withdrawal_id", withdrawalID),
			slog.String("action", action))
		return nil, err
	}
	s.LogInfo(ctx, "Withdrawal transitioned",
		slog.String("withdrawal_id", withdrawalID),
		slog.String("action", action),
		slog.String("status", string(result.Status)))
	return &result, nil
}

// withPartnerLock runs fn under the lock of the partner owning withdrawalID.
// The partner of a withdrawal never changes, so it is read before locking.
func (s *withdrawalService) withPartnerLock(ctx context.Context, withdrawalID string, fn func() error) error {
	w, err := s.withdrawals.FindWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		return err
	}
	return s.WithLock(ctx, partnerWithdrawalLock(w.PartnerID), fn)
}

func (s *withdrawalService) StartReview(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return s.transition(ctx, withdrawalID, "start_review", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
		return w.StartReview(operator, now)
	}))
}

func (s *withdrawalService) ReviewWithdrawal(ctx context.Context, withdrawalID string, req dto.ReviewWithdrawalRequest, operator string) (*domain.Withdrawal, error) {
	switch req.Decision {
	case dto.DecisionApprove:
		return s.transition(ctx, withdrawalID, "approve", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
			return w.Approve(req.Comment, operator, now)
		}))
	case dto.DecisionReject:
		reason := req.Reason
		if reason == "" {
			reason = req.Comment
		}
		// Reason length is checked before the record is loaded.
		if err := domain.ValidateReason("reason", reason, s.minReasonLength); err != nil {
			return nil, err
		}
		return s.transition(ctx, withdrawalID, "reject", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
			return w.Reject(reason, s.minReasonLength, operator, now)
		}))
	}
	return nil, apperrors.NewValidationError("decision", apperrors.CodeInvalidValue, fmt.Sprintf("unknown decision %q", req.Decision))
}

func (s *withdrawalService) CloseWithdrawal(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error) {
	if err := domain.ValidateReason("reason", reason, s.minReasonLength); err != nil {
		return nil, err
	}
	return s.transition(ctx, withdrawalID, "close", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
		return w.Close(reason, s.minReasonLength, operator, now)
	}))
}

func (s *withdrawalService) InitiatePayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return s.transition(ctx, withdrawalID, "initiate_payment", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
		return w.InitiatePayment(operator, now)
	}))
}

func (s *withdrawalService) MarkPaymentSucceeded(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return s.transition(ctx, withdrawalID, "mark_succeeded", func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, []domain.LedgerTransaction, error) {
		return w.MarkSucceeded(operator, now)
	})
}

func (s *withdrawalService) MarkPaymentFailed(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error) {
	return s.transition(ctx, withdrawalID, "mark_failed", func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, []domain.LedgerTransaction, error) {
		return w.MarkFailed(reason, operator, now)
	})
}

func (s *withdrawalService) RetryWithdrawalPayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return s.transition(ctx, withdrawalID, "retry", noEntries(func(w domain.Withdrawal, now time.Time) (domain.Withdrawal, error) {
		return w.Retry(operator, now)
	}))
}

// batch runs action for every ID with bounded concurrency. A failing item
// never stops the others; results keep the request order.
func (s *withdrawalService) batch(ctx context.Context, ids []string, action func(ctx context.Context, id string) (*domain.Withdrawal, error)) dto.BatchResult {
	results := make([]dto.BatchItemResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item := dto.BatchItemResult{WithdrawalID: id}
			w, err := action(gctx, id)
			if err != nil {
				item.Error = err.Error()
				item.Code = apperrors.Code(err)
			} else {
				item.Success = true
				item.Status = string(w.Status)
			}
			results[i] = item
			return nil
		})
	}
	_ = g.Wait()

	out := dto.BatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}

func (s *withdrawalService) BatchReview(ctx context.Context, req dto.BatchReviewRequest, operator string) (dto.BatchResult, error) {
	if req.Decision != dto.DecisionApprove && req.Decision != dto.DecisionReject {
		return dto.BatchResult{}, apperrors.NewValidationError("decision", apperrors.CodeInvalidValue, fmt.Sprintf("unknown decision %q", req.Decision))
	}
	if req.Decision == dto.DecisionReject {
		reason := req.Reason
		if reason == "" {
			reason = req.Comment
		}
		if err := domain.ValidateReason("reason", reason, s.minReasonLength); err != nil {
			return dto.BatchResult{}, err
		}
	}
	result := s.batch(ctx, req.WithdrawalIDs, func(ctx context.Context, id string) (*domain.Withdrawal, error) {
		return s.ReviewWithdrawal(ctx, id, req.ReviewWithdrawalRequest, operator)
	})
	s.LogInfo(ctx, "Batch review finished",
		slog.String("decision", req.Decision),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))
	return result, nil
}

func (s *withdrawalService) BatchRetry(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error) {
	result := s.batch(ctx, withdrawalIDs, func(ctx context.Context, id string) (*domain.Withdrawal, error) {
		return s.RetryWithdrawalPayment(ctx, id, operator)
	})
	s.LogInfo(ctx, "Batch retry finished", slog.Int("succeeded", result.Succeeded), slog.Int("failed", result.Failed))
	return result, nil
}

func (s *withdrawalService) BatchInitiatePayment(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error) {
	result := s.batch(ctx, withdrawalIDs, func(ctx context.Context, id string) (*domain.Withdrawal, error) {
		return s.InitiatePayment(ctx, id, operator)
	})
	s.LogInfo(ctx, "Batch payment initiation finished", slog.Int("succeeded", result.Succeeded), slog.Int("failed", result.Failed))
	return result, nil
}
