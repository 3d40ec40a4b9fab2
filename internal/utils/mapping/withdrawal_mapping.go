package mapping

import (
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/models"
)

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ToModelWithdrawal converts a domain Withdrawal to a model Withdrawal
func ToModelWithdrawal(d domain.Withdrawal) models.Withdrawal {
	m := models.Withdrawal{
		WithdrawalID:              d.WithdrawalID,
		PartnerID:                 d.PartnerID,
		Amount:                    int64(d.Amount),
		AvailableBalanceAtRequest: int64(d.AvailableBalanceAtRequest),
		AccountType:               string(d.AccountType),
		Status:                    string(d.Status),
		ReviewedAt:                d.ReviewedAt,
		TransferredAt:             d.TransferredAt,
		ReviewComment:             d.ReviewComment,
		RejectReason:              d.RejectReason,
		CloseReason:               d.CloseReason,
		FailureReason:             d.FailureReason,
		Deducted:                  d.Deducted,
		AuditFields:               ToModelAuditFields(d.AuditFields),
	}
	if d.Invoice != nil {
		m.Invoice = &models.WithdrawalInvoice{
			InvoiceNumber: d.Invoice.InvoiceNumber,
			Amount:        int64(d.Invoice.Amount),
			IssuedAt:      d.Invoice.IssuedAt,
		}
	}
	return m
}

// ToDomainWithdrawal converts a model Withdrawal to a domain Withdrawal
func ToDomainWithdrawal(m models.Withdrawal) domain.Withdrawal {
	d := domain.Withdrawal{
		WithdrawalID:              m.WithdrawalID,
		PartnerID:                 m.PartnerID,
		Amount:                    domain.Money(m.Amount),
		AvailableBalanceAtRequest: domain.Money(m.AvailableBalanceAtRequest),
		AccountType:               domain.PartnerAccountType(m.AccountType),
		Status:                    domain.WithdrawalStatus(m.Status),
		ReviewedAt:                utcPtr(m.ReviewedAt),
		TransferredAt:             utcPtr(m.TransferredAt),
		ReviewComment:             m.ReviewComment,
		RejectReason:              m.RejectReason,
		CloseReason:               m.CloseReason,
		FailureReason:             m.FailureReason,
		Deducted:                  m.Deducted,
		AuditFields:               ToDomainAuditFields(m.AuditFields),
	}
	if m.Invoice != nil {
		d.Invoice = &domain.WithdrawalInvoice{
			InvoiceNumber: m.Invoice.InvoiceNumber,
			Amount:        domain.Money(m.Invoice.Amount),
			IssuedAt:      m.Invoice.IssuedAt.UTC(),
		}
	}
	return d
}
