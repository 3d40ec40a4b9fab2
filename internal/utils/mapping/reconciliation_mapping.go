package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/models"
)

// ToModelReconciliation converts a reconciliation variant to a model row,
// encoding the full record as the payload.
func ToModelReconciliation(r domain.Reconciliation) (models.Reconciliation, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return models.Reconciliation{}, fmt.Errorf("failed to encode %s reconciliation: %w", r.Kind(), err)
	}
	h := r.Header()
	return models.Reconciliation{
		ID:        h.ID,
		UnitKey:   h.UnitKey,
		Kind:      string(r.Kind()),
		Status:    string(h.Status),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
		Payload:   payload,
		Version:   h.Version,
	}, nil
}

func decodeVariant[T domain.Reconciliation](payload []byte) (domain.Reconciliation, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ToDomainReconciliation decodes a model row into its variant.
func ToDomainReconciliation(m models.Reconciliation) (domain.Reconciliation, error) {
	var (
		r   domain.Reconciliation
		err error
	)
	switch domain.ReconciliationKind(m.Kind) {
	case domain.KindSupplierCost:
		r, err = decodeVariant[domain.SupplierCostReconciliation](m.Payload)
	case domain.KindPaymentChannel:
		r, err = decodeVariant[domain.PaymentChannelReconciliation](m.Payload)
	case domain.KindWithdrawal:
		r, err = decodeVariant[domain.WithdrawalReconciliation](m.Payload)
	case domain.KindInvoice:
		r, err = decodeVariant[domain.InvoiceReconciliation](m.Payload)
	default:
		return nil, fmt.Errorf("unknown reconciliation kind %q", m.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s reconciliation %s: %w", m.Kind, m.ID, err)
	}
	if r.Header().Version != m.Version {
		return nil, fmt.Errorf("reconciliation %s payload is at version %d, row at %d", m.ID, r.Header().Version, m.Version)
	}
	return r, nil
}
