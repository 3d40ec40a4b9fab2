package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	"github.com/SscSPs/partner_settlement_app/internal/middleware"
)

const maxFeedResponseBytes = 10 << 20

// FeedURLs holds one endpoint per reconciliation kind. Each endpoint answers
// GET requests with a JSON ExternalTotals document.
type FeedURLs struct {
	SupplierCost   string
	PaymentChannel string
	Withdrawal     string
	Invoice        string
}

func (f FeedURLs) forKind(kind domain.ReconciliationKind) string {
	switch kind {
	case domain.KindSupplierCost:
		return f.SupplierCost
	case domain.KindPaymentChannel:
		return f.PaymentChannel
	case domain.KindWithdrawal:
		return f.Withdrawal
	case domain.KindInvoice:
		return f.Invoice
	}
	return ""
}

// Configured reports whether any endpoint is set.
func (f FeedURLs) Configured() bool {
	return f.SupplierCost != "" || f.PaymentChannel != "" || f.Withdrawal != "" || f.Invoice != ""
}

// HTTPFeedSource fetches external totals from HTTP feeds.
type HTTPFeedSource struct {
	client *http.Client
	urls   FeedURLs
}

// NewHTTPFeedSource creates a feed client. timeout bounds each request on top
// of the caller's context deadline.
func NewHTTPFeedSource(urls FeedURLs, timeout time.Duration) *HTTPFeedSource {
	return &HTTPFeedSource{
		client: &http.Client{Timeout: timeout},
		urls:   urls,
	}
}

var _ gateways.ExternalSource = (*HTTPFeedSource)(nil)

func feedParams(query gateways.ExternalQuery) url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("orderID", query.OrderID)
	set("supplierName", query.SupplierName)
	set("channel", query.Channel)
	set("partnerID", query.PartnerID)
	if !query.Period.Start.IsZero() {
		params.Set("from", query.Period.Start.Format(time.RFC3339))
		params.Set("to", query.Period.End.Format(time.RFC3339))
	}
	return params
}

func unavailable(kind domain.ReconciliationKind, format string, args ...any) error {
	return fmt.Errorf("%w: %s feed: %s", apperrors.ErrSourceUnavailable, kind, fmt.Sprintf(format, args...))
}

func (s *HTTPFeedSource) FetchExternalTotals(ctx context.Context, query gateways.ExternalQuery) (gateways.ExternalTotals, error) {
	var totals gateways.ExternalTotals
	endpoint := s.urls.forKind(query.Kind)
	if endpoint == "" {
		return totals, unavailable(query.Kind, "no endpoint configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return totals, unavailable(query.Kind, "invalid endpoint: %v", err)
	}
	u.RawQuery = feedParams(query).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return totals, unavailable(query.Kind, "%v", err)
	}
	req.Header.Set("Accept", "application/json")

	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return totals, unavailable(query.Kind, "%v", err)
	}
	defer resp.Body.Close()
	logger.Debug("External feed responded",
		slog.String("kind", string(query.Kind)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFeedResponseBytes))
		return totals, unavailable(query.Kind, "unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedResponseBytes)).Decode(&totals); err != nil {
		return gateways.ExternalTotals{}, unavailable(query.Kind, "malformed response: %v", err)
	}
	return totals, nil
}
