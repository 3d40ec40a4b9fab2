package sources_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/adapters/sources"
	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = domain.DayPeriod(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	src := sources.NewStaticSource()
	src.SetSupplierBill("ORD-1", 10500)
	src.SetChannelOrders("alipay", day, []domain.OrderAmount{{OrderID: "ORD-1", Amount: 12000}})

	totals, err := src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindSupplierCost, OrderID: "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(10500), totals.SupplierBillAmount)

	totals, err = src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindPaymentChannel, Channel: "alipay", Period: day})
	require.NoError(t, err)
	assert.Len(t, totals.ChannelOrders, 1)

	src.SetUnavailable(domain.KindSupplierCost, true)
	_, err = src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindSupplierCost, OrderID: "ORD-1"})
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestHTTPFeedSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/supplier":
			assert.Equal(t, "ORD-1", r.URL.Query().Get("orderID"))
			_ = json.NewEncoder(w).Encode(gateways.ExternalTotals{SupplierBillAmount: 10500})
		case "/channel":
			assert.Equal(t, "alipay", r.URL.Query().Get("channel"))
			assert.Equal(t, "2025-01-15T00:00:00Z", r.URL.Query().Get("from"))
			_ = json.NewEncoder(w).Encode(gateways.ExternalTotals{
				ChannelOrders: []domain.OrderAmount{{OrderID: "ORD-1", Amount: 12000}},
			})
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		}
	}))
	defer server.Close()

	src := sources.NewHTTPFeedSource(sources.FeedURLs{
		SupplierCost:   server.URL + "/supplier",
		PaymentChannel: server.URL + "/channel",
		Withdrawal:     server.URL + "/broken",
		Invoice:        server.URL + "/slow",
	}, 50*time.Millisecond)
	ctx := context.Background()

	totals, err := src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindSupplierCost, OrderID: "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(10500), totals.SupplierBillAmount)

	totals, err = src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindPaymentChannel, Channel: "alipay", Period: day})
	require.NoError(t, err)
	require.Len(t, totals.ChannelOrders, 1)
	assert.Equal(t, domain.Money(12000), totals.ChannelOrders[0].Amount)

	_, err = src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindWithdrawal, PartnerID: "P1", Period: day})
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)

	_, err = src.FetchExternalTotals(ctx, gateways.ExternalQuery{Kind: domain.KindInvoice, Period: day})
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestHTTPFeedSourceNotConfigured(t *testing.T) {
	src := sources.NewHTTPFeedSource(sources.FeedURLs{}, time.Second)
	_, err := src.FetchExternalTotals(context.Background(), gateways.ExternalQuery{Kind: domain.KindInvoice})
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}
