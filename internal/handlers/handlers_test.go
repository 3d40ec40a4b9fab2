package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/handlers"
	"github.com/SscSPs/partner_settlement_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) record(args mock.Arguments) (domain.Reconciliation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationService) RunSupplierCost(ctx context.Context, orderID string) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, orderID))
}
func (m *MockReconciliationService) RunPaymentChannel(ctx context.Context, channel string, day domain.Period) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, channel, day))
}
func (m *MockReconciliationService) RunWithdrawal(ctx context.Context, partnerID string, month domain.Period) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, partnerID, month))
}
func (m *MockReconciliationService) RunInvoice(ctx context.Context, month domain.Period) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, month))
}
func (m *MockReconciliationService) Run(ctx context.Context, req dto.RunReconciliationRequest) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, req))
}
func (m *MockReconciliationService) GetReconciliation(ctx context.Context, id string) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, id))
}
func (m *MockReconciliationService) ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListReconciliationsResponse), args.Error(1)
}
func (m *MockReconciliationService) ExportReconciliations(ctx context.Context, params dto.ListReconciliationsParams, w io.Writer) (string, string, error) {
	args := m.Called(ctx, params, w)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockReconciliationService) ResolveDifference(ctx context.Context, id, resolutionText, operator string) (domain.Reconciliation, error) {
	return m.record(m.Called(ctx, id, resolutionText, operator))
}

// Ensure mock implements the interface
var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

// --- Mock WithdrawalService ---
type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) withdrawal(args mock.Arguments) (*domain.Withdrawal, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID))
}
func (m *MockWithdrawalService) ListWithdrawals(ctx context.Context, params dto.ListWithdrawalsParams) ([]domain.Withdrawal, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Withdrawal), args.Error(1)
}
func (m *MockWithdrawalService) SubmitWithdrawal(ctx context.Context, req dto.SubmitWithdrawalRequest, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, req, operator))
}
func (m *MockWithdrawalService) StartReview(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, operator))
}
func (m *MockWithdrawalService) ReviewWithdrawal(ctx context.Context, withdrawalID string, req dto.ReviewWithdrawalRequest, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, req, operator))
}
func (m *MockWithdrawalService) CloseWithdrawal(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, reason, operator))
}
func (m *MockWithdrawalService) InitiatePayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, operator))
}
func (m *MockWithdrawalService) MarkPaymentSucceeded(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, operator))
}
func (m *MockWithdrawalService) MarkPaymentFailed(ctx context.Context, withdrawalID, reason, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, reason, operator))
}
func (m *MockWithdrawalService) RetryWithdrawalPayment(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, withdrawalID, operator))
}
func (m *MockWithdrawalService) BatchReview(ctx context.Context, req dto.BatchReviewRequest, operator string) (dto.BatchResult, error) {
	args := m.Called(ctx, req, operator)
	return args.Get(0).(dto.BatchResult), args.Error(1)
}
func (m *MockWithdrawalService) BatchRetry(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error) {
	args := m.Called(ctx, withdrawalIDs, operator)
	return args.Get(0).(dto.BatchResult), args.Error(1)
}
func (m *MockWithdrawalService) BatchInitiatePayment(ctx context.Context, withdrawalIDs []string, operator string) (dto.BatchResult, error) {
	args := m.Called(ctx, withdrawalIDs, operator)
	return args.Get(0).(dto.BatchResult), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.WithdrawalSvcFacade = (*MockWithdrawalService)(nil)

// --- Test Suite ---
const testOperator = "finance-7"

type HandlerTestSuite struct {
	suite.Suite
	router                *gin.Engine
	mockReconciliationSvc *MockReconciliationService
	mockWithdrawalSvc     *MockWithdrawalService
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (suite *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(middleware.SetupValidator(10))
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.router = gin.New()
	suite.mockReconciliationSvc = new(MockReconciliationService)
	suite.mockWithdrawalSvc = new(MockWithdrawalService)

	v1 := suite.router.Group("/api/v1", middleware.RequireOperator())
	handlers.RegisterReconciliationRoutes(v1, suite.mockReconciliationSvc)
	handlers.RegisterWithdrawalRoutes(v1, suite.mockWithdrawalSvc)
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.mockReconciliationSvc.AssertExpectations(suite.T())
	suite.mockWithdrawalSvc.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.OperatorHeader, testOperator)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) errorBody(w *httptest.ResponseRecorder) dto.ErrorResponse {
	var resp dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *HandlerTestSuite) TestMissingOperatorHeader() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/withdrawals/w-1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockWithdrawalSvc.AssertNotCalled(suite.T(), "GetWithdrawal")
}

func (suite *HandlerTestSuite) TestResolveDifference_Success() {
	now := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)
	rec := domain.NewSupplierCostReconciliation("rec-1", "ORD-1", "Grand Hotel Supply", now)
	resolved, err := domain.Resolve(mustRecompute(rec, now), "bill includes late checkout", testOperator, now)
	suite.Require().NoError(err)

	suite.mockReconciliationSvc.On("ResolveDifference", mock.Anything, "rec-1", "bill includes late checkout", testOperator).
		Return(resolved, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/resolve", dto.ResolveDifferenceRequest{ResolutionText: "bill includes late checkout"})

	suite.Equal(http.StatusOK, w.Code)
	var body struct {
		Kind   string `json:"kind"`
		Record struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"record"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(string(domain.KindSupplierCost), body.Kind)
	suite.Equal(string(domain.StatusResolved), body.Record.Status)
}

func mustRecompute(rec domain.SupplierCostReconciliation, now time.Time) domain.SupplierCostReconciliation {
	out, err := rec.Recompute(120000, 120500, now)
	if err != nil {
		panic(err)
	}
	return out
}

func (suite *HandlerTestSuite) TestErrorStatusMapping() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"already resolved", fmt.Errorf("%w: rec-1", apperrors.ErrAlreadyResolved), http.StatusConflict, "already_resolved"},
		{"not a difference", fmt.Errorf("%w: rec-1 is balanced", apperrors.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"blank text", apperrors.NewValidationError("resolutionText", apperrors.CodeRequired, "resolution text is required"), http.StatusBadRequest, "required"},
		{"store down", apperrors.NewAppError(http.StatusInternalServerError, "database error", fmt.Errorf("conn refused")), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockReconciliationSvc.On("ResolveDifference", mock.Anything, "rec-1", "text", testOperator).
				Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/resolve", dto.ResolveDifferenceRequest{ResolutionText: "text"})

			suite.Equal(tt.status, w.Code)
			suite.Equal(tt.code, suite.errorBody(w).Code)
		})
	}
}

func (suite *HandlerTestSuite) TestInternalErrorsHideDetail() {
	suite.mockReconciliationSvc.On("GetReconciliation", mock.Anything, "rec-1").
		Return(nil, fmt.Errorf("pq: password authentication failed")).Once()

	w := suite.do(http.MethodGet, "/api/v1/reconciliations/rec-1", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "password")
}

func (suite *HandlerTestSuite) TestRunReconciliation_SourceUnavailable() {
	req := dto.RunReconciliationRequest{Kind: string(domain.KindSupplierCost), OrderID: "ORD-1"}
	suite.mockReconciliationSvc.On("Run", mock.Anything, mock.MatchedBy(func(r dto.RunReconciliationRequest) bool {
		return r.Kind == req.Kind && r.OrderID == req.OrderID
	})).
		Return(nil, fmt.Errorf("%w: supplier feed timed out", apperrors.ErrSourceUnavailable)).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/runs", req)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal("source_unavailable", suite.errorBody(w).Code)
}

func (suite *HandlerTestSuite) TestRunReconciliation_MissingOrderForSupplierCost() {
	w := suite.do(http.MethodPost, "/api/v1/reconciliations/runs", dto.RunReconciliationRequest{Kind: string(domain.KindSupplierCost)})

	suite.Equal(http.StatusBadRequest, w.Code)
	body := suite.errorBody(w)
	suite.Equal("orderID", body.Field)
	suite.Equal(apperrors.CodeRequired, body.Code)
}

func (suite *HandlerTestSuite) TestListReconciliations_PassesFilter() {
	next := "token-2"
	suite.mockReconciliationSvc.On("ListReconciliations", mock.Anything, mock.MatchedBy(func(p dto.ListReconciliationsParams) bool {
		return p.Kind == "payment_channel" && p.Status == "platform_more" && p.Limit == 2 && p.NextToken == "token-1"
	})).Return(&dto.ListReconciliationsResponse{Items: []dto.ReconciliationResponse{}, NextToken: &next}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reconciliations?kind=payment_channel&status=platform_more&limit=2&nextToken=token-1", nil)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ListReconciliationsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().NotNil(body.NextToken)
	suite.Equal("token-2", *body.NextToken)
}

func (suite *HandlerTestSuite) TestExportReconciliations() {
	suite.mockReconciliationSvc.On("ExportReconciliations", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = args.Get(2).(io.Writer).Write([]byte("sheet"))
		}).
		Return("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reconciliations/export?kind=invoice", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("sheet", w.Body.String())
	suite.Contains(w.Header().Get("Content-Disposition"), ".xlsx")
}

func (suite *HandlerTestSuite) TestCloseWithdrawal_ReasonTooShort() {
	w := suite.do(http.MethodPost, "/api/v1/withdrawals/w-1/close", dto.CloseWithdrawalRequest{Reason: "too short"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apperrors.CodeReasonTooShort, suite.errorBody(w).Code)
	suite.mockWithdrawalSvc.AssertNotCalled(suite.T(), "CloseWithdrawal")
}

func (suite *HandlerTestSuite) TestCloseWithdrawal_TenCharacterReason() {
	now := time.Now().UTC()
	closed := &domain.Withdrawal{WithdrawalID: "w-1", PartnerID: "P1", Status: domain.WithdrawalClosed, AuditFields: domain.AuditFields{CreatedAt: now}}
	suite.mockWithdrawalSvc.On("CloseWithdrawal", mock.Anything, "w-1", "not enough", testOperator).Return(closed, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/withdrawals/w-1/close", dto.CloseWithdrawalRequest{Reason: "not enough"})

	suite.Equal(http.StatusOK, w.Code)
	var body dto.WithdrawalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(string(domain.WithdrawalClosed), body.Status)
}

func (suite *HandlerTestSuite) TestSubmitWithdrawal_InsufficientBalance() {
	req := dto.SubmitWithdrawalRequest{PartnerID: "P1", Amount: 50000, AccountType: "personal"}
	suite.mockWithdrawalSvc.On("SubmitWithdrawal", mock.Anything, req, testOperator).
		Return(nil, fmt.Errorf("%w: requested 50000, available 12240", apperrors.ErrInsufficientBalance)).Once()

	w := suite.do(http.MethodPost, "/api/v1/withdrawals", req)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("insufficient_balance", suite.errorBody(w).Code)
}

func (suite *HandlerTestSuite) TestSimpleActions() {
	tests := []struct {
		path   string
		method string
		status domain.WithdrawalStatus
	}{
		{"start-review", "StartReview", domain.WithdrawalReviewing},
		{"pay", "InitiatePayment", domain.WithdrawalProcessing},
		{"succeed", "MarkPaymentSucceeded", domain.WithdrawalSuccess},
		{"retry", "RetryWithdrawalPayment", domain.WithdrawalProcessing},
	}

	for _, tt := range tests {
		suite.Run(tt.path, func() {
			w := &domain.Withdrawal{WithdrawalID: "w-1", Status: tt.status}
			suite.mockWithdrawalSvc.On(tt.method, mock.Anything, "w-1", testOperator).Return(w, nil).Once()

			resp := suite.do(http.MethodPost, "/api/v1/withdrawals/w-1/"+tt.path, nil)

			suite.Equal(http.StatusOK, resp.Code)
		})
	}
}

func (suite *HandlerTestSuite) TestBatchRetry() {
	ids := []string{"w-1", "w-2"}
	result := dto.BatchResult{
		Results: []dto.BatchItemResult{
			{WithdrawalID: "w-1", Success: true, Status: "processing"},
			{WithdrawalID: "w-2", Success: false, Error: "invalid state transition", Code: "invalid_state"},
		},
		Succeeded: 1,
		Failed:    1,
	}
	suite.mockWithdrawalSvc.On("BatchRetry", mock.Anything, ids, testOperator).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/withdrawals/batch/retry", dto.BatchIDsRequest{WithdrawalIDs: ids})

	suite.Equal(http.StatusOK, w.Code)
	var body dto.BatchResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(result, body)
}

func (suite *HandlerTestSuite) TestBatchRetry_EmptyList() {
	w := suite.do(http.MethodPost, "/api/v1/withdrawals/batch/retry", dto.BatchIDsRequest{})

	suite.Equal(http.StatusBadRequest, w.Code)
}
