package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"planvest/internal/auth"
	"planvest/internal/config"
	"planvest/internal/middleware"
	"planvest/internal/services"
	"planvest/internal/store"
	"planvest/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.UserInput) error
	getByIDFn       func(ctx context.Context, userID string) (store.User, error)
	getByUsernameFn func(ctx context.Context, username string) (store.User, error)
	countFn         func(ctx context.Context, tx store.Getter) (int, error)
	acceptPolicyFn  func(ctx context.Context, userID string) error
	listAllFn       func(ctx context.Context) ([]store.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, input store.UserInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (store.User, error) {
	if s.getByUsernameFn == nil {
		return store.User{}, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) Count(ctx context.Context, tx store.Getter) (int, error) {
	if s.countFn == nil {
		return 1, nil
	}
	return s.countFn(ctx, tx)
}

func (s stubUserStore) AcceptPolicy(ctx context.Context, userID string) error {
	if s.acceptPolicyFn == nil {
		return nil
	}
	return s.acceptPolicyFn(ctx, userID)
}

func (s stubUserStore) ListAll(ctx context.Context) ([]store.User, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

type stubAdminChecker struct {
	isAdminFn func(ctx context.Context, userID string) (bool, error)
}

func (s stubAdminChecker) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return true, nil
	}
	return s.isAdminFn(ctx, userID)
}

type stubPlanStore struct {
	getByIDFn     func(ctx context.Context, planID string) (store.Plan, error)
	listActiveFn  func(ctx context.Context, limit, offset int) ([]store.Plan, error)
	countActiveFn func(ctx context.Context) (int, error)
	listAllFn     func(ctx context.Context) ([]store.Plan, error)
}

func (s stubPlanStore) GetByID(ctx context.Context, planID string) (store.Plan, error) {
	if s.getByIDFn == nil {
		return store.Plan{ID: planID}, nil
	}
	return s.getByIDFn(ctx, planID)
}

func (s stubPlanStore) ListActive(ctx context.Context, limit, offset int) ([]store.Plan, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx, limit, offset)
}

func (s stubPlanStore) CountActive(ctx context.Context) (int, error) {
	if s.countActiveFn == nil {
		return 0, nil
	}
	return s.countActiveFn(ctx)
}

func (s stubPlanStore) ListAll(ctx context.Context) ([]store.Plan, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

type stubPlanStatsStore struct {
	getFn func(ctx context.Context, planID string) (store.PlanStats, error)
}

func (s stubPlanStatsStore) Get(ctx context.Context, planID string) (store.PlanStats, error) {
	if s.getFn == nil {
		return store.PlanStats{PlanID: planID}, nil
	}
	return s.getFn(ctx, planID)
}

type stubInvestmentStore struct {
	getByIDFn      func(ctx context.Context, investmentID string) (store.Investment, error)
	listByUserFn   func(ctx context.Context, userID string) ([]store.Investment, error)
	listByStatusFn func(ctx context.Context, status string) ([]store.Investment, error)
}

func (s stubInvestmentStore) GetByID(ctx context.Context, investmentID string) (store.Investment, error) {
	if s.getByIDFn == nil {
		return store.Investment{ID: investmentID}, nil
	}
	return s.getByIDFn(ctx, investmentID)
}

func (s stubInvestmentStore) ListByUser(ctx context.Context, userID string) ([]store.Investment, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubInvestmentStore) ListByStatus(ctx context.Context, status string) ([]store.Investment, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status)
}

type stubWithdrawalStore struct {
	listByUserFn   func(ctx context.Context, userID string) ([]store.Withdrawal, error)
	listByStatusFn func(ctx context.Context, status string) ([]store.Withdrawal, error)
}

func (s stubWithdrawalStore) ListByUser(ctx context.Context, userID string) ([]store.Withdrawal, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubWithdrawalStore) ListByStatus(ctx context.Context, status string) ([]store.Withdrawal, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubConverter struct {
	convertFn func(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool)
}

func (s stubConverter) ConvertUSDTo(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool) {
	if s.convertFn == nil {
		return decimal.Zero, false
	}
	return s.convertFn(ctx, code, amountUSD)
}

type stubInvestmentService struct {
	createFn      func(ctx context.Context, req services.CreateInvestmentRequest) (string, error)
	attachProofFn func(ctx context.Context, investmentID, userID string, file multipart.File, header *multipart.FileHeader) (string, error)
	approveFn     func(ctx context.Context, adminID, investmentID string) error
	rejectFn      func(ctx context.Context, adminID, investmentID string) error
	editProfitFn  func(ctx context.Context, adminID, investmentID, newProfit string) error
}

func (s stubInvestmentService) Create(ctx context.Context, req services.CreateInvestmentRequest) (string, error) {
	if s.createFn == nil {
		return "inv-1", nil
	}
	return s.createFn(ctx, req)
}

func (s stubInvestmentService) AttachProof(ctx context.Context, investmentID, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.attachProofFn == nil {
		return "proof.png", nil
	}
	return s.attachProofFn(ctx, investmentID, userID, file, header)
}

func (s stubInvestmentService) Approve(ctx context.Context, adminID, investmentID string) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(ctx, adminID, investmentID)
}

func (s stubInvestmentService) Reject(ctx context.Context, adminID, investmentID string) error {
	if s.rejectFn == nil {
		return nil
	}
	return s.rejectFn(ctx, adminID, investmentID)
}

func (s stubInvestmentService) EditProfit(ctx context.Context, adminID, investmentID, newProfit string) error {
	if s.editProfitFn == nil {
		return nil
	}
	return s.editProfitFn(ctx, adminID, investmentID, newProfit)
}

type stubWithdrawalService struct {
	createFn  func(ctx context.Context, userID, rawAmount string) (string, error)
	approveFn func(ctx context.Context, adminID, withdrawalID string) error
	rejectFn  func(ctx context.Context, adminID, withdrawalID string) error
}

func (s stubWithdrawalService) Create(ctx context.Context, userID, rawAmount string) (string, error) {
	if s.createFn == nil {
		return "wd-1", nil
	}
	return s.createFn(ctx, userID, rawAmount)
}

func (s stubWithdrawalService) Approve(ctx context.Context, adminID, withdrawalID string) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(ctx, adminID, withdrawalID)
}

func (s stubWithdrawalService) Reject(ctx context.Context, adminID, withdrawalID string) error {
	if s.rejectFn == nil {
		return nil
	}
	return s.rejectFn(ctx, adminID, withdrawalID)
}

type stubPlanService struct {
	createFn func(ctx context.Context, adminID string, req services.PlanRequest) (string, error)
	updateFn func(ctx context.Context, adminID, planID string, req services.PlanRequest) error
	getFn    func(ctx context.Context, planID string) (store.Plan, error)
	toggleFn func(ctx context.Context, adminID, planID string) (string, error)
	deleteFn func(ctx context.Context, adminID, planID string) (int, error)
}

func (s stubPlanService) Create(ctx context.Context, adminID string, req services.PlanRequest) (string, error) {
	if s.createFn == nil {
		return "plan-1", nil
	}
	return s.createFn(ctx, adminID, req)
}

func (s stubPlanService) Update(ctx context.Context, adminID, planID string, req services.PlanRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, adminID, planID, req)
}

func (s stubPlanService) Get(ctx context.Context, planID string) (store.Plan, error) {
	if s.getFn == nil {
		return store.Plan{ID: planID}, nil
	}
	return s.getFn(ctx, planID)
}

func (s stubPlanService) Toggle(ctx context.Context, adminID, planID string) (string, error) {
	if s.toggleFn == nil {
		return "inactive", nil
	}
	return s.toggleFn(ctx, adminID, planID)
}

func (s stubPlanService) Delete(ctx context.Context, adminID, planID string) (int, error) {
	if s.deleteFn == nil {
		return 0, nil
	}
	return s.deleteFn(ctx, adminID, planID)
}

type stubAssistantStore struct {
	rootFn           func(ctx context.Context) (store.AssistantNode, error)
	nodeFn           func(ctx context.Context, nodeID string) (store.AssistantNode, error)
	listNodesFn      func(ctx context.Context) ([]store.AssistantNode, error)
	optionsFn        func(ctx context.Context, nodeID string) ([]store.AssistantOption, error)
	createNodeFn     func(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error
	updateNodeFn     func(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error
	deleteNodeFn     func(ctx context.Context, tx store.Execer, nodeID string) error
	replaceOptionsFn func(ctx context.Context, tx store.Execer, nodeID string, options []store.AssistantOption) error
	logFn            func(ctx context.Context, id string, nodeID, optionID, userID, metadata *string) error
	listLogsFn       func(ctx context.Context, filter store.AssistantLogFilter, limit, offset int) ([]store.AssistantLog, error)
	countLogsFn      func(ctx context.Context, filter store.AssistantLogFilter) (int, error)
	recordExportFn   func(ctx context.Context, id, filename, filters string) error
	listExportsFn    func(ctx context.Context) ([]store.AssistantExport, error)
}

func (s stubAssistantStore) Root(ctx context.Context) (store.AssistantNode, error) {
	if s.rootFn == nil {
		return store.AssistantNode{ID: "root", IsRoot: true}, nil
	}
	return s.rootFn(ctx)
}

func (s stubAssistantStore) Node(ctx context.Context, nodeID string) (store.AssistantNode, error) {
	if s.nodeFn == nil {
		return store.AssistantNode{ID: nodeID}, nil
	}
	return s.nodeFn(ctx, nodeID)
}

func (s stubAssistantStore) ListNodes(ctx context.Context) ([]store.AssistantNode, error) {
	if s.listNodesFn == nil {
		return nil, nil
	}
	return s.listNodesFn(ctx)
}

func (s stubAssistantStore) Options(ctx context.Context, nodeID string) ([]store.AssistantOption, error) {
	if s.optionsFn == nil {
		return nil, nil
	}
	return s.optionsFn(ctx, nodeID)
}

func (s stubAssistantStore) CreateNode(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error {
	if s.createNodeFn == nil {
		return nil
	}
	return s.createNodeFn(ctx, tx, id, question, isRoot)
}

func (s stubAssistantStore) UpdateNode(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error {
	if s.updateNodeFn == nil {
		return nil
	}
	return s.updateNodeFn(ctx, tx, id, question, isRoot)
}

func (s stubAssistantStore) DeleteNode(ctx context.Context, tx store.Execer, nodeID string) error {
	if s.deleteNodeFn == nil {
		return nil
	}
	return s.deleteNodeFn(ctx, tx, nodeID)
}

func (s stubAssistantStore) ReplaceOptions(ctx context.Context, tx store.Execer, nodeID string, options []store.AssistantOption) error {
	if s.replaceOptionsFn == nil {
		return nil
	}
	return s.replaceOptionsFn(ctx, tx, nodeID, options)
}

func (s stubAssistantStore) Log(ctx context.Context, id string, nodeID, optionID, userID, metadata *string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, id, nodeID, optionID, userID, metadata)
}

func (s stubAssistantStore) ListLogs(ctx context.Context, filter store.AssistantLogFilter, limit, offset int) ([]store.AssistantLog, error) {
	if s.listLogsFn == nil {
		return nil, nil
	}
	return s.listLogsFn(ctx, filter, limit, offset)
}

func (s stubAssistantStore) CountLogs(ctx context.Context, filter store.AssistantLogFilter) (int, error) {
	if s.countLogsFn == nil {
		return 0, nil
	}
	return s.countLogsFn(ctx, filter)
}

func (s stubAssistantStore) RecordExport(ctx context.Context, id, filename, filters string) error {
	if s.recordExportFn == nil {
		return nil
	}
	return s.recordExportFn(ctx, id, filename, filters)
}

func (s stubAssistantStore) ListExports(ctx context.Context) ([]store.AssistantExport, error) {
	if s.listExportsFn == nil {
		return nil, nil
	}
	return s.listExportsFn(ctx)
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		MaxImageBytes:  5 * 1024 * 1024,
		MaxVideoBytes:  20 * 1024 * 1024,
	}
}

func newTestHandler(deps Deps) *Handler {
	deps.Config = testConfig()
	if deps.TxRunner == nil {
		deps.TxRunner = fakeTxRunner{}
	}
	if deps.Hub == nil {
		deps.Hub = websocket.NewHub()
	}
	return New(deps)
}

func stringPtr(value string) *string {
	return &value
}

// serveWithAuth runs the handler behind the auth middleware with a token
// minted for userID, mirroring how the router wires protected routes.
func serveWithAuth(t *testing.T, handler http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
