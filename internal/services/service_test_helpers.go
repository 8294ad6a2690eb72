package services

import (
	"context"
	"database/sql"
	"mime/multipart"

	"planvest/internal/store"
	"planvest/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	calls int
	err   error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	users map[string]store.User
}

func (s *stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubUserStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error) {
	return s.GetByID(ctx, userID)
}

func (s *stubUserStore) UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance decimal.Decimal) error {
	user := s.users[userID]
	user.Balance = balance
	s.users[userID] = user
	return nil
}

type stubPlanStore struct {
	plans    map[string]store.Plan
	created  []store.PlanInput
	updated  []store.PlanInput
	statuses map[string]string
	deleted  []string
}

func (s *stubPlanStore) GetByID(ctx context.Context, planID string) (store.Plan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return store.Plan{}, sql.ErrNoRows
	}
	return plan, nil
}

func (s *stubPlanStore) GetTx(ctx context.Context, tx store.Getter, planID string) (store.Plan, error) {
	return s.GetByID(ctx, planID)
}

func (s *stubPlanStore) Create(ctx context.Context, tx store.Execer, input store.PlanInput) error {
	s.created = append(s.created, input)
	return nil
}

func (s *stubPlanStore) Update(ctx context.Context, tx store.Execer, input store.PlanInput) error {
	s.updated = append(s.updated, input)
	return nil
}

func (s *stubPlanStore) SetStatus(ctx context.Context, tx store.Execer, planID, status string) error {
	if s.statuses == nil {
		s.statuses = make(map[string]string)
	}
	s.statuses[planID] = status
	return nil
}

func (s *stubPlanStore) Delete(ctx context.Context, tx store.Execer, planID string) error {
	s.deleted = append(s.deleted, planID)
	return nil
}

type stubInvestmentStore struct {
	investments map[string]store.Investment
	created     []store.InvestmentInput
	perPlan     map[string]int
	planDeletes []string
}

func (s *stubInvestmentStore) Create(ctx context.Context, tx store.Execer, input store.InvestmentInput) error {
	s.created = append(s.created, input)
	if s.investments == nil {
		s.investments = make(map[string]store.Investment)
	}
	s.investments[input.ID] = store.Investment{
		ID:           input.ID,
		UserID:       input.UserID,
		PlanID:       input.PlanID,
		Status:       "pending",
		AmountUSD:    input.AmountUSD,
		AmountLocal:  input.AmountLocal,
		CurrencyCode: input.CurrencyCode,
	}
	return nil
}

func (s *stubInvestmentStore) GetForUpdate(ctx context.Context, tx store.Getter, investmentID string) (store.Investment, error) {
	investment, ok := s.investments[investmentID]
	if !ok {
		return store.Investment{}, sql.ErrNoRows
	}
	return investment, nil
}

func (s *stubInvestmentStore) SetProof(ctx context.Context, investmentID, userID, filename string) (int64, error) {
	investment, ok := s.investments[investmentID]
	if !ok || investment.UserID != userID {
		return 0, nil
	}
	investment.ProofImage = &filename
	s.investments[investmentID] = investment
	return 1, nil
}

func (s *stubInvestmentStore) SetStatus(ctx context.Context, tx store.Execer, investmentID, status string) error {
	investment := s.investments[investmentID]
	investment.Status = status
	s.investments[investmentID] = investment
	return nil
}

func (s *stubInvestmentStore) BackfillAmount(ctx context.Context, tx store.Execer, investmentID string, amountUSD decimal.Decimal) error {
	investment := s.investments[investmentID]
	investment.AmountUSD = amountUSD
	investment.CurrentProfit = decimal.Zero
	s.investments[investmentID] = investment
	return nil
}

func (s *stubInvestmentStore) UpdateProfit(ctx context.Context, tx store.Execer, investmentID string, profit decimal.Decimal, status string) error {
	investment := s.investments[investmentID]
	investment.CurrentProfit = profit
	investment.Status = status
	s.investments[investmentID] = investment
	return nil
}

func (s *stubInvestmentStore) CountByPlan(ctx context.Context, tx store.Getter, planID string) (int, error) {
	return s.perPlan[planID], nil
}

func (s *stubInvestmentStore) DeleteByPlan(ctx context.Context, tx store.Execer, planID string) error {
	s.planDeletes = append(s.planDeletes, planID)
	return nil
}

type stubStatsStore struct {
	views     map[string]int
	investors map[string]int
	deleted   []string
}

func (s *stubStatsStore) RecordView(ctx context.Context, planID string) error {
	if s.views == nil {
		s.views = make(map[string]int)
	}
	s.views[planID]++
	return nil
}

func (s *stubStatsStore) IncrementInvestors(ctx context.Context, tx store.Execer, planID string) error {
	if s.investors == nil {
		s.investors = make(map[string]int)
	}
	s.investors[planID]++
	return nil
}

func (s *stubStatsStore) Delete(ctx context.Context, tx store.Execer, planID string) error {
	s.deleted = append(s.deleted, planID)
	return nil
}

type stubSettingsStore struct {
	investment *store.Limits
	withdrawal *store.Limits
}

func (s *stubSettingsStore) InvestmentLimits(ctx context.Context) (store.Limits, error) {
	if s.investment == nil {
		return store.Limits{}, sql.ErrNoRows
	}
	return *s.investment, nil
}

func (s *stubSettingsStore) WithdrawalLimits(ctx context.Context) (store.Limits, error) {
	if s.withdrawal == nil {
		return store.Limits{}, sql.ErrNoRows
	}
	return *s.withdrawal, nil
}

type auditEntry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Data       string
}

type stubAuditStore struct {
	entries []auditEntry
}

func (s *stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	s.entries = append(s.entries, auditEntry{actorID, action, entityType, entityID, data})
	return nil
}

type stubConverter struct {
	rates map[string]decimal.Decimal
}

func (s *stubConverter) rate(code string) (decimal.Decimal, bool) {
	if code == "USD" {
		return decimal.NewFromInt(1), true
	}
	rate, ok := s.rates[code]
	return rate, ok
}

func (s *stubConverter) ConvertUSDTo(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool) {
	rate, ok := s.rate(code)
	if !ok {
		return decimal.Zero, false
	}
	return amountUSD.Mul(rate).Round(2), true
}

func (s *stubConverter) ConvertToUSD(ctx context.Context, code string, amountLocal decimal.Decimal) (decimal.Decimal, bool) {
	rate, ok := s.rate(code)
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return amountLocal.Div(rate).Round(6), true
}

type stubUploader struct {
	name    string
	err     error
	saved   int
	removed []string
}

func (s *stubUploader) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved++
	return s.name, nil
}

func (s *stubUploader) Remove(name string) error {
	s.removed = append(s.removed, name)
	return nil
}

type balancePush struct {
	UserID string
	Update websocket.BalanceUpdate
}

type stubHub struct {
	pushes []balancePush
}

func (s *stubHub) BroadcastBalance(userID string, update websocket.BalanceUpdate) {
	s.pushes = append(s.pushes, balancePush{UserID: userID, Update: update})
}

type stubWithdrawalStore struct {
	withdrawals map[string]store.Withdrawal
	created     []store.Withdrawal
}

func (s *stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, id, userID string, amount decimal.Decimal) error {
	row := store.Withdrawal{ID: id, UserID: userID, Amount: amount, Status: "pending"}
	s.created = append(s.created, row)
	if s.withdrawals == nil {
		s.withdrawals = make(map[string]store.Withdrawal)
	}
	s.withdrawals[id] = row
	return nil
}

func (s *stubWithdrawalStore) GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (store.Withdrawal, error) {
	withdrawal, ok := s.withdrawals[withdrawalID]
	if !ok {
		return store.Withdrawal{}, sql.ErrNoRows
	}
	return withdrawal, nil
}

func (s *stubWithdrawalStore) SetStatus(ctx context.Context, tx store.Execer, withdrawalID, status string) error {
	withdrawal := s.withdrawals[withdrawalID]
	withdrawal.Status = status
	s.withdrawals[withdrawalID] = withdrawal
	return nil
}
