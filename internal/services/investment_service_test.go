package services

import (
	"context"
	"errors"
	"testing"

	"planvest/internal/store"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func strPtr(value string) *string {
	return &value
}

type investmentFixture struct {
	service     *InvestmentService
	txRunner    *fakeTxRunner
	users       *stubUserStore
	plans       *stubPlanStore
	investments *stubInvestmentStore
	stats       *stubStatsStore
	settings    *stubSettingsStore
	audit       *stubAuditStore
	uploader    *stubUploader
	hub         *stubHub
}

func newInvestmentFixture() *investmentFixture {
	f := &investmentFixture{
		txRunner: &fakeTxRunner{},
		users: &stubUserStore{users: map[string]store.User{
			"user-1": {ID: "user-1", Balance: decimal.Zero, PolicyAccepted: true, CurrencyCode: strPtr("NGN")},
		}},
		plans: &stubPlanStore{plans: map[string]store.Plan{
			"plan-silver": {ID: "plan-silver", PlanName: "Silver", MinimumAmount: d("200"), ProfitAmount: d("30"), Status: "active"},
		}},
		investments: &stubInvestmentStore{investments: map[string]store.Investment{}},
		stats:       &stubStatsStore{},
		settings:    &stubSettingsStore{},
		audit:       &stubAuditStore{},
		uploader:    &stubUploader{name: "stored-proof.png"},
		hub:         &stubHub{},
	}
	converter := &stubConverter{rates: map[string]decimal.Decimal{"NGN": d("770")}}
	f.service = NewInvestmentService(f.txRunner, f.users, f.plans, f.investments, f.stats, f.settings, f.audit, converter, f.uploader, f.hub)
	return f
}

func TestCreateInvestmentRequiresPolicy(t *testing.T) {
	f := newInvestmentFixture()
	user := f.users.users["user-1"]
	user.PolicyAccepted = false
	f.users.users["user-1"] = user

	_, err := f.service.Create(context.Background(), CreateInvestmentRequest{UserID: "user-1", PlanID: "plan-silver"})
	if !errors.Is(err, ErrPolicyNotAccepted) {
		t.Fatalf("expected ErrPolicyNotAccepted, got %v", err)
	}
	if len(f.investments.created) != 0 {
		t.Fatal("no investment row should be written when policy is not accepted")
	}
}

func TestCreateInvestmentUnknownPlan(t *testing.T) {
	f := newInvestmentFixture()
	_, err := f.service.Create(context.Background(), CreateInvestmentRequest{UserID: "user-1", PlanID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateInvestmentConvertsLocalAmount(t *testing.T) {
	f := newInvestmentFixture()
	id, err := f.service.Create(context.Background(), CreateInvestmentRequest{
		UserID:      "user-1",
		PlanID:      "plan-silver",
		LocalAmount: "77000",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(f.investments.created) != 1 {
		t.Fatalf("expected one created investment, got %d", len(f.investments.created))
	}
	row := f.investments.created[0]
	if row.ID != id {
		t.Fatalf("returned id %q does not match stored row %q", id, row.ID)
	}
	if !row.AmountUSD.Equal(d("100")) {
		t.Fatalf("expected canonical amount 100 USD, got %s", row.AmountUSD)
	}
	if !row.AmountLocal.Valid || !row.AmountLocal.Decimal.Equal(d("77000")) {
		t.Fatalf("expected local snapshot 77000, got %+v", row.AmountLocal)
	}
	if row.CurrencyCode == nil || *row.CurrencyCode != "NGN" {
		t.Fatalf("expected currency snapshot NGN, got %v", row.CurrencyCode)
	}
}

func TestCreateInvestmentFallsBackToPlanMinimum(t *testing.T) {
	f := newInvestmentFixture()
	user := f.users.users["user-1"]
	user.CurrencyCode = strPtr("PGK")
	f.users.users["user-1"] = user

	_, err := f.service.Create(context.Background(), CreateInvestmentRequest{
		UserID:      "user-1",
		PlanID:      "plan-silver",
		LocalAmount: "5000",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	row := f.investments.created[0]
	if !row.AmountUSD.Equal(d("200")) {
		t.Fatalf("expected fallback to plan minimum 200, got %s", row.AmountUSD)
	}
	if !row.AmountLocal.Valid || !row.AmountLocal.Decimal.Equal(d("5000")) {
		t.Fatalf("expected entered amount kept as display snapshot, got %+v", row.AmountLocal)
	}
}

func TestCreateInvestmentDefaultsToPlanMinimumWithDisplayConversion(t *testing.T) {
	f := newInvestmentFixture()
	_, err := f.service.Create(context.Background(), CreateInvestmentRequest{UserID: "user-1", PlanID: "plan-silver"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	row := f.investments.created[0]
	if !row.AmountUSD.Equal(d("200")) {
		t.Fatalf("expected plan minimum 200, got %s", row.AmountUSD)
	}
	if !row.AmountLocal.Valid || !row.AmountLocal.Decimal.Equal(d("154000")) {
		t.Fatalf("expected display conversion 154000 NGN, got %+v", row.AmountLocal)
	}
}

func TestCreateInvestmentEnforcesBounds(t *testing.T) {
	f := newInvestmentFixture()
	f.settings.investment = &store.Limits{MinAmount: d("150"), MaxAmount: d("1000")}

	_, err := f.service.Create(context.Background(), CreateInvestmentRequest{
		UserID:      "user-1",
		PlanID:      "plan-silver",
		LocalAmount: "77",
	})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestCreateInvestmentInvalidLocalAmount(t *testing.T) {
	f := newInvestmentFixture()
	for _, raw := range []string{"abc", "-5", "0"} {
		_, err := f.service.Create(context.Background(), CreateInvestmentRequest{
			UserID:      "user-1",
			PlanID:      "plan-silver",
			LocalAmount: raw,
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %q: expected ErrInvalidAmount, got %v", raw, err)
		}
	}
}

func TestApproveCreditsProfitAndActivates(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending", AmountUSD: d("200"),
	}

	if err := f.service.Approve(context.Background(), "admin-1", "inv-1"); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if got := f.users.users["user-1"].Balance; !got.Equal(d("30")) {
		t.Fatalf("expected balance 30 after approval, got %s", got)
	}
	if got := f.investments.investments["inv-1"].Status; got != "active" {
		t.Fatalf("expected status active, got %q", got)
	}
	if got := f.stats.investors["plan-silver"]; got != 1 {
		t.Fatalf("expected investor counter 1, got %d", got)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "investment_approve" {
		t.Fatalf("expected one investment_approve audit entry, got %+v", f.audit.entries)
	}
	if len(f.hub.pushes) != 1 || f.hub.pushes[0].Update.Balance != "30.00" {
		t.Fatalf("expected balance push 30.00, got %+v", f.hub.pushes)
	}
}

func TestApproveBackfillsMissingAmount(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending",
	}

	if err := f.service.Approve(context.Background(), "admin-1", "inv-1"); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if got := f.investments.investments["inv-1"].AmountUSD; !got.Equal(d("200")) {
		t.Fatalf("expected backfilled amount 200, got %s", got)
	}
}

func TestApproveMissingPlan(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-gone", Status: "pending", AmountUSD: d("200"),
	}

	err := f.service.Approve(context.Background(), "admin-1", "inv-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := f.users.users["user-1"].Balance; !got.IsZero() {
		t.Fatalf("balance must be untouched, got %s", got)
	}
	if got := f.investments.investments["inv-1"].Status; got != "pending" {
		t.Fatalf("status must be untouched, got %q", got)
	}
}

func TestApproveNonPending(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "active", AmountUSD: d("200"),
	}

	if err := f.service.Approve(context.Background(), "admin-1", "inv-1"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestRejectLeavesBalance(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending", AmountUSD: d("200"),
	}

	if err := f.service.Reject(context.Background(), "admin-1", "inv-1"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if got := f.investments.investments["inv-1"].Status; got != "rejected" {
		t.Fatalf("expected status rejected, got %q", got)
	}
	if got := f.users.users["user-1"].Balance; !got.IsZero() {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestEditProfitAppliesDelta(t *testing.T) {
	f := newInvestmentFixture()
	user := f.users.users["user-1"]
	user.Balance = d("100")
	f.users.users["user-1"] = user
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "active",
		AmountUSD: d("200"), CurrentProfit: d("10"),
	}

	if err := f.service.EditProfit(context.Background(), "admin-1", "inv-1", "25"); err != nil {
		t.Fatalf("first edit returned error: %v", err)
	}
	if err := f.service.EditProfit(context.Background(), "admin-1", "inv-1", "40"); err != nil {
		t.Fatalf("second edit returned error: %v", err)
	}
	if got := f.users.users["user-1"].Balance; !got.Equal(d("130")) {
		t.Fatalf("expected cumulative delta +30 for balance 130, got %s", got)
	}
	if got := f.investments.investments["inv-1"].CurrentProfit; !got.Equal(d("40")) {
		t.Fatalf("expected current profit 40, got %s", got)
	}
	if got := f.investments.investments["inv-1"].Status; got != "active" {
		t.Fatalf("expected status preserved as active, got %q", got)
	}
}

func TestApproveThenEditProfitScenario(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending", AmountUSD: d("200"),
	}

	if err := f.service.Approve(context.Background(), "admin-1", "inv-1"); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if got := f.users.users["user-1"].Balance; !got.Equal(d("30")) {
		t.Fatalf("expected balance 30 after approval, got %s", got)
	}
	if err := f.service.EditProfit(context.Background(), "admin-1", "inv-1", "50"); err != nil {
		t.Fatalf("EditProfit returned error: %v", err)
	}
	if got := f.users.users["user-1"].Balance; !got.Equal(d("80")) {
		t.Fatalf("expected balance 80 after profit edit, got %s", got)
	}
}

func TestAttachProofRecordsFilename(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending", AmountUSD: d("200"),
	}

	name, err := f.service.AttachProof(context.Background(), "inv-1", "user-1", nil, nil)
	if err != nil {
		t.Fatalf("AttachProof returned error: %v", err)
	}
	if name != "stored-proof.png" {
		t.Fatalf("unexpected stored name %q", name)
	}
	if got := f.investments.investments["inv-1"].ProofImage; got == nil || *got != "stored-proof.png" {
		t.Fatalf("expected proof recorded on investment, got %v", got)
	}
}

func TestAttachProofScopedToOwner(t *testing.T) {
	f := newInvestmentFixture()
	f.investments.investments["inv-1"] = store.Investment{
		ID: "inv-1", UserID: "user-1", PlanID: "plan-silver", Status: "pending", AmountUSD: d("200"),
	}

	_, err := f.service.AttachProof(context.Background(), "inv-1", "someone-else", nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.uploader.removed) != 1 || f.uploader.removed[0] != "stored-proof.png" {
		t.Fatalf("expected orphaned upload removed, got %v", f.uploader.removed)
	}
}
