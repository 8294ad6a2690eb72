package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"planvest/internal/services"
	"planvest/internal/store"

	"github.com/shopspring/decimal"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, input store.UserInput) error
	GetByID(ctx context.Context, userID string) (store.User, error)
	GetByUsername(ctx context.Context, username string) (store.User, error)
	Count(ctx context.Context, tx store.Getter) (int, error)
	AcceptPolicy(ctx context.Context, userID string) error
	ListAll(ctx context.Context) ([]store.User, error)
}

type PlanStore interface {
	GetByID(ctx context.Context, planID string) (store.Plan, error)
	ListActive(ctx context.Context, limit, offset int) ([]store.Plan, error)
	CountActive(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]store.Plan, error)
}

type PlanStatsStore interface {
	Get(ctx context.Context, planID string) (store.PlanStats, error)
}

type InvestmentStore interface {
	GetByID(ctx context.Context, investmentID string) (store.Investment, error)
	ListByUser(ctx context.Context, userID string) ([]store.Investment, error)
	ListByStatus(ctx context.Context, status string) ([]store.Investment, error)
}

type WithdrawalStore interface {
	ListByUser(ctx context.Context, userID string) ([]store.Withdrawal, error)
	ListByStatus(ctx context.Context, status string) ([]store.Withdrawal, error)
}

type RateStore interface {
	List(ctx context.Context) ([]store.ExchangeRate, error)
	Upsert(ctx context.Context, code string, rate decimal.Decimal) error
}

type SettingsStore interface {
	InvestmentLimits(ctx context.Context) (store.Limits, error)
	WithdrawalLimits(ctx context.Context) (store.Limits, error)
	SetInvestmentLimits(ctx context.Context, tx store.Execer, id string, min, max decimal.Decimal) error
	SetWithdrawalLimits(ctx context.Context, tx store.Execer, id string, min, max decimal.Decimal) error
}

type AnnouncementStore interface {
	Create(ctx context.Context, tx store.Execer, input store.AnnouncementInput) error
	Update(ctx context.Context, tx store.Execer, input store.AnnouncementInput) error
	GetByID(ctx context.Context, announcementID string) (store.Announcement, error)
	ListAll(ctx context.Context) ([]store.Announcement, error)
	ListActive(ctx context.Context, now time.Time) ([]store.Announcement, error)
	SetActive(ctx context.Context, tx store.Execer, announcementID string, active bool) error
	Delete(ctx context.Context, tx store.Execer, announcementID string) error
}

type AssistantStore interface {
	Root(ctx context.Context) (store.AssistantNode, error)
	Node(ctx context.Context, nodeID string) (store.AssistantNode, error)
	ListNodes(ctx context.Context) ([]store.AssistantNode, error)
	Options(ctx context.Context, nodeID string) ([]store.AssistantOption, error)
	CreateNode(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error
	UpdateNode(ctx context.Context, tx store.Execer, id, question string, isRoot bool) error
	DeleteNode(ctx context.Context, tx store.Execer, nodeID string) error
	ReplaceOptions(ctx context.Context, tx store.Execer, nodeID string, options []store.AssistantOption) error
	Log(ctx context.Context, id string, nodeID, optionID, userID, metadata *string) error
	ListLogs(ctx context.Context, filter store.AssistantLogFilter, limit, offset int) ([]store.AssistantLog, error)
	CountLogs(ctx context.Context, filter store.AssistantLogFilter) (int, error)
	RecordExport(ctx context.Context, id, filename, filters string) error
	ListExports(ctx context.Context) ([]store.AssistantExport, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type Converter interface {
	ConvertUSDTo(ctx context.Context, code string, amountUSD decimal.Decimal) (decimal.Decimal, bool)
}

type RatesRefresher interface {
	Refresh(ctx context.Context) error
}

type Responder interface {
	Reply(ctx context.Context, question string) string
}

type UploadStorage interface {
	SaveImage(file multipart.File, header *multipart.FileHeader) (string, error)
	SaveVideo(file multipart.File, header *multipart.FileHeader) (string, error)
	Remove(name string) error
	Dir() string
}

type InvestmentService interface {
	Create(ctx context.Context, req services.CreateInvestmentRequest) (string, error)
	AttachProof(ctx context.Context, investmentID, userID string, file multipart.File, header *multipart.FileHeader) (string, error)
	Approve(ctx context.Context, adminID, investmentID string) error
	Reject(ctx context.Context, adminID, investmentID string) error
	EditProfit(ctx context.Context, adminID, investmentID, newProfit string) error
}

type WithdrawalService interface {
	Create(ctx context.Context, userID, rawAmount string) (string, error)
	Approve(ctx context.Context, adminID, withdrawalID string) error
	Reject(ctx context.Context, adminID, withdrawalID string) error
}

type PlanService interface {
	Create(ctx context.Context, adminID string, req services.PlanRequest) (string, error)
	Update(ctx context.Context, adminID, planID string, req services.PlanRequest) error
	Get(ctx context.Context, planID string) (store.Plan, error)
	Toggle(ctx context.Context, adminID, planID string) (string, error)
	Delete(ctx context.Context, adminID, planID string) (int, error)
}
