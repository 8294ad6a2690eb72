package handlers

import (
	"net/http"

	"planvest/internal/config"
	"planvest/internal/db"
	"planvest/internal/middleware"
	"planvest/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner      db.TxRunner
	cfg           config.Config
	users         UserStore
	admin         middleware.AdminStore
	plans         PlanStore
	planStats     PlanStatsStore
	investments   InvestmentStore
	withdrawals   WithdrawalStore
	rates         RateStore
	settings      SettingsStore
	announcements AnnouncementStore
	assistant     AssistantStore
	audit         AuditStore
	converter     Converter
	refresher     RatesRefresher
	responder     Responder
	uploadStorage UploadStorage
	investSvc     InvestmentService
	withdrawSvc   WithdrawalService
	planSvc       PlanService
	hub           *websocket.Hub
}

type Deps struct {
	TxRunner      db.TxRunner
	Config        config.Config
	Users         UserStore
	Admin         middleware.AdminStore
	Plans         PlanStore
	PlanStats     PlanStatsStore
	Investments   InvestmentStore
	Withdrawals   WithdrawalStore
	Rates         RateStore
	Settings      SettingsStore
	Announcements AnnouncementStore
	Assistant     AssistantStore
	Audit         AuditStore
	Converter     Converter
	Refresher     RatesRefresher
	Responder     Responder
	UploadStorage UploadStorage
	InvestSvc     InvestmentService
	WithdrawSvc   WithdrawalService
	PlanSvc       PlanService
	Hub           *websocket.Hub
}

func New(deps Deps) *Handler {
	return &Handler{
		txRunner:      deps.TxRunner,
		cfg:           deps.Config,
		users:         deps.Users,
		admin:         deps.Admin,
		plans:         deps.Plans,
		planStats:     deps.PlanStats,
		investments:   deps.Investments,
		withdrawals:   deps.Withdrawals,
		rates:         deps.Rates,
		settings:      deps.Settings,
		announcements: deps.Announcements,
		assistant:     deps.Assistant,
		audit:         deps.Audit,
		converter:     deps.Converter,
		refresher:     deps.Refresher,
		responder:     deps.Responder,
		uploadStorage: deps.UploadStorage,
		investSvc:     deps.InvestSvc,
		withdrawSvc:   deps.WithdrawSvc,
		planSvc:       deps.PlanSvc,
		hub:           deps.Hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authOnly := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authOnly).Get("/me", h.Me)
	})
	router.With(authOnly).Post("/policy/accept", h.AcceptPolicy)

	router.With(authOnly).Get("/plans", h.ListPlans)
	router.With(authOnly).Get("/plans/{id}", h.GetPlan)

	router.With(authOnly).Post("/investments", h.CreateInvestment)
	router.With(authOnly).Get("/investments", h.ListMyInvestments)
	router.With(authOnly).Post("/investments/{id}/proof", h.UploadProof)

	router.With(authOnly).Post("/withdrawals", h.CreateWithdrawal)
	router.With(authOnly).Get("/withdrawals", h.ListMyWithdrawals)

	router.With(authOnly).Get("/dashboard", h.Dashboard)

	router.Get("/announcements", h.ListActiveAnnouncements)
	router.Get("/contact", h.Contact)

	router.Route("/assistant", func(r chi.Router) {
		r.Get("/config", h.AssistantConfig)
		r.Get("/start", h.AssistantStart)
		r.Get("/node/{id}", h.AssistantNode)
		r.Post("/log", h.AssistantLog)
		r.Get("/plans", h.AssistantPlans)
		r.Get("/testimonials", h.AssistantTestimonials)
		r.Get("/info", h.AssistantInfo)
		r.Get("/contact", h.AssistantContact)
		r.With(authOnly).Post("/query", h.AssistantQuery)
	})

	router.Get("/uploads/{name}", h.ServeUpload)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(authOnly)
		r.Use(middleware.RequireAdmin(h.admin))

		r.Get("/users", h.AdminListUsers)
		r.Get("/audit", h.ListAuditLogs)
		r.Put("/contact", h.AdminUpdateContact)

		r.Get("/plans", h.AdminListPlans)
		r.Post("/plans", h.AdminCreatePlan)
		r.Put("/plans/{id}", h.AdminUpdatePlan)
		r.Post("/plans/{id}/toggle", h.AdminTogglePlan)
		r.Delete("/plans/{id}", h.AdminDeletePlan)

		r.Get("/investments", h.AdminListInvestments)
		r.Post("/investments/{id}/approve", h.AdminApproveInvestment)
		r.Post("/investments/{id}/reject", h.AdminRejectInvestment)
		r.Put("/investments/{id}/profit", h.AdminEditProfit)

		r.Get("/withdrawals", h.AdminListWithdrawals)
		r.Post("/withdrawals/{id}/approve", h.AdminApproveWithdrawal)
		r.Post("/withdrawals/{id}/reject", h.AdminRejectWithdrawal)

		r.Get("/rates", h.AdminListRates)
		r.Put("/rates/{code}", h.AdminUpsertRate)
		r.Post("/rates/refresh", h.AdminRefreshRates)

		r.Get("/settings/investment", h.AdminGetInvestmentSettings)
		r.Put("/settings/investment", h.AdminSetInvestmentSettings)
		r.Get("/settings/withdrawal", h.AdminGetWithdrawalSettings)
		r.Put("/settings/withdrawal", h.AdminSetWithdrawalSettings)

		r.Get("/announcements", h.AdminListAnnouncements)
		r.Post("/announcements", h.AdminCreateAnnouncement)
		r.Put("/announcements/{id}", h.AdminUpdateAnnouncement)
		r.Post("/announcements/{id}/toggle", h.AdminToggleAnnouncement)
		r.Delete("/announcements/{id}", h.AdminDeleteAnnouncement)

		r.Get("/assistant/nodes", h.AdminListAssistantNodes)
		r.Post("/assistant/nodes", h.AdminCreateAssistantNode)
		r.Put("/assistant/nodes/{id}", h.AdminUpdateAssistantNode)
		r.Delete("/assistant/nodes/{id}", h.AdminDeleteAssistantNode)
		r.Get("/assistant/logs", h.AdminListAssistantLogs)
		r.Get("/assistant/logs/export", h.AdminExportAssistantLogs)
		r.Get("/assistant/exports", h.AdminListAssistantExports)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
