package handlers

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"planvest/internal/middleware"
	"planvest/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func assistantNodeView(node store.AssistantNode, options []store.AssistantOption) map[string]any {
	optionViews := make([]map[string]any, 0, len(options))
	for _, option := range options {
		optionViews = append(optionViews, map[string]any{
			"id":             option.ID,
			"option_text":    option.OptionText,
			"next_node_id":   valueToString(option.NextNodeID),
			"action_type":    valueToString(option.ActionType),
			"action_payload": valueToString(option.ActionPayload),
			"display_order":  option.DisplayOrder,
		})
	}
	return map[string]any{
		"id":       node.ID,
		"question": node.Question,
		"is_root":  node.IsRoot,
		"options":  optionViews,
	}
}

// AssistantConfig tells the client which assistant features are live
// before it opens the widget.
func (h *Handler) AssistantConfig(w http.ResponseWriter, r *http.Request) {
	scripted := true
	if _, err := h.assistant.Root(r.Context()); err != nil {
		scripted = false
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"scripted_flow": scripted,
		"free_text":     h.cfg.CompletionAPIKey != "",
	})
}

func (h *Handler) AssistantStart(w http.ResponseWriter, r *http.Request) {
	node, err := h.assistant.Root(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "assistant is not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load assistant")
		return
	}
	options, err := h.assistant.Options(r.Context(), node.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load assistant")
		return
	}
	respondJSON(w, http.StatusOK, assistantNodeView(node, options))
}

func (h *Handler) AssistantNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")
	node, err := h.assistant.Node(r.Context(), nodeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "node not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load node")
		return
	}
	options, err := h.assistant.Options(r.Context(), node.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load node")
		return
	}
	respondJSON(w, http.StatusOK, assistantNodeView(node, options))
}

type assistantLogRequest struct {
	NodeID   string `json:"node_id"`
	OptionID string `json:"option_id"`
	Metadata string `json:"metadata"`
}

func (h *Handler) AssistantLog(w http.ResponseWriter, r *http.Request) {
	var req assistantLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var nodeID, optionID, userID, metadata *string
	if req.NodeID != "" {
		nodeID = &req.NodeID
	}
	if req.OptionID != "" {
		optionID = &req.OptionID
	}
	if req.Metadata != "" {
		metadata = &req.Metadata
	}
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		userID = &id
	}
	if err := h.assistant.Log(r.Context(), uuid.NewString(), nodeID, optionID, userID, metadata); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record interaction")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged"})
}

type assistantQueryRequest struct {
	Question string `json:"question"`
}

func (h *Handler) AssistantQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req assistantQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	answer := h.responder.Reply(r.Context(), req.Question)
	metadata, _ := json.Marshal(map[string]string{"question": req.Question, "answer": answer})
	metadataStr := string(metadata)
	if err := h.assistant.Log(r.Context(), uuid.NewString(), nil, nil, &userID, &metadataStr); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record interaction")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *Handler) AdminListAssistantNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.assistant.ListNodes(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load nodes")
		return
	}
	views := make([]map[string]any, 0, len(nodes))
	for _, node := range nodes {
		options, err := h.assistant.Options(r.Context(), node.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load nodes")
			return
		}
		views = append(views, assistantNodeView(node, options))
	}
	respondJSON(w, http.StatusOK, views)
}

type assistantNodePayload struct {
	Question string `json:"question"`
	IsRoot   bool   `json:"is_root"`
	Options  []struct {
		OptionText    string `json:"option_text"`
		NextNodeID    string `json:"next_node_id"`
		ActionType    string `json:"action_type"`
		ActionPayload string `json:"action_payload"`
		DisplayOrder  int    `json:"display_order"`
	} `json:"options"`
}

func (p assistantNodePayload) options(nodeID string) []store.AssistantOption {
	options := make([]store.AssistantOption, 0, len(p.Options))
	for _, raw := range p.Options {
		option := store.AssistantOption{
			ID:           uuid.NewString(),
			NodeID:       nodeID,
			OptionText:   raw.OptionText,
			DisplayOrder: raw.DisplayOrder,
		}
		if raw.NextNodeID != "" {
			next := raw.NextNodeID
			option.NextNodeID = &next
		}
		if raw.ActionType != "" {
			action := raw.ActionType
			option.ActionType = &action
		}
		if raw.ActionPayload != "" {
			payload := raw.ActionPayload
			option.ActionPayload = &payload
		}
		options = append(options, option)
	}
	return options
}

func (h *Handler) AdminCreateAssistantNode(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	var payload assistantNodePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	nodeID := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.assistant.CreateNode(r.Context(), tx, nodeID, payload.Question, payload.IsRoot); err != nil {
			return err
		}
		if err := h.assistant.ReplaceOptions(r.Context(), tx, nodeID, payload.options(nodeID)); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "assistant_node_create", "assistant_node", nodeID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create node")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": nodeID})
}

func (h *Handler) AdminUpdateAssistantNode(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	nodeID := chi.URLParam(r, "id")
	if _, err := h.assistant.Node(r.Context(), nodeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "node not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load node")
		return
	}
	var payload assistantNodePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.assistant.UpdateNode(r.Context(), tx, nodeID, payload.Question, payload.IsRoot); err != nil {
			return err
		}
		if err := h.assistant.ReplaceOptions(r.Context(), tx, nodeID, payload.options(nodeID)); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "assistant_node_update", "assistant_node", nodeID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update node")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": nodeID})
}

func (h *Handler) AdminDeleteAssistantNode(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	nodeID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.assistant.DeleteNode(r.Context(), tx, nodeID); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "assistant_node_delete", "assistant_node", nodeID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete node")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": nodeID})
}

func logFilterFromQuery(r *http.Request) store.AssistantLogFilter {
	query := r.URL.Query()
	return store.AssistantLogFilter{
		NodeID:   query.Get("node_id"),
		OptionID: query.Get("option_id"),
		UserID:   query.Get("user_id"),
		Start:    query.Get("start"),
		End:      query.Get("end"),
	}
}

func (h *Handler) AdminListAssistantLogs(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r, 50)
	filter := logFilterFromQuery(r)
	logs, err := h.assistant.ListLogs(r.Context(), filter, pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load logs")
		return
	}
	total, err := h.assistant.CountLogs(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load logs")
		return
	}
	views := make([]map[string]any, 0, len(logs))
	for _, entry := range logs {
		views = append(views, map[string]any{
			"id":         entry.ID,
			"node_id":    valueToString(entry.NodeID),
			"option_id":  valueToString(entry.OptionID),
			"user_id":    valueToString(entry.UserID),
			"metadata":   valueToString(entry.Metadata),
			"created_at": entry.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"logs":        views,
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages(total, pageSize),
	})
}

// AdminExportAssistantLogs writes the filtered logs as a CSV file under
// the export directory and streams it back.
func (h *Handler) AdminExportAssistantLogs(w http.ResponseWriter, r *http.Request) {
	filter := logFilterFromQuery(r)
	logs, err := h.assistant.ListLogs(r.Context(), filter, 10000, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load logs")
		return
	}
	if err := os.MkdirAll(h.cfg.ExportDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare export")
		return
	}
	filename := fmt.Sprintf("assistant_logs_%s.csv", time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(h.cfg.ExportDir, filename)
	file, err := os.Create(path)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare export")
		return
	}
	writer := csv.NewWriter(file)
	_ = writer.Write([]string{"id", "node_id", "option_id", "user_id", "metadata", "created_at"})
	for _, entry := range logs {
		_ = writer.Write([]string{
			entry.ID,
			valueToString(entry.NodeID),
			valueToString(entry.OptionID),
			valueToString(entry.UserID),
			valueToString(entry.Metadata),
			valueToString(entry.CreatedAt),
		})
	}
	writer.Flush()
	if err := file.Close(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to write export")
		return
	}
	filters, _ := json.Marshal(filter)
	if err := h.assistant.RecordExport(r.Context(), uuid.NewString(), filename, string(filters)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record export")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeFile(w, r, path)
}

func (h *Handler) AdminListAssistantExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.assistant.ListExports(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load exports")
		return
	}
	views := make([]map[string]any, 0, len(exports))
	for _, export := range exports {
		views = append(views, map[string]any{
			"id":         export.ID,
			"filename":   export.Filename,
			"filters":    export.Filters,
			"created_at": export.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, views)
}
