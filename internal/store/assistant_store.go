package store

import (
	"context"
	"fmt"
)

type AssistantStore struct {
	db DB
}

type AssistantNode struct {
	ID        string `db:"id"`
	Question  string `db:"question"`
	IsRoot    bool   `db:"is_root"`
	CreatedAt any    `db:"created_at"`
}

type AssistantOption struct {
	ID            string  `db:"id"`
	NodeID        string  `db:"node_id"`
	OptionText    string  `db:"option_text"`
	NextNodeID    *string `db:"next_node_id"`
	ActionType    *string `db:"action_type"`
	ActionPayload *string `db:"action_payload"`
	DisplayOrder  int     `db:"display_order"`
}

type AssistantLog struct {
	ID        string  `db:"id"`
	NodeID    *string `db:"node_id"`
	OptionID  *string `db:"option_id"`
	UserID    *string `db:"user_id"`
	Metadata  *string `db:"metadata"`
	CreatedAt any     `db:"created_at"`
}

type AssistantExport struct {
	ID        string `db:"id"`
	Filename  string `db:"filename"`
	Filters   string `db:"filters"`
	CreatedAt any    `db:"created_at"`
}

type AssistantLogFilter struct {
	NodeID   string
	OptionID string
	UserID   string
	Start    string
	End      string
}

func NewAssistantStore(db DB) *AssistantStore {
	return &AssistantStore{db: db}
}

func (s *AssistantStore) Root(ctx context.Context) (AssistantNode, error) {
	var row AssistantNode
	err := s.db.GetContext(ctx, &row, `
		SELECT id, question, is_root, created_at
		FROM assistant_nodes
		WHERE is_root = TRUE
		LIMIT 1
	`)
	return row, err
}

func (s *AssistantStore) Node(ctx context.Context, nodeID string) (AssistantNode, error) {
	var row AssistantNode
	err := s.db.GetContext(ctx, &row, `
		SELECT id, question, is_root, created_at
		FROM assistant_nodes
		WHERE id = $1
	`, nodeID)
	return row, err
}

func (s *AssistantStore) ListNodes(ctx context.Context) ([]AssistantNode, error) {
	var rows []AssistantNode
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, question, is_root, created_at
		FROM assistant_nodes
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AssistantStore) Options(ctx context.Context, nodeID string) ([]AssistantOption, error) {
	var rows []AssistantOption
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, node_id, option_text, next_node_id, action_type, action_payload, display_order
		FROM assistant_options
		WHERE node_id = $1
		ORDER BY display_order
	`, nodeID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AssistantStore) CreateNode(ctx context.Context, tx Execer, id, question string, isRoot bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO assistant_nodes (id, question, is_root)
		VALUES ($1, $2, $3)
	`, id, question, isRoot)
	return err
}

func (s *AssistantStore) UpdateNode(ctx context.Context, tx Execer, id, question string, isRoot bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE assistant_nodes SET question = $1, is_root = $2 WHERE id = $3
	`, question, isRoot, id)
	return err
}

func (s *AssistantStore) DeleteNode(ctx context.Context, tx Execer, nodeID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assistant_options WHERE node_id = $1`, nodeID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM assistant_nodes WHERE id = $1`, nodeID)
	return err
}

func (s *AssistantStore) ReplaceOptions(ctx context.Context, tx Execer, nodeID string, options []AssistantOption) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assistant_options WHERE node_id = $1`, nodeID); err != nil {
		return err
	}
	query := `
		INSERT INTO assistant_options (id, node_id, option_text, next_node_id, action_type, action_payload, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, opt := range options {
		if _, err := tx.ExecContext(ctx, query, opt.ID, nodeID, opt.OptionText, opt.NextNodeID, opt.ActionType, opt.ActionPayload, opt.DisplayOrder); err != nil {
			return err
		}
	}
	return nil
}

func (s *AssistantStore) Log(ctx context.Context, id string, nodeID, optionID, userID, metadata *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assistant_logs (id, node_id, option_id, user_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, id, nodeID, optionID, userID, metadata)
	return err
}

func (s *AssistantStore) ListLogs(ctx context.Context, filter AssistantLogFilter, limit, offset int) ([]AssistantLog, error) {
	query := `
		SELECT id, node_id, option_id, user_id, metadata, created_at
		FROM assistant_logs
	`
	where, args := logFilterClauses(filter)
	query += where
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	var rows []AssistantLog
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AssistantStore) CountLogs(ctx context.Context, filter AssistantLogFilter) (int, error) {
	query := `SELECT COUNT(1) FROM assistant_logs`
	where, args := logFilterClauses(filter)
	query += where
	var count int
	err := s.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func logFilterClauses(filter AssistantLogFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}
	if filter.NodeID != "" {
		add(" AND node_id = $%d", filter.NodeID)
	}
	if filter.OptionID != "" {
		add(" AND option_id = $%d", filter.OptionID)
	}
	if filter.UserID != "" {
		add(" AND user_id = $%d", filter.UserID)
	}
	if filter.Start != "" {
		add(" AND created_at >= $%d", filter.Start)
	}
	if filter.End != "" {
		add(" AND created_at <= $%d", filter.End)
	}
	return where, args
}

func (s *AssistantStore) RecordExport(ctx context.Context, id, filename, filters string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assistant_exports (id, filename, filters)
		VALUES ($1, $2, $3)
	`, id, filename, filters)
	return err
}

func (s *AssistantStore) ListExports(ctx context.Context) ([]AssistantExport, error) {
	var rows []AssistantExport
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, filename, filters, created_at
		FROM assistant_exports
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
