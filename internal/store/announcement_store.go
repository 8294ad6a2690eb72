package store

import (
	"context"
	"time"
)

type AnnouncementStore struct {
	db DB
}

type Announcement struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Content     string     `db:"content"`
	ImageFile   *string    `db:"image_file"`
	VideoURL    *string    `db:"video_url"`
	VideoFile   *string    `db:"video_file"`
	DisplayType string     `db:"display_type"`
	IsActive    bool       `db:"is_active"`
	StartDate   *time.Time `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	CreatedAt   any        `db:"created_at"`
}

type AnnouncementInput struct {
	ID          string
	Title       string
	Content     string
	ImageFile   *string
	VideoURL    *string
	VideoFile   *string
	DisplayType string
	IsActive    bool
	StartDate   *time.Time
	EndDate     *time.Time
}

func NewAnnouncementStore(db DB) *AnnouncementStore {
	return &AnnouncementStore{db: db}
}

func (s *AnnouncementStore) Create(ctx context.Context, tx Execer, input AnnouncementInput) error {
	query := `
		INSERT INTO announcements (id, title, content, image_file, video_url, video_file, display_type, is_active, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Title, input.Content, input.ImageFile, input.VideoURL, input.VideoFile,
		input.DisplayType, input.IsActive, input.StartDate, input.EndDate,
	)
	return err
}

func (s *AnnouncementStore) Update(ctx context.Context, tx Execer, input AnnouncementInput) error {
	query := `
		UPDATE announcements
		SET title = $1, content = $2, image_file = $3, video_url = $4, video_file = $5,
		    display_type = $6, is_active = $7, start_date = $8, end_date = $9
		WHERE id = $10
	`
	_, err := tx.ExecContext(ctx, query,
		input.Title, input.Content, input.ImageFile, input.VideoURL, input.VideoFile,
		input.DisplayType, input.IsActive, input.StartDate, input.EndDate, input.ID,
	)
	return err
}

func (s *AnnouncementStore) GetByID(ctx context.Context, announcementID string) (Announcement, error) {
	var row Announcement
	err := s.db.GetContext(ctx, &row, `
		SELECT id, title, content, image_file, video_url, video_file, display_type, is_active, start_date, end_date, created_at
		FROM announcements
		WHERE id = $1
	`, announcementID)
	return row, err
}

func (s *AnnouncementStore) ListAll(ctx context.Context) ([]Announcement, error) {
	var rows []Announcement
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, content, image_file, video_url, video_file, display_type, is_active, start_date, end_date, created_at
		FROM announcements
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive returns announcements whose active window covers now.
func (s *AnnouncementStore) ListActive(ctx context.Context, now time.Time) ([]Announcement, error) {
	var rows []Announcement
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, content, image_file, video_url, video_file, display_type, is_active, start_date, end_date, created_at
		FROM announcements
		WHERE is_active = TRUE
		  AND (start_date IS NULL OR start_date <= $1)
		  AND (end_date IS NULL OR end_date >= $1)
		ORDER BY created_at DESC, id DESC
	`, now)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AnnouncementStore) SetActive(ctx context.Context, tx Execer, announcementID string, active bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE announcements SET is_active = $1 WHERE id = $2`, active, announcementID)
	return err
}

func (s *AnnouncementStore) Delete(ctx context.Context, tx Execer, announcementID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, announcementID)
	return err
}
