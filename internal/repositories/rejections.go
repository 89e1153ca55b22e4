package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
)

// RejectionRepository stores videos that must never be added to a playlist.
type RejectionRepository struct {
	db *sql.DB
}

func NewRejectionRepository(db *sql.DB) *RejectionRepository {
	return &RejectionRepository{db: db}
}

// Reject records videoID as rejected. Rejecting the same video again replaces its reason.
func (r *RejectionRepository) Reject(videoID, reason string, now time.Time) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO rejected_videos (video_id, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET reason = excluded.reason
	`
	if _, err := r.db.Exec(query, videoID, reason, now.UTC()); err != nil {
		return &StorageError{Op: "write", Entity: "rejection", ID: videoID, Err: err}
	}
	return nil
}

// Remove deletes a rejection, reporting whether one existed.
func (r *RejectionRepository) Remove(videoID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM rejected_videos WHERE video_id = ?`, videoID)
	if err != nil {
		return false, &StorageError{Op: "write", Entity: "rejection", ID: videoID, Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "write", Entity: "rejection", ID: videoID, Err: err}
	}
	return n > 0, nil
}

// IsRejected reports whether videoID has been rejected.
func (r *RejectionRepository) IsRejected(videoID string) (bool, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM rejected_videos WHERE video_id = ?`, videoID).Scan(&n)
	if err != nil {
		return false, &StorageError{Op: "read", Entity: "rejection", ID: videoID, Err: err}
	}
	return n > 0, nil
}

// List returns every rejection, oldest first.
func (r *RejectionRepository) List() ([]models.Rejection, error) {
	rows, err := r.db.Query(`SELECT video_id, reason, created_at FROM rejected_videos ORDER BY created_at, video_id`)
	if err != nil {
		return nil, &StorageError{Op: "query", Entity: "rejection", Err: err}
	}
	defer rows.Close()

	var rejections []models.Rejection
	for rows.Next() {
		var rej models.Rejection
		if err := rows.Scan(&rej.VideoID, &rej.Reason, &rej.CreatedAt); err != nil {
			return nil, &StorageError{Op: "query", Entity: "rejection", Err: err}
		}
		rejections = append(rejections, rej)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Entity: "rejection", Err: err}
	}
	return rejections, nil
}

// RejectedSet returns all rejected ids for filtering.
func (r *RejectionRepository) RejectedSet() (map[string]struct{}, error) {
	rejections, err := r.List()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(rejections))
	for _, rej := range rejections {
		set[rej.VideoID] = struct{}{}
	}
	return set, nil
}
