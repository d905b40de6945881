package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
)

// LeaderboardDocument is the JSON published for one category.
type LeaderboardDocument struct {
	CategoryID  int                     `json:"category_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Entries     []models.LeaderboardRow `json:"entries"`
}

func LeaderboardKey(categoryID int) string {
	return fmt.Sprintf("leaderboards/category-%d.json", categoryID)
}

type LeaderboardPublisher struct {
	uploader FileUploader
}

func NewLeaderboardPublisher(uploader FileUploader) *LeaderboardPublisher {
	return &LeaderboardPublisher{uploader: uploader}
}

// Publish overwrites the category's leaderboard document.
func (p *LeaderboardPublisher) Publish(ctx context.Context, categoryID int, rows []models.LeaderboardRow, at time.Time) (*UploadResult, error) {
	if rows == nil {
		rows = []models.LeaderboardRow{}
	}
	body, err := json.Marshal(LeaderboardDocument{CategoryID: categoryID, GeneratedAt: at.UTC(), Entries: rows})
	if err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard for category %d: %w", categoryID, err)
	}
	return p.uploader.Upload(ctx, LeaderboardKey(categoryID), "application/json", bytes.NewReader(body))
}
