package adapter

import (
	"context"
	"time"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// CampaignFilter defines filter options for listing campaign snapshots.
type CampaignFilter struct {
	Statuses []entity.CampaignStatus
	From     *time.Time
	To       *time.Time
}

// CampaignSource provides campaign snapshots for evaluation. The source owns
// campaign authoring and storage; the engine only reads ordered snapshots.
type CampaignSource interface {
	// ListCampaigns returns campaign snapshots matching the filter, ordered
	// by start date ascending.
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]*entity.Campaign, error)
}
