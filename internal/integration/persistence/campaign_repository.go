package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
	"github.com/cashback-engine/backend/internal/integration/persistence/model"
)

// campaignRepository implements the adapter.CampaignSource interface over the
// synced campaigns table.
type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance.
func NewCampaignRepository(db *gorm.DB) adapter.CampaignSource {
	return &campaignRepository{
		db: db,
	}
}

// ListCampaigns returns campaign snapshots matching the filter, ordered by
// start date ascending.
func (r *campaignRepository) ListCampaigns(ctx context.Context, filter adapter.CampaignFilter) ([]*entity.Campaign, error) {
	query := r.db.WithContext(ctx).Model(&model.CampaignModel{})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.From != nil {
		query = query.Where("start_date <= ?", filter.From)
	}
	if filter.To != nil {
		query = query.Where("end_date >= ?", filter.To)
	}

	var campaignModels []model.CampaignModel
	result := query.Order("start_date ASC").Find(&campaignModels)
	if result.Error != nil {
		return nil, result.Error
	}

	campaigns := make([]*entity.Campaign, len(campaignModels))
	for i, cm := range campaignModels {
		campaigns[i] = cm.ToEntity()
	}
	return campaigns, nil
}
