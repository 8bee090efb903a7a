package repository

import (
	"database/sql"

	"fxtrado/internal/models"
)

// GroupRepository - работа с таблицей pricing_groups.
// Таблицу редактирует бэк-офис; ядро её только читает при
// периодическом обновлении справочника групп.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository создает новый экземпляр репозитория
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// GetActive возвращает все активные записи групп
func (r *GroupRepository) GetActive() ([]*models.PricingGroup, error) {
	query := `
		SELECT id, symbol, group_name, spread, status
		FROM pricing_groups
		WHERE status = $1
		ORDER BY symbol, group_name`

	rows, err := r.db.Query(query, models.GroupStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.PricingGroup
	for rows.Next() {
		g := &models.PricingGroup{}
		err := rows.Scan(&g.ID, &g.Symbol, &g.GroupName, &g.Spread, &g.Status)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}
