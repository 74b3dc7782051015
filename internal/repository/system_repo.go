package repository

import (
	"context"
	"fmt"
	"strings"

	"WarTrack/internal/model"

	"gorm.io/gorm"
)

// SystemFilter 武器系统损失明细的筛选条件（零值字段不参与过滤）
type SystemFilter struct {
	Country   model.Country  // all 表示不过滤
	Systems   []string       // 系统名称集合过滤
	Status    []model.Status // 损失状态集合过滤
	DateStart string         // 起始日期（含），YYYY-MM-DD
	DateEnd   string         // 结束日期（含），YYYY-MM-DD
}

// SystemRepository 武器系统损失仓储接口
type SystemRepository interface {
	// ListEvents 按过滤条件查询损失实例明细
	ListEvents(ctx context.Context, filter SystemFilter) ([]*model.System, error)
	// ListTotals 查询累计总量，按 (country, system) 排序保证确定性
	ListTotals(ctx context.Context, country model.Country, systems []string) ([]*model.AllSystem, error)
	// DistinctSystems 返回库中出现过的系统名称（升序），country 非 all 时限定国家
	DistinctSystems(ctx context.Context, country model.Country) ([]string, error)
	// ExistingDates 返回明细表中已存在的日期集合（增量导入用）
	ExistingDates(ctx context.Context) (map[string]struct{}, error)
	// SaveEvents 单事务批量upsert明细行，任一行失败则整体回滚
	SaveEvents(ctx context.Context, rows []*model.System) error
	// SaveTotals 单事务批量upsert总量行
	SaveTotals(ctx context.Context, rows []*model.AllSystem) error
}

type systemRepository struct {
	db       *gorm.DB
	resolver ConflictResolver
}

// NewSystemRepository 创建SystemRepository实例（方言在此处选定一次）
func NewSystemRepository(db *gorm.DB) SystemRepository {
	return &systemRepository{db: db, resolver: NewConflictResolver(db)}
}

func (r *systemRepository) ListEvents(ctx context.Context, filter SystemFilter) ([]*model.System, error) {
	db := r.db.WithContext(ctx).Model(&model.System{})

	if filter.Country != "" && filter.Country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(filter.Country)))
	}
	if len(filter.Systems) > 0 {
		db = db.Where("system IN ?", filter.Systems)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, st := range filter.Status {
			statuses = append(statuses, string(st))
		}
		db = db.Where("status IN ?", statuses)
	}
	if filter.DateStart != "" && filter.DateEnd != "" {
		db = db.Where("date >= ? AND date <= ?", filter.DateStart, filter.DateEnd)
	}

	var rows []*model.System
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *systemRepository) ListTotals(ctx context.Context, country model.Country, systems []string) ([]*model.AllSystem, error) {
	db := r.db.WithContext(ctx).Model(&model.AllSystem{})

	if country != "" && country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(country)))
	}
	if len(systems) > 0 {
		db = db.Where("system IN ?", systems)
	}

	var rows []*model.AllSystem
	if err := db.Order("country").Order("system").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *systemRepository) DistinctSystems(ctx context.Context, country model.Country) ([]string, error) {
	db := r.db.WithContext(ctx).Model(&model.AllSystem{})
	if country != "" && country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(country)))
	}
	var systems []string
	if err := db.Distinct("system").Order("system").Pluck("system", &systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}

func (r *systemRepository) ExistingDates(ctx context.Context) (map[string]struct{}, error) {
	var dates []string
	if err := r.db.WithContext(ctx).Model(&model.System{}).
		Distinct("date").Pluck("date", &dates).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set, nil
}

func (r *systemRepository) SaveEvents(ctx context.Context, rows []*model.System) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := r.resolver.UpsertSystem(tx, row); err != nil {
				return fmt.Errorf("写入system失败(第%d/%d行): %w", i+1, len(rows), err)
			}
		}
		return nil
	})
}

func (r *systemRepository) SaveTotals(ctx context.Context, rows []*model.AllSystem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := r.resolver.UpsertAllSystem(tx, row); err != nil {
				return fmt.Errorf("写入all_system失败(第%d/%d行): %w", i+1, len(rows), err)
			}
		}
		return nil
	})
}
