package repository

import (
	"context"
	"fmt"
	"strings"

	"WarTrack/internal/model"

	"gorm.io/gorm"
)

// EquipmentFilter 装备损失明细的筛选条件（零值字段不参与过滤）
type EquipmentFilter struct {
	Country   model.Country         // all 表示不过滤
	Types     []model.EquipmentType // 类型集合过滤
	DateStart string                // 起始日期（含），YYYY-MM-DD
	DateEnd   string                // 结束日期（含），YYYY-MM-DD
}

// EquipmentRepository 装备损失仓储接口
type EquipmentRepository interface {
	// ListEvents 按过滤条件查询按日损失明细
	ListEvents(ctx context.Context, filter EquipmentFilter) ([]*model.Equipment, error)
	// ListTotals 查询累计总量，按 (country, type) 排序保证确定性
	ListTotals(ctx context.Context, country model.Country, types []model.EquipmentType) ([]*model.AllEquipment, error)
	// DistinctTypes 返回库中出现过的装备类型（升序），country 非 all 时限定国家
	DistinctTypes(ctx context.Context, country model.Country) ([]string, error)
	// ExistingDates 返回明细表中已存在的日期集合（增量导入用）
	ExistingDates(ctx context.Context) (map[string]struct{}, error)
	// CountEvents 明细表行数（启动回填判断用）
	CountEvents(ctx context.Context) (int64, error)
	// SaveEvents 单事务批量upsert明细行，任一行失败则整体回滚
	SaveEvents(ctx context.Context, rows []*model.Equipment) error
	// SaveTotals 单事务批量upsert总量行
	SaveTotals(ctx context.Context, rows []*model.AllEquipment) error
}

type equipmentRepository struct {
	db       *gorm.DB
	resolver ConflictResolver
}

// NewEquipmentRepository 创建EquipmentRepository实例（方言在此处选定一次）
func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db, resolver: NewConflictResolver(db)}
}

func (r *equipmentRepository) ListEvents(ctx context.Context, filter EquipmentFilter) ([]*model.Equipment, error) {
	db := r.db.WithContext(ctx).Model(&model.Equipment{})

	if filter.Country != "" && filter.Country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(filter.Country)))
	}
	if len(filter.Types) > 0 {
		db = db.Where("type IN ?", typeStrings(filter.Types))
	}
	if filter.DateStart != "" && filter.DateEnd != "" {
		db = db.Where("date >= ? AND date <= ?", filter.DateStart, filter.DateEnd)
	}

	var rows []*model.Equipment
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *equipmentRepository) ListTotals(ctx context.Context, country model.Country, types []model.EquipmentType) ([]*model.AllEquipment, error) {
	db := r.db.WithContext(ctx).Model(&model.AllEquipment{})

	if country != "" && country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(country)))
	}
	if len(types) > 0 {
		db = db.Where("type IN ?", typeStrings(types))
	}

	var rows []*model.AllEquipment
	if err := db.Order("country").Order("type").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *equipmentRepository) DistinctTypes(ctx context.Context, country model.Country) ([]string, error) {
	db := r.db.WithContext(ctx).Model(&model.AllEquipment{})
	if country != "" && country != model.CountryAll {
		db = db.Where("LOWER(country) = ?", strings.ToLower(string(country)))
	}
	var types []string
	if err := db.Distinct("type").Order("type").Pluck("type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *equipmentRepository) ExistingDates(ctx context.Context) (map[string]struct{}, error) {
	var dates []string
	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Distinct("date").Pluck("date", &dates).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set, nil
}

func (r *equipmentRepository) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveEvents 单事务批量upsert。逐行提交给冲突解析器，
// 任一行失败则回滚整批并携带行号上下文返回。
func (r *equipmentRepository) SaveEvents(ctx context.Context, rows []*model.Equipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := r.resolver.UpsertEquipment(tx, row); err != nil {
				return fmt.Errorf("写入equipment失败(第%d/%d行): %w", i+1, len(rows), err)
			}
		}
		return nil
	})
}

func (r *equipmentRepository) SaveTotals(ctx context.Context, rows []*model.AllEquipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := r.resolver.UpsertAllEquipment(tx, row); err != nil {
				return fmt.Errorf("写入all_equipment失败(第%d/%d行): %w", i+1, len(rows), err)
			}
		}
		return nil
	})
}

func typeStrings(types []model.EquipmentType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
