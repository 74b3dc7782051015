package repository

import (
	"errors"

	"WarTrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConflictResolver 按自然键做插入或更新的能力接口。
// 键命中时只覆盖可变字段，键字段保持不变；未命中时插入整行。
// 实现方式在建库时按方言选定一次，而不是每次调用时判断。
type ConflictResolver interface {
	UpsertEquipment(tx *gorm.DB, row *model.Equipment) error
	UpsertAllEquipment(tx *gorm.DB, row *model.AllEquipment) error
	UpsertSystem(tx *gorm.DB, row *model.System) error
	UpsertAllSystem(tx *gorm.DB, row *model.AllSystem) error
}

// NewConflictResolver 按方言选择实现：PostgreSQL用原生ON CONFLICT，
// 其它方言退化为先查后写（单写者场景下可接受，见导入管道的运行锁）
func NewConflictResolver(db *gorm.DB) ConflictResolver {
	if db.Dialector.Name() == "postgres" {
		return &onConflictResolver{}
	}
	return &lookupResolver{}
}

var countColumns = []string{"destroyed", "abandoned", "captured", "damaged", "total"}

// onConflictResolver 原生冲突子句实现（INSERT ... ON CONFLICT DO UPDATE）
type onConflictResolver struct{}

func (r *onConflictResolver) UpsertEquipment(tx *gorm.DB, row *model.Equipment) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country"}, {Name: "type"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(countColumns),
	}).Create(row).Error
}

func (r *onConflictResolver) UpsertAllEquipment(tx *gorm.DB, row *model.AllEquipment) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns(countColumns),
	}).Create(row).Error
}

func (r *onConflictResolver) UpsertSystem(tx *gorm.DB, row *model.System) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country"}, {Name: "system"}, {Name: "url"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"origin", "status"}),
	}).Create(row).Error
}

func (r *onConflictResolver) UpsertAllSystem(tx *gorm.DB, row *model.AllSystem) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country"}, {Name: "system"}},
		DoUpdates: clause.AssignmentColumns(countColumns),
	}).Create(row).Error
}

// lookupResolver 先查后写的回退实现。
// 并发写同键时有读写竞态，依赖导入管道单写者保证。
type lookupResolver struct{}

func (r *lookupResolver) UpsertEquipment(tx *gorm.DB, row *model.Equipment) error {
	var existing model.Equipment
	err := tx.Where("country = ? AND type = ? AND date = ?", row.Country, row.Type, row.Date).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(row).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&model.Equipment{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"destroyed": row.Destroyed,
			"abandoned": row.Abandoned,
			"captured":  row.Captured,
			"damaged":   row.Damaged,
			"total":     row.Total,
		}).Error
}

func (r *lookupResolver) UpsertAllEquipment(tx *gorm.DB, row *model.AllEquipment) error {
	var existing model.AllEquipment
	err := tx.Where("country = ? AND type = ?", row.Country, row.Type).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(row).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&model.AllEquipment{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"destroyed": row.Destroyed,
			"abandoned": row.Abandoned,
			"captured":  row.Captured,
			"damaged":   row.Damaged,
			"total":     row.Total,
		}).Error
}

func (r *lookupResolver) UpsertSystem(tx *gorm.DB, row *model.System) error {
	var existing model.System
	err := tx.Where("country = ? AND system = ? AND url = ? AND date = ?",
		row.Country, row.System, row.URL, row.Date).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(row).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&model.System{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"origin": row.Origin,
			"status": row.Status,
		}).Error
}

func (r *lookupResolver) UpsertAllSystem(tx *gorm.DB, row *model.AllSystem) error {
	var existing model.AllSystem
	err := tx.Where("country = ? AND system = ?", row.Country, row.System).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(row).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&model.AllSystem{}).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"destroyed": row.Destroyed,
			"abandoned": row.Abandoned,
			"captured":  row.Captured,
			"damaged":   row.Damaged,
			"total":     row.Total,
		}).Error
}
