package service

import (
	"context"
	"fmt"

	"WarTrack/internal/model"
	"WarTrack/internal/repository"
	"WarTrack/internal/scraper"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImportResult 单次导入的结果统计
type ImportResult struct {
	Entity   string `json:"entity"`   // 实体类型
	Fetched  int    `json:"fetched"`  // 从数据源拉取的行数
	Skipped  int    `json:"skipped"`  // 因日期已存在被跳过的行数
	Imported int    `json:"imported"` // 实际入库的行数（0也是成功）
}

// EquipmentsService 装备损失的查询与导入服务
type EquipmentsService struct {
	repo    repository.EquipmentRepository
	scraper scraper.Scraper
	logger  *logrus.Logger
}

// NewEquipmentsService 创建EquipmentsService实例
func NewEquipmentsService(db *gorm.DB, sc scraper.Scraper, logger *logrus.Logger) *EquipmentsService {
	return &EquipmentsService{
		repo:    repository.NewEquipmentRepository(db),
		scraper: sc,
		logger:  logger,
	}
}

// GetEquipments 按国家/类型/日期区间查询按日损失明细
func (s *EquipmentsService) GetEquipments(ctx context.Context, country model.Country, types []model.EquipmentType, dateRange []string) ([]*model.Equipment, error) {
	start, end, err := validateDateRange(dateRange)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, repository.EquipmentFilter{
		Country:   country,
		Types:     types,
		DateStart: start,
		DateEnd:   end,
	})
}

// GetTotalEquipments 按国家/类型查询累计总量，结果按 (country, type) 排序
func (s *EquipmentsService) GetTotalEquipments(ctx context.Context, country model.Country, types []model.EquipmentType) ([]*model.AllEquipment, error) {
	return s.repo.ListTotals(ctx, country, types)
}

// GetEquipmentTypes 返回库中出现过的装备类型（升序），可限定国家
func (s *EquipmentsService) GetEquipmentTypes(ctx context.Context, country model.Country) ([]string, error) {
	return s.repo.DistinctTypes(ctx, country)
}

// CountEquipments 明细表行数（启动回填判断用）
func (s *EquipmentsService) CountEquipments(ctx context.Context) (int64, error) {
	return s.repo.CountEvents(ctx)
}

// ImportEquipments 导入按日装备损失。
// importAll=false 时只导入库中尚无的日期；整批单事务提交，任一行失败全部回滚。
func (s *EquipmentsService) ImportEquipments(ctx context.Context, importAll bool) (ImportResult, error) {
	result := ImportResult{Entity: EntityEquipment}

	existing := map[string]struct{}{}
	if !importAll {
		var err error
		existing, err = s.repo.ExistingDates(ctx)
		if err != nil {
			return result, fmt.Errorf("查询已有日期失败: %w", err)
		}
	}

	raw, err := s.scraper.FetchEquipments(ctx)
	if err != nil {
		return result, fmt.Errorf("拉取equipment数据失败: %w", err)
	}
	result.Fetched = len(raw)

	rows := make([]*model.Equipment, 0, len(raw))
	for _, item := range raw {
		date, err := coerceDate(item, "date_recorded")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}
		destroyed, err := coerceInt(item, "destroyed")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}
		abandoned, err := coerceInt(item, "abandoned")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}
		captured, err := coerceInt(item, "captured")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}
		damaged, err := coerceInt(item, "damaged")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}
		total, err := coerceInt(item, "type_total")
		if err != nil {
			return result, fmt.Errorf("equipment数据转换失败: %w", err)
		}

		if !importAll {
			if _, ok := existing[date]; ok {
				result.Skipped++
				continue
			}
		}

		rows = append(rows, &model.Equipment{
			Country:   item.Get("country"),
			Type:      item.Get("equipment_type"),
			Destroyed: destroyed,
			Abandoned: abandoned,
			Captured:  captured,
			Damaged:   damaged,
			Total:     total,
			Date:      date,
		})
	}

	if len(rows) == 0 {
		// 全部已存在或数据源为空：零行导入也是成功
		s.logger.Infof("equipment无新增数据（拉取%d行，跳过%d行）", result.Fetched, result.Skipped)
		return result, nil
	}

	if err := s.repo.SaveEvents(ctx, rows); err != nil {
		return result, fmt.Errorf("equipment入库失败(共%d行): %w", len(rows), err)
	}
	result.Imported = len(rows)
	s.logger.Infof("equipment导入完成：拉取%d行，跳过%d行，入库%d行", result.Fetched, result.Skipped, result.Imported)
	return result, nil
}

// ImportAllEquipments 导入装备累计总量。
// 总量没有日期维度，每次都整体重新upsert（表达的是时点聚合而非追加事件）。
func (s *EquipmentsService) ImportAllEquipments(ctx context.Context) (ImportResult, error) {
	result := ImportResult{Entity: EntityAllEquipment}

	raw, err := s.scraper.FetchAllEquipments(ctx)
	if err != nil {
		return result, fmt.Errorf("拉取all_equipment数据失败: %w", err)
	}
	result.Fetched = len(raw)

	rows := make([]*model.AllEquipment, 0, len(raw))
	for _, item := range raw {
		destroyed, err := coerceInt(item, "destroyed")
		if err != nil {
			return result, fmt.Errorf("all_equipment数据转换失败: %w", err)
		}
		abandoned, err := coerceInt(item, "abandoned")
		if err != nil {
			return result, fmt.Errorf("all_equipment数据转换失败: %w", err)
		}
		captured, err := coerceInt(item, "captured")
		if err != nil {
			return result, fmt.Errorf("all_equipment数据转换失败: %w", err)
		}
		damaged, err := coerceInt(item, "damaged")
		if err != nil {
			return result, fmt.Errorf("all_equipment数据转换失败: %w", err)
		}
		total, err := coerceInt(item, "type_total")
		if err != nil {
			return result, fmt.Errorf("all_equipment数据转换失败: %w", err)
		}

		rows = append(rows, &model.AllEquipment{
			Country:   item.Get("country"),
			Type:      item.Get("equipment_type"),
			Destroyed: destroyed,
			Abandoned: abandoned,
			Captured:  captured,
			Damaged:   damaged,
			Total:     total,
		})
	}

	if len(rows) == 0 {
		s.logger.Info("all_equipment数据源为空，本次无导入")
		return result, nil
	}

	if err := s.repo.SaveTotals(ctx, rows); err != nil {
		return result, fmt.Errorf("all_equipment入库失败(共%d行): %w", len(rows), err)
	}
	result.Imported = len(rows)
	s.logger.Infof("all_equipment导入完成：共%d行", result.Imported)
	return result, nil
}
