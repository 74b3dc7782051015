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

// SystemsService 武器系统损失的查询与导入服务
type SystemsService struct {
	repo    repository.SystemRepository
	scraper scraper.Scraper
	logger  *logrus.Logger
}

// NewSystemsService 创建SystemsService实例
func NewSystemsService(db *gorm.DB, sc scraper.Scraper, logger *logrus.Logger) *SystemsService {
	return &SystemsService{
		repo:    repository.NewSystemRepository(db),
		scraper: sc,
		logger:  logger,
	}
}

// GetSystems 按国家/系统/状态/日期区间查询损失实例明细
func (s *SystemsService) GetSystems(ctx context.Context, country model.Country, systems []string, status []model.Status, dateRange []string) ([]*model.System, error) {
	start, end, err := validateDateRange(dateRange)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, repository.SystemFilter{
		Country:   country,
		Systems:   systems,
		Status:    status,
		DateStart: start,
		DateEnd:   end,
	})
}

// GetTotalSystems 按国家/系统查询累计总量，结果按 (country, system) 排序
func (s *SystemsService) GetTotalSystems(ctx context.Context, country model.Country, systems []string) ([]*model.AllSystem, error) {
	return s.repo.ListTotals(ctx, country, systems)
}

// GetSystemTypes 返回库中出现过的系统名称（升序），可限定国家
func (s *SystemsService) GetSystemTypes(ctx context.Context, country model.Country) ([]string, error) {
	return s.repo.DistinctSystems(ctx, country)
}

// ImportSystems 导入武器系统损失实例。
// importAll=false 时只导入库中尚无的日期；整批单事务提交，任一行失败全部回滚。
func (s *SystemsService) ImportSystems(ctx context.Context, importAll bool) (ImportResult, error) {
	result := ImportResult{Entity: EntitySystem}

	existing := map[string]struct{}{}
	if !importAll {
		var err error
		existing, err = s.repo.ExistingDates(ctx)
		if err != nil {
			return result, fmt.Errorf("查询已有日期失败: %w", err)
		}
	}

	raw, err := s.scraper.FetchSystems(ctx)
	if err != nil {
		return result, fmt.Errorf("拉取system数据失败: %w", err)
	}
	result.Fetched = len(raw)

	rows := make([]*model.System, 0, len(raw))
	for _, item := range raw {
		date, err := coerceDate(item, "date_recorded")
		if err != nil {
			return result, fmt.Errorf("system数据转换失败: %w", err)
		}

		if !importAll {
			if _, ok := existing[date]; ok {
				result.Skipped++
				continue
			}
		}

		rows = append(rows, &model.System{
			Country: item.Get("country"),
			Origin:  item.Get("origin"),
			System:  item.Get("system"),
			Status:  item.Get("status"),
			URL:     item.Get("url"),
			Date:    date,
		})
	}

	if len(rows) == 0 {
		s.logger.Infof("system无新增数据（拉取%d行，跳过%d行）", result.Fetched, result.Skipped)
		return result, nil
	}

	if err := s.repo.SaveEvents(ctx, rows); err != nil {
		return result, fmt.Errorf("system入库失败(共%d行): %w", len(rows), err)
	}
	result.Imported = len(rows)
	s.logger.Infof("system导入完成：拉取%d行，跳过%d行，入库%d行", result.Fetched, result.Skipped, result.Imported)
	return result, nil
}

// ImportAllSystems 导入武器系统累计总量（时点聚合，每次整体重新upsert）
func (s *SystemsService) ImportAllSystems(ctx context.Context) (ImportResult, error) {
	result := ImportResult{Entity: EntityAllSystem}

	raw, err := s.scraper.FetchAllSystems(ctx)
	if err != nil {
		return result, fmt.Errorf("拉取all_system数据失败: %w", err)
	}
	result.Fetched = len(raw)

	rows := make([]*model.AllSystem, 0, len(raw))
	for _, item := range raw {
		destroyed, err := coerceInt(item, "destroyed")
		if err != nil {
			return result, fmt.Errorf("all_system数据转换失败: %w", err)
		}
		abandoned, err := coerceInt(item, "abandoned")
		if err != nil {
			return result, fmt.Errorf("all_system数据转换失败: %w", err)
		}
		captured, err := coerceInt(item, "captured")
		if err != nil {
			return result, fmt.Errorf("all_system数据转换失败: %w", err)
		}
		damaged, err := coerceInt(item, "damaged")
		if err != nil {
			return result, fmt.Errorf("all_system数据转换失败: %w", err)
		}
		total, err := coerceInt(item, "total")
		if err != nil {
			return result, fmt.Errorf("all_system数据转换失败: %w", err)
		}

		rows = append(rows, &model.AllSystem{
			Country:   item.Get("country"),
			System:    item.Get("system"),
			Destroyed: destroyed,
			Abandoned: abandoned,
			Captured:  captured,
			Damaged:   damaged,
			Total:     total,
		})
	}

	if len(rows) == 0 {
		s.logger.Info("all_system数据源为空，本次无导入")
		return result, nil
	}

	if err := s.repo.SaveTotals(ctx, rows); err != nil {
		return result, fmt.Errorf("all_system入库失败(共%d行): %w", len(rows), err)
	}
	result.Imported = len(rows)
	s.logger.Infof("all_system导入完成：共%d行", result.Imported)
	return result, nil
}
