package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"WarTrack/internal/model"
	"WarTrack/internal/repository"
	"WarTrack/internal/scraper"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 实体类型标识（与表名一致）
const (
	EntityEquipment    = "equipment"
	EntityAllEquipment = "all_equipment"
	EntitySystem       = "system"
	EntityAllSystem    = "all_system"
)

// 触发方式
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerBackfill  = "backfill"
)

// ImportService 导入编排：按实体类型持有运行锁（同一实体不允许并发导入），
// 每次运行落一条import_runs审计记录。
type ImportService struct {
	equipments *EquipmentsService
	systems    *SystemsService
	runRepo    repository.ImportRunRepository
	logger     *logrus.Logger
	locks      map[string]*sync.Mutex
}

// NewImportService 创建ImportService实例
func NewImportService(db *gorm.DB, sc scraper.Scraper, logger *logrus.Logger) *ImportService {
	return &ImportService{
		equipments: NewEquipmentsService(db, sc, logger),
		systems:    NewSystemsService(db, sc, logger),
		runRepo:    repository.NewImportRunRepository(db),
		logger:     logger,
		locks: map[string]*sync.Mutex{
			EntityEquipment:    {},
			EntityAllEquipment: {},
			EntitySystem:       {},
			EntityAllSystem:    {},
		},
	}
}

// Equipments 查询侧直接复用装备服务
func (s *ImportService) Equipments() *EquipmentsService { return s.equipments }

// Systems 查询侧直接复用系统服务
func (s *ImportService) Systems() *SystemsService { return s.systems }

// RunEquipments 导入按日装备损失
func (s *ImportService) RunEquipments(ctx context.Context, trigger string, importAll bool) (ImportResult, error) {
	return s.run(ctx, EntityEquipment, trigger, importAll, func(ctx context.Context) (ImportResult, error) {
		return s.equipments.ImportEquipments(ctx, importAll)
	})
}

// RunAllEquipments 导入装备累计总量（总量始终整体重导）
func (s *ImportService) RunAllEquipments(ctx context.Context, trigger string) (ImportResult, error) {
	return s.run(ctx, EntityAllEquipment, trigger, true, func(ctx context.Context) (ImportResult, error) {
		return s.equipments.ImportAllEquipments(ctx)
	})
}

// RunSystems 导入武器系统损失实例
func (s *ImportService) RunSystems(ctx context.Context, trigger string, importAll bool) (ImportResult, error) {
	return s.run(ctx, EntitySystem, trigger, importAll, func(ctx context.Context) (ImportResult, error) {
		return s.systems.ImportSystems(ctx, importAll)
	})
}

// RunAllSystems 导入武器系统累计总量（总量始终整体重导）
func (s *ImportService) RunAllSystems(ctx context.Context, trigger string) (ImportResult, error) {
	return s.run(ctx, EntityAllSystem, trigger, true, func(ctx context.Context) (ImportResult, error) {
		return s.systems.ImportAllSystems(ctx)
	})
}

// RunAll 顺序导入全部四类数据，返回首个失败（已完成的不回滚，各实体独立事务）
func (s *ImportService) RunAll(ctx context.Context, trigger string, importAll bool) ([]ImportResult, error) {
	var results []ImportResult

	steps := []func(context.Context) (ImportResult, error){
		func(ctx context.Context) (ImportResult, error) { return s.RunEquipments(ctx, trigger, importAll) },
		func(ctx context.Context) (ImportResult, error) { return s.RunAllEquipments(ctx, trigger) },
		func(ctx context.Context) (ImportResult, error) { return s.RunSystems(ctx, trigger, importAll) },
		func(ctx context.Context) (ImportResult, error) { return s.RunAllSystems(ctx, trigger) },
	}
	for _, step := range steps {
		res, err := step(ctx)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ListRuns 查询最近的导入审计记录
func (s *ImportService) ListRuns(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	return s.runRepo.ListRecent(ctx, limit)
}

// run 统一的运行外壳：TryLock防并发（拿不到锁立即返回ErrImportBusy，不排队），
// 结束后落审计记录；审计写失败只告警，不影响导入结果。
func (s *ImportService) run(ctx context.Context, entity, trigger string, importAll bool, fn func(context.Context) (ImportResult, error)) (ImportResult, error) {
	mu := s.locks[entity]
	if !mu.TryLock() {
		return ImportResult{Entity: entity}, fmt.Errorf("%s: %w", entity, ErrImportBusy)
	}
	defer mu.Unlock()

	mode := "incremental"
	if importAll {
		mode = "full"
	}
	run := &model.ImportRun{
		RunUUID:   uuid.NewString(),
		Entity:    entity,
		Mode:      mode,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}

	result, err := fn(ctx)

	run.Fetched = result.Fetched
	run.Skipped = result.Skipped
	run.Imported = result.Imported
	run.FinishedAt = time.Now()
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		run.Status = "success"
	}
	if detail, merr := json.Marshal(result); merr == nil {
		run.Detail = datatypes.JSON(detail)
	}

	if aerr := s.runRepo.Create(ctx, run); aerr != nil {
		s.logger.WithError(aerr).WithField("entity", entity).Warn("写入导入审计记录失败")
	}
	return result, err
}
