package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"WarTrack/internal/service"

	"github.com/sirupsen/logrus"
)

// Scheduler 每日定时触发一轮增量导入。
// 单定时器单worker：上一轮未结束时跳过本轮（只跳过，不排队、不并行）。
// 失败只记录日志，不影响下一轮调度。
type Scheduler struct {
	importService *service.ImportService
	logger        *logrus.Logger
	hour          int
	minute        int
	running       atomic.Bool
}

// New 创建Scheduler实例（hour/minute 为本地时间的每日触发点）
func New(importService *service.ImportService, logger *logrus.Logger, hour, minute int) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 13
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}
	return &Scheduler{
		importService: importService,
		logger:        logger,
		hour:          hour,
		minute:        minute,
	}
}

// Start 阻塞运行调度循环，直到ctx取消。调用方应放在独立goroutine中。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Infof("定时导入已启动，每日%02d:%02d触发", s.hour, s.minute)
	for {
		next := s.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("定时导入已停止")
			return
		case <-timer.C:
		}
		s.fire(ctx)
	}
}

// fire 触发一轮导入；上一轮还在跑则跳过
func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("上一轮定时导入尚未结束，跳过本轮")
		return
	}
	go func() {
		defer s.running.Store(false)
		start := time.Now()
		results, err := s.importService.RunAll(ctx, service.TriggerScheduled, false)
		if err != nil {
			// 无调用方可上报，只记日志；下一轮照常调度
			s.logger.WithError(err).Error("定时导入失败")
			return
		}
		imported := 0
		for _, r := range results {
			imported += r.Imported
		}
		s.logger.Infof("定时导入完成：共入库%d行，耗时%s", imported, time.Since(start).Round(time.Millisecond))
	}()
}

// nextRun 计算下一次触发时间（今天的触发点已过则顺延到明天）
func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
