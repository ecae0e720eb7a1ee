package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"qa-platform/internal/dto"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/repository"
	"qa-platform/internal/service"
	"qa-platform/pkg/constants"
)

// Scheduler 调度器
// 按套件的Cron表达式注册执行计划, 周期性驱动健康检查与卡死运行看护
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	cfg           *config.Config
	suiteRepo     repository.SuiteRepository
	runService    service.RunService
	healthService service.HealthService
	suiteEntries  map[int64]cron.EntryID // suite_id → 注册的计划任务
}

// NewScheduler 创建调度器
func NewScheduler(
	logger *zap.Logger,
	cfg *config.Config,
	suiteRepo repository.SuiteRepository,
	runService service.RunService,
	healthService service.HealthService,
) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:          c,
		logger:        logger,
		cfg:           cfg,
		suiteRepo:     suiteRepo,
		runService:    runService,
		healthService: healthService,
		suiteEntries:  make(map[int64]cron.EntryID),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	log := s.logger.Sugar()
	log.Info("启动定时任务调度器...")

	// 装载数据库中的套件执行计划
	if err := s.ReloadSuites(); err != nil {
		return err
	}

	// 计划重载: 套件的定时配置改动后在下一个重载点生效
	// cron 表达式格式: 秒 分 时 日 月 周
	reloadExpr := s.cfg.Core.ScheduleRsync
	if reloadExpr == "" {
		reloadExpr = "0 */5 * * * *" // 默认: 每5分钟
		log.Warn("未配置core.schedule_rsync，使用默认值", zap.String("cron", reloadExpr))
	}
	if _, err := s.cron.AddFunc(reloadExpr, func() {
		if err := s.ReloadSuites(); err != nil {
			log.Errorf("重载套件执行计划失败: %v", err)
		}
	}); err != nil {
		log.Errorf("注册计划重载任务失败: %v", err)
		return err
	}

	// 健康检查: 每分钟执行一次到期检查
	if _, err := s.cron.AddFunc("0 * * * * *", func() {
		executed := s.healthService.RunDueChecks(context.Background())
		if executed > 0 {
			log.Infof("到期健康检查执行完成: %d 项", executed)
		}
	}); err != nil {
		log.Errorf("注册健康检查任务失败: %v", err)
		return err
	}

	// 卡死运行看护
	scanExpr := durationToCron(config.ParseDuration(s.cfg.Core.ScanInterval, time.Minute))
	runTimeout := config.ParseDuration(s.cfg.Core.RunTimeout, 2*time.Hour)
	if _, err := s.cron.AddFunc(scanExpr, func() {
		marked, err := s.runService.MarkStuckRuns(runTimeout)
		if err != nil {
			log.Errorf("卡死运行扫描失败: %v", err)
			return
		}
		if marked > 0 {
			log.Warnf("卡死运行已标记失败: %d 个", marked)
		}
	}); err != nil {
		log.Errorf("注册卡死运行看护任务失败: %v", err)
		return err
	}

	s.cron.Start()
	log.Info("定时任务调度器启动成功")
	return nil
}

// ReloadSuites 从数据库重载套件执行计划
// 已注册的套件全部撤销后重建, 表达式非法的套件跳过
func (s *Scheduler) ReloadSuites() error {
	log := s.logger.Sugar()

	suites, err := s.suiteRepo.ListScheduled()
	if err != nil {
		return err
	}

	for suiteID, entryID := range s.suiteEntries {
		s.cron.Remove(entryID)
		delete(s.suiteEntries, suiteID)
	}

	for _, suite := range suites {
		suiteID := suite.ID
		entryID, err := s.cron.AddFunc(suite.ScheduleCron, func() {
			log.Infof("定时触发套件执行: suite_id=%d", suiteID)
			_, err := s.runService.Run(context.Background(), suiteID, &dto.RunSuiteRequest{},
				constants.TriggerSourceSchedule, "scheduler")
			if err != nil {
				log.Errorf("定时执行套件 %d 失败: %v", suiteID, err)
			}
		})
		if err != nil {
			log.Errorf("套件 %d 的Cron表达式非法, 已跳过: %s", suiteID, suite.ScheduleCron)
			continue
		}
		s.suiteEntries[suiteID] = entryID
	}

	log.Infof("套件执行计划已装载: %d 个", len(s.suiteEntries))
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 停止 cron（等待正在执行的任务完成）
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// durationToCron 将扫描间隔换算为秒级Cron表达式, 非法间隔回落到每分钟
func durationToCron(interval time.Duration) string {
	seconds := int(interval.Seconds())
	if seconds <= 0 || seconds >= 3600 {
		return "0 * * * * *"
	}
	if seconds < 60 {
		return fmt.Sprintf("*/%d * * * * *", seconds)
	}
	minutes := seconds / 60
	return fmt.Sprintf("0 */%d * * * *", minutes)
}
