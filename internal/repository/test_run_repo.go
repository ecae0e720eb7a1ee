package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qa-platform/internal/model"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// RunRepository 测试执行仓储接口
type RunRepository interface {
	Create(run *model.TestRun) error
	FindByID(id int64, opts ...QueryOption) (*model.TestRun, error)
	FindByCIBuildNumber(buildNumber int) (*model.TestRun, error)
	List(page, pageSize int, customerID, suiteID *int64, runStatus *int8, triggerSource *string, keyword string) ([]*model.TestRun, int64, error)
	ListRunningBefore(threshold time.Time) ([]*model.TestRun, error)
	ListCompletedBySuite(suiteID int64, limit int) ([]*model.TestRun, error)
	Update(run *model.TestRun) error
	UpdateStatus(id int64, status int8) error
	Delete(id int64) error
}

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository 创建测试执行仓储实例
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

// Create 创建执行记录
func (r *runRepository) Create(run *model.TestRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建执行记录失败", err)
	}
	return nil
}

// FindByID 根据ID查询执行记录
func (r *runRepository) FindByID(id int64, opts ...QueryOption) (*model.TestRun, error) {
	var run model.TestRun
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&run, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询执行记录失败", err)
	}
	return &run, nil
}

// FindByCIBuildNumber 根据CI构建号查询执行记录
func (r *runRepository) FindByCIBuildNumber(buildNumber int) (*model.TestRun, error) {
	var run model.TestRun
	err := r.db.Where("ci_build_number = ?", buildNumber).
		Order("created_at DESC").First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "按构建号查询执行记录失败", err)
	}
	return &run, nil
}

// List 分页查询执行记录列表
func (r *runRepository) List(page, pageSize int, customerID, suiteID *int64,
	runStatus *int8, triggerSource *string, keyword string) ([]*model.TestRun, int64, error) {

	var runs []*model.TestRun
	var total int64

	query := r.db.Model(&model.TestRun{}).Preload("Suite")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if suiteID != nil {
		query = query.Where("suite_id = ?", *suiteID)
	}
	if runStatus != nil {
		query = query.Where("status = ?", *runStatus)
	}
	if triggerSource != nil && *triggerSource != "" {
		query = query.Where("trigger_source = ?", *triggerSource)
	}
	if keyword != "" {
		query = query.Where("triggered_by LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计执行记录失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&runs).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询执行记录列表失败", err)
	}
	return runs, total, nil
}

// ListRunningBefore 查询在阈值时间之前启动且仍在运行的执行
func (r *runRepository) ListRunningBefore(threshold time.Time) ([]*model.TestRun, error) {
	var runs []*model.TestRun
	err := r.db.Where("status = ? AND started_at < ?", constants.RunStatusRunning, threshold).Find(&runs).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询滞留执行失败", err)
	}
	return runs, nil
}

// ListCompletedBySuite 查询套件最近N次已完结执行(通过/失败/异常), 新→旧
func (r *runRepository) ListCompletedBySuite(suiteID int64, limit int) ([]*model.TestRun, error) {
	var runs []*model.TestRun
	completed := []int8{constants.RunStatusPassed, constants.RunStatusFailed, constants.RunStatusError}
	err := r.db.Where("suite_id = ? AND status IN ?", suiteID, completed).
		Order("created_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询套件历史执行失败", err)
	}
	return runs, nil
}

// Update 更新执行记录
func (r *runRepository) Update(run *model.TestRun) error {
	if err := r.db.Save(run).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新执行记录失败", err)
	}
	return nil
}

// UpdateStatus 更新执行状态
func (r *runRepository) UpdateStatus(id int64, status int8) error {
	err := r.db.Model(&model.TestRun{}).Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新执行状态失败", err)
	}
	return nil
}

// Delete 删除执行记录及其结果明细
func (r *runRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&model.TestResult{}).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除执行结果失败", err)
		}
		if err := tx.Delete(&model.TestRun{}, id).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除执行记录失败", err)
		}
		return nil
	})
}

// ResultRepository 用例结果仓储接口
type ResultRepository interface {
	Upsert(result *model.TestResult) error
	ListByRunID(runID int64) ([]*model.TestResult, error)
	CountOrphans(runID int64) (int64, error)
	LatestByCaseIDs(caseIDs []int64) (map[int64]*model.TestResult, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository 创建用例结果仓储实例
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Upsert 写入结果, (run_id, case_name) 冲突时覆盖旧结果
func (r *resultRepository) Upsert(result *model.TestResult) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}, {Name: "case_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"test_case_id", "status", "duration", "message",
			"log_ref", "screenshot_ref", "orphan", "updated_at",
		}),
	}).Create(result).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "写入用例结果失败", err)
	}
	return nil
}

// ListByRunID 查询执行的全部结果明细
func (r *resultRepository) ListByRunID(runID int64) ([]*model.TestResult, error) {
	var results []*model.TestResult
	err := r.db.Where("run_id = ?", runID).Order("case_name").Find(&results).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询执行结果失败", err)
	}
	return results, nil
}

// CountOrphans 统计孤儿结果数
func (r *resultRepository) CountOrphans(runID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.TestResult{}).
		Where("run_id = ? AND orphan = ?", runID, true).Count(&count).Error
	if err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计孤儿结果失败", err)
	}
	return count, nil
}

// LatestByCaseIDs 查询用例集合各自最近一条结果
func (r *resultRepository) LatestByCaseIDs(caseIDs []int64) (map[int64]*model.TestResult, error) {
	if len(caseIDs) == 0 {
		return map[int64]*model.TestResult{}, nil
	}
	var results []*model.TestResult
	err := r.db.Where("test_case_id IN ?", caseIDs).
		Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用例最近结果失败", err)
	}

	latest := make(map[int64]*model.TestResult, len(caseIDs))
	for _, res := range results {
		if res.TestCaseID == nil {
			continue
		}
		if _, ok := latest[*res.TestCaseID]; !ok {
			latest[*res.TestCaseID] = res
		}
	}
	return latest, nil
}
