package repository

import (
	"time"

	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// HealthCheckRepository 健康检查仓储接口
type HealthCheckRepository interface {
	Create(check *model.HealthCheck) error
	FindByID(id int64, opts ...QueryOption) (*model.HealthCheck, error)
	List(page, pageSize int, customerID *int64, checkType, lastStatus *string, keyword string, status *int8) ([]*model.HealthCheck, int64, error)
	ListDue(now time.Time) ([]*model.HealthCheck, error)
	ListActive() ([]*model.HealthCheck, error)
	Update(check *model.HealthCheck) error
	Delete(id int64) error

	CreateLog(log *model.HealthCheckLog) error
	ListLogs(healthCheckID int64, limit int) ([]*model.HealthCheckLog, error)
	PruneLogs(healthCheckID int64, keep int) error
}

type healthCheckRepository struct {
	db *gorm.DB
}

// NewHealthCheckRepository 创建健康检查仓储实例
func NewHealthCheckRepository(db *gorm.DB) HealthCheckRepository {
	return &healthCheckRepository{db: db}
}

// Create 创建健康检查
func (r *healthCheckRepository) Create(check *model.HealthCheck) error {
	if err := r.db.Create(check).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建健康检查失败", err)
	}
	return nil
}

// FindByID 根据ID查询健康检查
func (r *healthCheckRepository) FindByID(id int64, opts ...QueryOption) (*model.HealthCheck, error) {
	var check model.HealthCheck
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&check, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询健康检查失败", err)
	}
	return &check, nil
}

// List 分页查询健康检查列表
func (r *healthCheckRepository) List(page, pageSize int, customerID *int64,
	checkType, lastStatus *string, keyword string, status *int8) ([]*model.HealthCheck, int64, error) {

	var checks []*model.HealthCheck
	var total int64

	query := r.db.Model(&model.HealthCheck{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if checkType != nil && *checkType != "" {
		query = query.Where("check_type = ?", *checkType)
	}
	if lastStatus != nil && *lastStatus != "" {
		query = query.Where("last_status = ?", *lastStatus)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计健康检查失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&checks).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询健康检查列表失败", err)
	}
	return checks, total, nil
}

// ListDue 查询到期待执行的检查(启用且超过间隔或从未执行)
func (r *healthCheckRepository) ListDue(now time.Time) ([]*model.HealthCheck, error) {
	var checks []*model.HealthCheck
	err := r.db.Where("status = ?", 1).
		Where("last_run_at IS NULL OR last_run_at <= DATE_SUB(?, INTERVAL interval_minutes MINUTE)", now).
		Find(&checks).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询到期健康检查失败", err)
	}
	return checks, nil
}

// ListActive 查询全部启用检查
func (r *healthCheckRepository) ListActive() ([]*model.HealthCheck, error) {
	var checks []*model.HealthCheck
	if err := r.db.Where("status = ?", 1).Find(&checks).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询启用健康检查失败", err)
	}
	return checks, nil
}

// Update 更新健康检查
func (r *healthCheckRepository) Update(check *model.HealthCheck) error {
	if err := r.db.Save(check).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新健康检查失败", err)
	}
	return nil
}

// Delete 删除健康检查及历史
func (r *healthCheckRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("health_check_id = ?", id).Delete(&model.HealthCheckLog{}).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除健康检查历史失败", err)
		}
		if err := tx.Delete(&model.HealthCheck{}, id).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除健康检查失败", err)
		}
		return nil
	})
}

// CreateLog 写入检查历史
func (r *healthCheckRepository) CreateLog(log *model.HealthCheckLog) error {
	if err := r.db.Create(log).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "写入健康检查历史失败", err)
	}
	return nil
}

// ListLogs 查询检查历史, 新→旧
func (r *healthCheckRepository) ListLogs(healthCheckID int64, limit int) ([]*model.HealthCheckLog, error) {
	var logs []*model.HealthCheckLog
	err := r.db.Where("health_check_id = ?", healthCheckID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询健康检查历史失败", err)
	}
	return logs, nil
}

// PruneLogs 仅保留最近 keep 条历史
func (r *healthCheckRepository) PruneLogs(healthCheckID int64, keep int) error {
	var ids []int64
	err := r.db.Model(&model.HealthCheckLog{}).
		Where("health_check_id = ?", healthCheckID).
		Order("created_at DESC").Limit(keep).Pluck("id", &ids).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询保留历史失败", err)
	}
	if len(ids) == 0 {
		return nil
	}
	err = r.db.Where("health_check_id = ? AND id NOT IN ?", healthCheckID, ids).
		Delete(&model.HealthCheckLog{}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清理健康检查历史失败", err)
	}
	return nil
}
