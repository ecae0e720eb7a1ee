package repository

import (
	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// SuiteRepository 测试套件仓储接口
type SuiteRepository interface {
	Create(suite *model.TestSuite) error
	FindByID(id int64, opts ...QueryOption) (*model.TestSuite, error)
	FindDefault(customerID int64) (*model.TestSuite, error)
	List(page, pageSize int, customerID *int64, scheduled *bool, keyword string, status *int8) ([]*model.TestSuite, int64, error)
	ListScheduled() ([]*model.TestSuite, error)
	Update(suite *model.TestSuite) error
	ClearDefault(customerID int64) error
	CountCases(suiteID int64) (int64, error)
	Delete(id int64) error
}

type suiteRepository struct {
	db *gorm.DB
}

// NewSuiteRepository 创建测试套件仓储实例
func NewSuiteRepository(db *gorm.DB) SuiteRepository {
	return &suiteRepository{db: db}
}

// Create 创建测试套件
func (r *suiteRepository) Create(suite *model.TestSuite) error {
	if err := r.db.Create(suite).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建测试套件失败", err)
	}
	return nil
}

// FindByID 根据ID查询测试套件
func (r *suiteRepository) FindByID(id int64, opts ...QueryOption) (*model.TestSuite, error) {
	var suite model.TestSuite
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&suite, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试套件失败", err)
	}
	return &suite, nil
}

// FindDefault 查询客户默认套件
func (r *suiteRepository) FindDefault(customerID int64) (*model.TestSuite, error) {
	var suite model.TestSuite
	err := r.db.Where("customer_id = ? AND is_default = ?", customerID, true).First(&suite).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询默认套件失败", err)
	}
	return &suite, nil
}

// List 分页查询套件列表
func (r *suiteRepository) List(page, pageSize int, customerID *int64, scheduled *bool, keyword string, status *int8) ([]*model.TestSuite, int64, error) {
	var suites []*model.TestSuite
	var total int64

	query := r.db.Model(&model.TestSuite{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if scheduled != nil && *scheduled {
		query = query.Where("schedule_cron <> ''")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计测试套件失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&suites).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试套件列表失败", err)
	}
	return suites, total, nil
}

// ListScheduled 查询启用且配置了定时的套件
func (r *suiteRepository) ListScheduled() ([]*model.TestSuite, error) {
	var suites []*model.TestSuite
	err := r.db.Where("status = ? AND schedule_cron <> ''", 1).Find(&suites).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询定时套件失败", err)
	}
	return suites, nil
}

// Update 更新测试套件
func (r *suiteRepository) Update(suite *model.TestSuite) error {
	if err := r.db.Save(suite).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新测试套件失败", err)
	}
	return nil
}

// ClearDefault 清除客户现有默认套件标记
func (r *suiteRepository) ClearDefault(customerID int64) error {
	err := r.db.Model(&model.TestSuite{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		Update("is_default", false).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清除默认套件失败", err)
	}
	return nil
}

// CountCases 统计套件内用例数
func (r *suiteRepository) CountCases(suiteID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.TestCase{}).Where("suite_id = ?", suiteID).Count(&count).Error
	if err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计套件用例失败", err)
	}
	return count, nil
}

// Delete 删除测试套件, 套件内用例脱挂而非删除
func (r *suiteRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TestCase{}).Where("suite_id = ?", id).
			Update("suite_id", nil).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "脱挂套件用例失败", err)
		}
		if err := tx.Delete(&model.TestSuite{}, id).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除测试套件失败", err)
		}
		return nil
	})
}
