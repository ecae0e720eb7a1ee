package repository

import (
	"time"

	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// RegressionRepository 回归套件仓储接口
type RegressionRepository interface {
	Create(reg *model.RegressionSuite) error
	FindByID(id int64, opts ...QueryOption) (*model.RegressionSuite, error)
	FindBySuiteID(suiteID int64) (*model.RegressionSuite, error)
	List(page, pageSize int, customerID *int64, keyword string, status *int8) ([]*model.RegressionSuite, int64, error)
	Update(reg *model.RegressionSuite) error
	UpdateRunStats(id int64, runDate time.Time, result string, passRate float64) error
	Delete(id int64) error
}

type regressionRepository struct {
	db *gorm.DB
}

// NewRegressionRepository 创建回归套件仓储实例
func NewRegressionRepository(db *gorm.DB) RegressionRepository {
	return &regressionRepository{db: db}
}

// Create 创建回归套件
func (r *regressionRepository) Create(reg *model.RegressionSuite) error {
	if err := r.db.Create(reg).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建回归套件失败", err)
	}
	return nil
}

// FindByID 根据ID查询回归套件
func (r *regressionRepository) FindByID(id int64, opts ...QueryOption) (*model.RegressionSuite, error) {
	var reg model.RegressionSuite
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&reg, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询回归套件失败", err)
	}
	return &reg, nil
}

// FindBySuiteID 根据执行套件反查回归套件
func (r *regressionRepository) FindBySuiteID(suiteID int64) (*model.RegressionSuite, error) {
	var reg model.RegressionSuite
	err := r.db.Where("suite_id = ?", suiteID).First(&reg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询回归套件失败", err)
	}
	return &reg, nil
}

// List 分页查询回归套件列表
func (r *regressionRepository) List(page, pageSize int, customerID *int64, keyword string, status *int8) ([]*model.RegressionSuite, int64, error) {
	var regs []*model.RegressionSuite
	var total int64

	query := r.db.Model(&model.RegressionSuite{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计回归套件失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&regs).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询回归套件列表失败", err)
	}
	return regs, total, nil
}

// Update 更新回归套件
func (r *regressionRepository) Update(reg *model.RegressionSuite) error {
	if err := r.db.Save(reg).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新回归套件失败", err)
	}
	return nil
}

// UpdateRunStats 更新最近执行结论与滚动通过率
func (r *regressionRepository) UpdateRunStats(id int64, runDate time.Time, result string, passRate float64) error {
	err := r.db.Model(&model.RegressionSuite{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_date":   runDate,
			"last_run_result": result,
			"pass_rate":       passRate,
		}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新回归统计失败", err)
	}
	return nil
}

// Delete 删除回归套件
func (r *regressionRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.RegressionSuite{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除回归套件失败", err)
	}
	return nil
}

// TemplateRepository 回归模板仓储接口
type TemplateRepository interface {
	ListByModule(module string) ([]*model.RegressionTemplate, error)
	ListAll() ([]*model.RegressionTemplate, error)
	Create(tpl *model.RegressionTemplate) error
	Update(tpl *model.RegressionTemplate) error
	Delete(id int64) error
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建回归模板仓储实例
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// ListByModule 查询模块的启用模板
func (r *templateRepository) ListByModule(module string) ([]*model.RegressionTemplate, error) {
	var tpls []*model.RegressionTemplate
	err := r.db.Where("module = ? AND status = ?", module, 1).
		Order("name").Find(&tpls).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询回归模板失败", err)
	}
	return tpls, nil
}

// ListAll 查询全部启用模板
func (r *templateRepository) ListAll() ([]*model.RegressionTemplate, error) {
	var tpls []*model.RegressionTemplate
	err := r.db.Where("status = ?", 1).Order("module, name").Find(&tpls).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询回归模板失败", err)
	}
	return tpls, nil
}

// Create 创建回归模板
func (r *templateRepository) Create(tpl *model.RegressionTemplate) error {
	if err := r.db.Create(tpl).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建回归模板失败", err)
	}
	return nil
}

// Update 更新回归模板
func (r *templateRepository) Update(tpl *model.RegressionTemplate) error {
	if err := r.db.Save(tpl).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新回归模板失败", err)
	}
	return nil
}

// Delete 删除回归模板
func (r *templateRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.RegressionTemplate{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除回归模板失败", err)
	}
	return nil
}
