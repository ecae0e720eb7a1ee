package repository

import (
	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// RequirementRepository 需求仓储接口
type RequirementRepository interface {
	Create(req *model.Requirement) error
	FindByID(id int64, opts ...QueryOption) (*model.Requirement, error)
	FindByCode(customerID int64, code string) (*model.Requirement, error)
	List(page, pageSize int, customerID *int64, reqStatus *int8, priority *string, keyword string) ([]*model.Requirement, int64, error)
	Update(req *model.Requirement) error
	Delete(id int64) error
}

type requirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository 创建需求仓储实例
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

// Create 创建需求
func (r *requirementRepository) Create(req *model.Requirement) error {
	if err := r.db.Create(req).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建需求失败", err)
	}
	return nil
}

// FindByID 根据ID查询需求
func (r *requirementRepository) FindByID(id int64, opts ...QueryOption) (*model.Requirement, error) {
	var req model.Requirement
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&req, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询需求失败", err)
	}
	return &req, nil
}

// FindByCode 根据客户与编码查询需求
func (r *requirementRepository) FindByCode(customerID int64, code string) (*model.Requirement, error) {
	var req model.Requirement
	err := r.db.Where("customer_id = ? AND code = ?", customerID, code).First(&req).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询需求失败", err)
	}
	return &req, nil
}

// List 分页查询需求列表
func (r *requirementRepository) List(page, pageSize int, customerID *int64,
	reqStatus *int8, priority *string, keyword string) ([]*model.Requirement, int64, error) {

	var reqs []*model.Requirement
	var total int64

	query := r.db.Model(&model.Requirement{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if reqStatus != nil {
		query = query.Where("status = ?", *reqStatus)
	}
	if priority != nil && *priority != "" {
		query = query.Where("priority = ?", *priority)
	}
	if keyword != "" {
		query = query.Where("code LIKE ? OR name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计需求失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&reqs).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询需求列表失败", err)
	}
	return reqs, total, nil
}

// Update 更新需求
func (r *requirementRepository) Update(req *model.Requirement) error {
	if err := r.db.Save(req).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新需求失败", err)
	}
	return nil
}

// Delete 删除需求
func (r *requirementRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Requirement{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除需求失败", err)
	}
	return nil
}
