package repository

import (
	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindByID(id int64, opts ...QueryOption) (*model.Customer, error)
	FindByCode(code string) (*model.Customer, error)
	List(page, pageSize int, keyword string, status *int8, withServers bool) ([]*model.Customer, int64, error)
	ListActive() ([]*model.Customer, error)
	Update(customer *model.Customer) error
	Delete(id int64) error
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储实例
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create 创建客户
func (r *customerRepository) Create(customer *model.Customer) error {
	if err := r.db.Create(customer).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建客户失败", err)
	}
	return nil
}

// FindByID 根据ID查询客户
func (r *customerRepository) FindByID(id int64, opts ...QueryOption) (*model.Customer, error) {
	var customer model.Customer
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&customer, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询客户失败", err)
	}
	return &customer, nil
}

// FindByCode 根据编码查询客户
func (r *customerRepository) FindByCode(code string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.Where("code = ?", code).First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询客户失败", err)
	}
	return &customer, nil
}

// List 分页查询客户列表
func (r *customerRepository) List(page, pageSize int, keyword string, status *int8, withServers bool) ([]*model.Customer, int64, error) {
	var customers []*model.Customer
	var total int64

	query := r.db.Model(&model.Customer{})
	if withServers {
		query = query.Preload("Servers")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("code LIKE ? OR name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计客户失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&customers).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询客户列表失败", err)
	}
	return customers, total, nil
}

// ListActive 查询所有启用客户
func (r *customerRepository) ListActive() ([]*model.Customer, error) {
	var customers []*model.Customer
	if err := r.db.Where("status = ?", 1).Find(&customers).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询启用客户失败", err)
	}
	return customers, nil
}

// Update 更新客户
func (r *customerRepository) Update(customer *model.Customer) error {
	if err := r.db.Save(customer).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新客户失败", err)
	}
	return nil
}

// Delete 删除客户
func (r *customerRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Customer{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除客户失败", err)
	}
	return nil
}

// ServerRepository 客户环境仓储接口
type ServerRepository interface {
	Create(server *model.Server) error
	FindByID(id int64, opts ...QueryOption) (*model.Server, error)
	List(page, pageSize int, customerID *int64, environment *string, keyword string, status *int8) ([]*model.Server, int64, error)
	ListByCustomerID(customerID int64) ([]*model.Server, error)
	Update(server *model.Server) error
	Delete(id int64) error
}

type serverRepository struct {
	db *gorm.DB
}

// NewServerRepository 创建客户环境仓储实例
func NewServerRepository(db *gorm.DB) ServerRepository {
	return &serverRepository{db: db}
}

// Create 创建环境
func (r *serverRepository) Create(server *model.Server) error {
	if err := r.db.Create(server).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建环境失败", err)
	}
	return nil
}

// FindByID 根据ID查询环境
func (r *serverRepository) FindByID(id int64, opts ...QueryOption) (*model.Server, error) {
	var server model.Server
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&server, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询环境失败", err)
	}
	return &server, nil
}

// List 分页查询环境列表
func (r *serverRepository) List(page, pageSize int, customerID *int64, environment *string, keyword string, status *int8) ([]*model.Server, int64, error) {
	var servers []*model.Server
	var total int64

	query := r.db.Model(&model.Server{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if environment != nil && *environment != "" {
		query = query.Where("environment = ?", *environment)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR url LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计环境失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&servers).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询环境列表失败", err)
	}
	return servers, total, nil
}

// ListByCustomerID 查询客户的全部环境
func (r *serverRepository) ListByCustomerID(customerID int64) ([]*model.Server, error) {
	var servers []*model.Server
	if err := r.db.Where("customer_id = ?", customerID).Find(&servers).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询客户环境失败", err)
	}
	return servers, nil
}

// Update 更新环境
func (r *serverRepository) Update(server *model.Server) error {
	if err := r.db.Save(server).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新环境失败", err)
	}
	return nil
}

// Delete 删除环境
func (r *serverRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Server{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除环境失败", err)
	}
	return nil
}
