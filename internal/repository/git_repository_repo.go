package repository

import (
	"time"

	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// GitRepositoryRepository 代码仓库仓储接口
type GitRepositoryRepository interface {
	Create(repo *model.GitRepository) error
	FindByID(id int64, opts ...QueryOption) (*model.GitRepository, error)
	List(page, pageSize int, customerID *int64, provider *string, keyword string, status *int8) ([]*model.GitRepository, int64, error)
	Update(repo *model.GitRepository) error
	UpdateSyncState(id int64, syncedAt time.Time, lastError *string) error
	Delete(id int64) error
}

type gitRepositoryRepository struct {
	db *gorm.DB
}

// NewGitRepositoryRepository 创建代码仓库仓储实例
func NewGitRepositoryRepository(db *gorm.DB) GitRepositoryRepository {
	return &gitRepositoryRepository{db: db}
}

// Create 创建代码仓库
func (r *gitRepositoryRepository) Create(repo *model.GitRepository) error {
	if err := r.db.Create(repo).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建代码仓库失败", err)
	}
	return nil
}

// FindByID 根据ID查询代码仓库
func (r *gitRepositoryRepository) FindByID(id int64, opts ...QueryOption) (*model.GitRepository, error) {
	var repo model.GitRepository
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&repo, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码仓库失败", err)
	}
	return &repo, nil
}

// List 分页查询代码仓库列表
func (r *gitRepositoryRepository) List(page, pageSize int, customerID *int64, provider *string, keyword string, status *int8) ([]*model.GitRepository, int64, error) {
	var repos []*model.GitRepository
	var total int64

	query := r.db.Model(&model.GitRepository{}).Preload("Customer")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if provider != nil && *provider != "" {
		query = query.Where("provider = ?", *provider)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR repo_url LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计代码仓库失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&repos).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码仓库列表失败", err)
	}
	return repos, total, nil
}

// Update 更新代码仓库
func (r *gitRepositoryRepository) Update(repo *model.GitRepository) error {
	if err := r.db.Save(repo).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新代码仓库失败", err)
	}
	return nil
}

// UpdateSyncState 更新同步时间与错误信息
func (r *gitRepositoryRepository) UpdateSyncState(id int64, syncedAt time.Time, lastError *string) error {
	updates := map[string]interface{}{
		"last_sync_at": syncedAt,
		"last_error":   lastError,
	}
	if err := r.db.Model(&model.GitRepository{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新仓库同步状态失败", err)
	}
	return nil
}

// Delete 删除代码仓库
func (r *gitRepositoryRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.GitRepository{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除代码仓库失败", err)
	}
	return nil
}

// ModuleSourceRepository 模块来源仓储接口
type ModuleSourceRepository interface {
	Upsert(source *model.ModuleSource) error
	FindByModuleName(moduleName string) (*model.ModuleSource, error)
	ListByRepositoryID(repositoryID int64) ([]*model.ModuleSource, error)
	TouchFetched(id int64, fetchedAt time.Time) error
	Delete(id int64) error
}

type moduleSourceRepository struct {
	db *gorm.DB
}

// NewModuleSourceRepository 创建模块来源仓储实例
func NewModuleSourceRepository(db *gorm.DB) ModuleSourceRepository {
	return &moduleSourceRepository{db: db}
}

// Upsert 按模块名新建或更新映射
func (r *moduleSourceRepository) Upsert(source *model.ModuleSource) error {
	var existing model.ModuleSource
	err := r.db.Where("module_name = ?", source.ModuleName).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.Create(source).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建模块来源失败", err)
		}
		return nil
	}
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询模块来源失败", err)
	}

	source.ID = existing.ID
	source.CreatedAt = existing.CreatedAt
	if err := r.db.Save(source).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新模块来源失败", err)
	}
	return nil
}

// FindByModuleName 根据模块名查询来源
func (r *moduleSourceRepository) FindByModuleName(moduleName string) (*model.ModuleSource, error) {
	var source model.ModuleSource
	err := r.db.Preload("Repository").Where("module_name = ?", moduleName).First(&source).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询模块来源失败", err)
	}
	return &source, nil
}

// ListByRepositoryID 查询仓库登记的模块
func (r *moduleSourceRepository) ListByRepositoryID(repositoryID int64) ([]*model.ModuleSource, error) {
	var sources []*model.ModuleSource
	err := r.db.Where("repository_id = ?", repositoryID).Order("module_name").Find(&sources).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询仓库模块来源失败", err)
	}
	return sources, nil
}

// TouchFetched 更新最近拉取时间
func (r *moduleSourceRepository) TouchFetched(id int64, fetchedAt time.Time) error {
	err := r.db.Model(&model.ModuleSource{}).Where("id = ?", id).
		Update("last_fetch_at", fetchedAt).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新模块拉取时间失败", err)
	}
	return nil
}

// Delete 删除模块来源
func (r *moduleSourceRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.ModuleSource{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除模块来源失败", err)
	}
	return nil
}
