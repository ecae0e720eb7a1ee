package repository

import (
	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// ScanRepository 代码扫描仓储接口
type ScanRepository interface {
	Create(scan *model.CodeScan) error
	FindByID(id int64, opts ...QueryOption) (*model.CodeScan, error)
	List(page, pageSize int, customerID, repositoryID *int64, scanStatus *int8, keyword string) ([]*model.CodeScan, int64, error)
	ListByStatus(statuses []int8) ([]*model.CodeScan, error)
	Update(scan *model.CodeScan) error
	UpdateStatus(id int64, status int8) error
	AppendLog(id int64, line string) error
	Delete(id int64) error

	CreateModules(modules []*model.ScannedModule) error
	FindModuleByID(id int64) (*model.ScannedModule, error)
	ListModules(scanID int64) ([]*model.ScannedModule, error)
	ListSelectedModules(scanID int64) ([]*model.ScannedModule, error)
	UpdateModule(module *model.ScannedModule) error
	SetModulesSelected(scanID int64, moduleIDs []int64) error
	DeleteModules(scanID int64) error
}

type scanRepository struct {
	db *gorm.DB
}

// NewScanRepository 创建代码扫描仓储实例
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

// Create 创建扫描记录
func (r *scanRepository) Create(scan *model.CodeScan) error {
	if err := r.db.Create(scan).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建扫描记录失败", err)
	}
	return nil
}

// FindByID 根据ID查询扫描记录
func (r *scanRepository) FindByID(id int64, opts ...QueryOption) (*model.CodeScan, error) {
	var scan model.CodeScan
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&scan, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询扫描记录失败", err)
	}
	return &scan, nil
}

// List 分页查询扫描记录列表
func (r *scanRepository) List(page, pageSize int, customerID, repositoryID *int64, scanStatus *int8, keyword string) ([]*model.CodeScan, int64, error) {
	var scans []*model.CodeScan
	var total int64

	query := r.db.Model(&model.CodeScan{}).Preload("Repository")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if repositoryID != nil {
		query = query.Where("repository_id = ?", *repositoryID)
	}
	if scanStatus != nil {
		query = query.Where("status = ?", *scanStatus)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR commit_message LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计扫描记录失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&scans).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询扫描记录列表失败", err)
	}
	return scans, total, nil
}

// ListByStatus 按状态集合查询扫描记录
func (r *scanRepository) ListByStatus(statuses []int8) ([]*model.CodeScan, error) {
	var scans []*model.CodeScan
	if err := r.db.Where("status IN ?", statuses).Find(&scans).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "按状态查询扫描记录失败", err)
	}
	return scans, nil
}

// Update 更新扫描记录
func (r *scanRepository) Update(scan *model.CodeScan) error {
	if err := r.db.Save(scan).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新扫描记录失败", err)
	}
	return nil
}

// UpdateStatus 更新扫描状态
func (r *scanRepository) UpdateStatus(id int64, status int8) error {
	err := r.db.Model(&model.CodeScan{}).Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新扫描状态失败", err)
	}
	return nil
}

// AppendLog 追加扫描日志行
func (r *scanRepository) AppendLog(id int64, line string) error {
	err := r.db.Model(&model.CodeScan{}).Where("id = ?", id).
		Update("scan_log", gorm.Expr("CONCAT(IFNULL(scan_log, ''), ?)", line+"\n")).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "追加扫描日志失败", err)
	}
	return nil
}

// Delete 删除扫描记录
func (r *scanRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.CodeScan{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除扫描记录失败", err)
	}
	return nil
}

// CreateModules 批量写入扫描发现的模块
func (r *scanRepository) CreateModules(modules []*model.ScannedModule) error {
	if len(modules) == 0 {
		return nil
	}
	if err := r.db.Create(&modules).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "写入扫描模块失败", err)
	}
	return nil
}

// FindModuleByID 根据ID查询扫描模块
func (r *scanRepository) FindModuleByID(id int64) (*model.ScannedModule, error) {
	var module model.ScannedModule
	err := r.db.First(&module, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询扫描模块失败", err)
	}
	return &module, nil
}

// ListModules 查询扫描发现的全部模块
func (r *scanRepository) ListModules(scanID int64) ([]*model.ScannedModule, error) {
	var modules []*model.ScannedModule
	err := r.db.Where("scan_id = ?", scanID).Order("technical_name").Find(&modules).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询扫描模块列表失败", err)
	}
	return modules, nil
}

// ListSelectedModules 查询已勾选的模块
func (r *scanRepository) ListSelectedModules(scanID int64) ([]*model.ScannedModule, error) {
	var modules []*model.ScannedModule
	err := r.db.Where("scan_id = ? AND selected = ?", scanID, true).
		Order("technical_name").Find(&modules).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询勾选模块失败", err)
	}
	return modules, nil
}

// UpdateModule 更新扫描模块
func (r *scanRepository) UpdateModule(module *model.ScannedModule) error {
	if err := r.db.Save(module).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新扫描模块失败", err)
	}
	return nil
}

// SetModulesSelected 设置勾选集合, 集合外的全部取消勾选
func (r *scanRepository) SetModulesSelected(scanID int64, moduleIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ScannedModule{}).
			Where("scan_id = ?", scanID).
			Update("selected", false).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清除模块勾选失败", err)
		}
		if err := tx.Model(&model.ScannedModule{}).
			Where("scan_id = ? AND id IN ?", scanID, moduleIDs).
			Update("selected", true).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "设置模块勾选失败", err)
		}
		return nil
	})
}

// DeleteModules 删除扫描的模块记录(重新扫描前清理)
func (r *scanRepository) DeleteModules(scanID int64) error {
	err := r.db.Where("scan_id = ?", scanID).Delete(&model.ScannedModule{}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清理扫描模块失败", err)
	}
	return nil
}

// AnalysisRepository 模型分析仓储接口
type AnalysisRepository interface {
	Create(analysis *model.ModuleAnalysis) error
	FindByID(id int64) (*model.ModuleAnalysis, error)
	ListByModuleID(moduleID int64, includeSuperseded bool) ([]*model.ModuleAnalysis, error)
	ListByScanID(scanID int64) ([]*model.ModuleAnalysis, error)
	SupersedeByModuleID(moduleID int64) error
	IncrTestCount(id int64, delta int) error
}

type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository 创建模型分析仓储实例
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create 写入分析结果
func (r *analysisRepository) Create(analysis *model.ModuleAnalysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "写入分析结果失败", err)
	}
	return nil
}

// FindByID 根据ID查询分析结果
func (r *analysisRepository) FindByID(id int64) (*model.ModuleAnalysis, error) {
	var analysis model.ModuleAnalysis
	err := r.db.Preload("Module").First(&analysis, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询分析结果失败", err)
	}
	return &analysis, nil
}

// ListByModuleID 查询模块的分析结果
func (r *analysisRepository) ListByModuleID(moduleID int64, includeSuperseded bool) ([]*model.ModuleAnalysis, error) {
	var analyses []*model.ModuleAnalysis
	query := r.db.Where("module_id = ?", moduleID)
	if !includeSuperseded {
		query = query.Where("superseded = ?", false)
	}
	if err := query.Order("model_name").Find(&analyses).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询模块分析结果失败", err)
	}
	return analyses, nil
}

// ListByScanID 查询扫描下全部有效分析结果
func (r *analysisRepository) ListByScanID(scanID int64) ([]*model.ModuleAnalysis, error) {
	var analyses []*model.ModuleAnalysis
	err := r.db.Joins("JOIN scanned_modules ON scanned_modules.id = module_analyses.module_id").
		Where("scanned_modules.scan_id = ? AND module_analyses.superseded = ?", scanID, false).
		Preload("Module").
		Order("module_analyses.model_name").
		Find(&analyses).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询扫描分析结果失败", err)
	}
	return analyses, nil
}

// SupersedeByModuleID 将模块既有分析标记为已废弃(重分析前)
func (r *analysisRepository) SupersedeByModuleID(moduleID int64) error {
	err := r.db.Model(&model.ModuleAnalysis{}).
		Where("module_id = ? AND superseded = ?", moduleID, false).
		Update("superseded", true).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "废弃历史分析失败", err)
	}
	return nil
}

// IncrTestCount 累加基于分析生成的用例数
func (r *analysisRepository) IncrTestCount(id int64, delta int) error {
	err := r.db.Model(&model.ModuleAnalysis{}).Where("id = ?", id).
		Update("test_count", gorm.Expr("test_count + ?", delta)).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新分析用例计数失败", err)
	}
	return nil
}
