package repository

import (
	"time"

	"gorm.io/gorm"

	"qa-platform/internal/model"
	pkgErrors "qa-platform/pkg/errors"
)

// SpecRepository 测试规格仓储接口
type SpecRepository interface {
	Create(spec *model.TestSpec) error
	FindByID(id int64, opts ...QueryOption) (*model.TestSpec, error)
	List(page, pageSize int, customerID *int64, module, category *string, keyword string) ([]*model.TestSpec, int64, error)
	Update(spec *model.TestSpec) error
	Delete(id int64) error
	CountCases(specID int64) (int64, error)
}

type specRepository struct {
	db *gorm.DB
}

// NewSpecRepository 创建测试规格仓储实例
func NewSpecRepository(db *gorm.DB) SpecRepository {
	return &specRepository{db: db}
}

// Create 创建测试规格
func (r *specRepository) Create(spec *model.TestSpec) error {
	if err := r.db.Create(spec).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建测试规格失败", err)
	}
	return nil
}

// FindByID 根据ID查询测试规格
func (r *specRepository) FindByID(id int64, opts ...QueryOption) (*model.TestSpec, error) {
	var spec model.TestSpec
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&spec, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试规格失败", err)
	}
	return &spec, nil
}

// List 分页查询测试规格列表
func (r *specRepository) List(page, pageSize int, customerID *int64, module, category *string, keyword string) ([]*model.TestSpec, int64, error) {
	var specs []*model.TestSpec
	var total int64

	query := r.db.Model(&model.TestSpec{})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if module != nil && *module != "" {
		query = query.Where("module = ?", *module)
	}
	if category != nil && *category != "" {
		query = query.Where("category = ?", *category)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR description LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计测试规格失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&specs).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试规格列表失败", err)
	}
	return specs, total, nil
}

// Update 更新测试规格
func (r *specRepository) Update(spec *model.TestSpec) error {
	if err := r.db.Save(spec).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新测试规格失败", err)
	}
	return nil
}

// Delete 删除测试规格
func (r *specRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.TestSpec{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除测试规格失败", err)
	}
	return nil
}

// CountCases 统计规格已生成的用例数
func (r *specRepository) CountCases(specID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.TestCase{}).Where("spec_id = ?", specID).Count(&count).Error
	if err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计规格用例失败", err)
	}
	return count, nil
}

// TestCaseRepository 测试用例仓储接口
type TestCaseRepository interface {
	Create(testCase *model.TestCase) error
	CreateBatch(cases []*model.TestCase) error
	CreateSteps(steps []*model.TestStep) error
	FindByID(id int64, opts ...QueryOption) (*model.TestCase, error)
	FindByIDs(ids []int64) ([]*model.TestCase, error)
	List(page, pageSize int, customerID, suiteID *int64, category, generationSource, lastStatus *string, keyword string) ([]*model.TestCase, int64, error)
	ListBySuiteID(suiteID int64) ([]*model.TestCase, error)
	ExistingNames(customerID int64, names []string) (map[string]int64, error)
	Update(testCase *model.TestCase) error
	AssignToSuite(caseIDs []int64, suiteID int64) error
	UpdateLastStatus(id int64, status string, runAt time.Time) error
	Delete(id int64) error
}

type testCaseRepository struct {
	db *gorm.DB
}

// NewTestCaseRepository 创建测试用例仓储实例
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

// Create 创建测试用例
func (r *testCaseRepository) Create(testCase *model.TestCase) error {
	if err := r.db.Create(testCase).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建测试用例失败", err)
	}
	return nil
}

// CreateBatch 批量创建测试用例(含步骤)
func (r *testCaseRepository) CreateBatch(cases []*model.TestCase) error {
	if len(cases) == 0 {
		return nil
	}
	if err := r.db.Create(&cases).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "批量创建测试用例失败", err)
	}
	return nil
}

// CreateSteps 批量创建测试步骤
func (r *testCaseRepository) CreateSteps(steps []*model.TestStep) error {
	if len(steps) == 0 {
		return nil
	}
	if err := r.db.Create(&steps).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "批量创建测试步骤失败", err)
	}
	return nil
}

// FindByID 根据ID查询测试用例
func (r *testCaseRepository) FindByID(id int64, opts ...QueryOption) (*model.TestCase, error) {
	var testCase model.TestCase
	query := r.db
	for _, opt := range opts {
		query = opt(query)
	}
	err := query.First(&testCase, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试用例失败", err)
	}
	return &testCase, nil
}

// FindByIDs 按ID集合查询测试用例
func (r *testCaseRepository) FindByIDs(ids []int64) ([]*model.TestCase, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cases []*model.TestCase
	if err := r.db.Where("id IN ?", ids).Find(&cases).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试用例集合失败", err)
	}
	return cases, nil
}

// List 分页查询测试用例列表
func (r *testCaseRepository) List(page, pageSize int, customerID, suiteID *int64,
	category, generationSource, lastStatus *string, keyword string) ([]*model.TestCase, int64, error) {

	var cases []*model.TestCase
	var total int64

	query := r.db.Model(&model.TestCase{})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	if suiteID != nil {
		query = query.Where("suite_id = ?", *suiteID)
	}
	if category != nil && *category != "" {
		query = query.Where("category = ?", *category)
	}
	if generationSource != nil && *generationSource != "" {
		query = query.Where("generation_source = ?", *generationSource)
	}
	if lastStatus != nil && *lastStatus != "" {
		query = query.Where("last_status = ?", *lastStatus)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR test_id LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计测试用例失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&cases).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询测试用例列表失败", err)
	}
	return cases, total, nil
}

// ListBySuiteID 查询套件内用例, 按套件内顺序
func (r *testCaseRepository) ListBySuiteID(suiteID int64) ([]*model.TestCase, error) {
	var cases []*model.TestCase
	err := r.db.Where("suite_id = ?", suiteID).
		Order("sequence, id").Find(&cases).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询套件用例失败", err)
	}
	return cases, nil
}

// ExistingNames 查询客户下已存在的用例名, 返回 name → id
func (r *testCaseRepository) ExistingNames(customerID int64, names []string) (map[string]int64, error) {
	if len(names) == 0 {
		return map[string]int64{}, nil
	}
	var cases []*model.TestCase
	err := r.db.Select("id", "name").
		Where("customer_id = ? AND name IN ?", customerID, names).
		Find(&cases).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询既有用例名失败", err)
	}
	out := make(map[string]int64, len(cases))
	for _, c := range cases {
		out[c.Name] = c.ID
	}
	return out, nil
}

// Update 更新测试用例
func (r *testCaseRepository) Update(testCase *model.TestCase) error {
	if err := r.db.Save(testCase).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新测试用例失败", err)
	}
	return nil
}

// AssignToSuite 批量改挂套件
func (r *testCaseRepository) AssignToSuite(caseIDs []int64, suiteID int64) error {
	err := r.db.Model(&model.TestCase{}).Where("id IN ?", caseIDs).
		Update("suite_id", suiteID).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "分配用例到套件失败", err)
	}
	return nil
}

// UpdateLastStatus 更新最近执行结果快照
func (r *testCaseRepository) UpdateLastStatus(id int64, status string, runAt time.Time) error {
	err := r.db.Model(&model.TestCase{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_status": status,
			"last_run_at": runAt,
		}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新用例最近状态失败", err)
	}
	return nil
}

// Delete 删除测试用例
func (r *testCaseRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_case_id = ?", id).Delete(&model.TestStep{}).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除测试步骤失败", err)
		}
		if err := tx.Delete(&model.TestCase{}, id).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除测试用例失败", err)
		}
		return nil
	})
}
