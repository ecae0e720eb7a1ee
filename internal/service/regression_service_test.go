package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/pkg/constants"
)

type regressionFixture struct {
	regRepo      *fakeRegressionRepo
	templateRepo *fakeTemplateRepo
	suiteRepo    *fakeSuiteRepo
	caseRepo     *fakeCaseRepo
	customerRepo *fakeCustomerRepo
	runSvc       *fakeRunService
	svc          RegressionService
}

func newRegressionFixture() *regressionFixture {
	f := &regressionFixture{
		regRepo:      newFakeRegressionRepo(),
		templateRepo: &fakeTemplateRepo{},
		suiteRepo:    newFakeSuiteRepo(),
		caseRepo:     newFakeCaseRepo(),
		customerRepo: newFakeCustomerRepo(),
		runSvc:       &fakeRunService{resp: &dto.RunResponse{ID: 100}},
	}
	f.svc = NewRegressionService(f.regRepo, f.templateRepo, f.suiteRepo,
		f.caseRepo, f.customerRepo, f.runSvc)
	_ = f.customerRepo.Create(&model.Customer{
		Code: "ACME", Name: "Acme GmbH", ERPVersion: "16.0",
	})
	return f
}

func (f *regressionFixture) seedRegression(modules ...string) *dto.RegressionResponse {
	resp, err := f.svc.Create(&dto.CreateRegressionRequest{
		CustomerID: 1,
		Name:       "核心流程回归",
		Modules:    modules,
	})
	if err != nil {
		panic(err)
	}
	return resp
}

func TestGenerateFromBuiltinTemplates(t *testing.T) {
	f := newRegressionFixture()
	// 扩展模块名归一到基础模块
	reg := f.seedRegression("sale_management")

	resp, err := f.svc.Generate(reg.ID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.GeneratedIDs)
	assert.Empty(t, resp.SkippedNames)
	assert.Empty(t, resp.MissingModule)

	// 首次实例化创建执行套件
	updated, err := f.regRepo.FindByID(reg.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.SuiteID)
	assert.Equal(t, resp.SuiteID, *updated.SuiteID)

	suite, err := f.suiteRepo.FindByID(resp.SuiteID)
	require.NoError(t, err)
	assert.Contains(t, suite.Name, "回归套件")

	cases, err := f.caseRepo.ListBySuiteID(resp.SuiteID)
	require.NoError(t, err)
	require.Len(t, cases, len(resp.GeneratedIDs))
	for _, tc := range cases {
		// 用例名带客户编码后缀, 脚本参数已替换
		assert.True(t, strings.HasSuffix(tc.Name, " - ACME"), tc.Name)
		assert.Equal(t, constants.GenSourceRegression, tc.GenerationSource)
		assert.True(t, strings.HasPrefix(tc.TestID, "REG_ACME_"), tc.TestID)
		assert.NotContains(t, tc.RobotCode, "${CUSTOMER_NAME}")
		// 未提供的占位符保留给Robot运行期变量
		assert.Contains(t, tc.RobotCode, "${USERNAME}")
	}
}

func TestGenerateIdempotent(t *testing.T) {
	f := newRegressionFixture()
	reg := f.seedRegression("sale")

	first, err := f.svc.Generate(reg.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.GeneratedIDs)

	// 重复生成: 同名用例全部跳过, 只增不删
	second, err := f.svc.Generate(reg.ID)
	require.NoError(t, err)
	assert.Empty(t, second.GeneratedIDs)
	assert.Len(t, second.SkippedNames, len(first.GeneratedIDs))
	assert.Equal(t, first.SuiteID, second.SuiteID)
}

func TestGenerateMissingModule(t *testing.T) {
	f := newRegressionFixture()
	reg := f.seedRegression("sale", "holiday_booking")

	resp, err := f.svc.Generate(reg.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.GeneratedIDs)
	assert.Equal(t, []string{"holiday_booking"}, resp.MissingModule)
}

func TestGenerateNoModules(t *testing.T) {
	f := newRegressionFixture()
	reg := f.seedRegression()

	_, err := f.svc.Generate(reg.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未选择任何模块")
}

func TestGenerateDatabaseOverride(t *testing.T) {
	f := newRegressionFixture()
	require.NoError(t, f.templateRepo.Create(&model.RegressionTemplate{
		Module:    "sale",
		Name:      "Customised Discount Flow",
		Category:  "workflow",
		Tags:      model.StringList{"sales", "custom"},
		RobotCode: "Login To Odoo\nVerify Discount For ${CUSTOMER_CODE}",
	}))
	reg := f.seedRegression("sale")

	resp, err := f.svc.Generate(reg.ID)
	require.NoError(t, err)
	// 数据库覆盖优先, 内置sale模板不再使用
	require.Len(t, resp.GeneratedIDs, 1)

	cases, err := f.caseRepo.ListBySuiteID(resp.SuiteID)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Customised Discount Flow - ACME", cases[0].Name)
	assert.Contains(t, cases[0].RobotCode, "Verify Discount For ACME")
}

func TestRunRegression(t *testing.T) {
	f := newRegressionFixture()
	ctx := context.Background()

	t.Run("未实例化不可执行", func(t *testing.T) {
		reg := f.seedRegression("sale")
		_, err := f.svc.Run(ctx, reg.ID, nil, "qa-lead")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "尚未实例化")
	})

	t.Run("委托套件执行", func(t *testing.T) {
		reg := f.seedRegression("sale")
		gen, err := f.svc.Generate(reg.ID)
		require.NoError(t, err)

		serverID := int64(5)
		resp, err := f.svc.Run(ctx, reg.ID, &dto.RunRegressionRequest{
			ServerID:   &serverID,
			RunnerType: constants.RunnerTypeSSH,
		}, "qa-lead")
		require.NoError(t, err)
		assert.Equal(t, int64(100), resp.ID)
		assert.Equal(t, gen.SuiteID, f.runSvc.lastSuiteID)
		require.NotNil(t, f.runSvc.lastReq)
		assert.Equal(t, &serverID, f.runSvc.lastReq.ServerID)
		assert.Equal(t, constants.RunnerTypeSSH, f.runSvc.lastReq.RunnerType)
	})
}
