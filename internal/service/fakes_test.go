package service

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"qa-platform/internal/adapter/notification"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

func TestMain(m *testing.M) {
	config.GlobalConfig = &config.Config{
		Crypto: config.CryptoConfig{AESKey: "0123456789abcdef0123456789abcdef"},
	}
	os.Exit(m.Run())
}

// 内存版仓储, 覆盖服务层测试需要的行为

type fakeRunRepo struct {
	mu     sync.Mutex
	nextID int64
	runs   map[int64]*model.TestRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: map[int64]*model.TestRun{}}
}

func (f *fakeRunRepo) Create(run *model.TestRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	run.ID = f.nextID
	run.CreatedAt = time.Now()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.TestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return run, nil
}

func (f *fakeRunRepo) FindByCIBuildNumber(buildNumber int) (*model.TestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.TestRun
	for _, run := range f.runs {
		if run.CIBuildNumber != nil && *run.CIBuildNumber == buildNumber {
			if found == nil || run.ID > found.ID {
				found = run
			}
		}
	}
	if found == nil {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return found, nil
}

func (f *fakeRunRepo) List(int, int, *int64, *int64, *int8, *string, string) ([]*model.TestRun, int64, error) {
	return nil, 0, nil
}

func (f *fakeRunRepo) ListRunningBefore(threshold time.Time) ([]*model.TestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestRun
	for _, run := range f.runs {
		if run.Status == constants.RunStatusRunning && run.StartedAt != nil && run.StartedAt.Before(threshold) {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRunRepo) ListCompletedBySuite(suiteID int64, limit int) ([]*model.TestRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestRun
	for _, run := range f.runs {
		if run.SuiteID != suiteID {
			continue
		}
		switch run.Status {
		case constants.RunStatusPassed, constants.RunStatusFailed, constants.RunStatusError:
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRunRepo) Update(run *model.TestRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRunRepo) UpdateStatus(id int64, status int8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	run.Status = status
	return nil
}

func (f *fakeRunRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, id)
	return nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	nextID  int64
	results map[int64]map[string]*model.TestResult // runID -> caseName
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: map[int64]map[string]*model.TestResult{}}
}

func (f *fakeResultRepo) Upsert(result *model.TestResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byName, ok := f.results[result.RunID]
	if !ok {
		byName = map[string]*model.TestResult{}
		f.results[result.RunID] = byName
	}
	if existing, ok := byName[result.CaseName]; ok {
		result.ID = existing.ID
	} else {
		f.nextID++
		result.ID = f.nextID
	}
	byName[result.CaseName] = result
	return nil
}

func (f *fakeResultRepo) ListByRunID(runID int64) ([]*model.TestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestResult
	for _, res := range f.results[runID] {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeResultRepo) CountOrphans(runID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, res := range f.results[runID] {
		if res.Orphan {
			count++
		}
	}
	return count, nil
}

func (f *fakeResultRepo) LatestByCaseIDs(caseIDs []int64) (map[int64]*model.TestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[int64]bool{}
	for _, id := range caseIDs {
		wanted[id] = true
	}
	latest := map[int64]*model.TestResult{}
	for _, byName := range f.results {
		for _, res := range byName {
			if res.TestCaseID == nil || !wanted[*res.TestCaseID] {
				continue
			}
			if cur, ok := latest[*res.TestCaseID]; !ok || res.ID > cur.ID {
				latest[*res.TestCaseID] = res
			}
		}
	}
	return latest, nil
}

type fakeCaseRepo struct {
	mu     sync.Mutex
	nextID int64
	cases  map[int64]*model.TestCase
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: map[int64]*model.TestCase{}}
}

func (f *fakeCaseRepo) Create(testCase *model.TestCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	testCase.ID = f.nextID
	f.cases[testCase.ID] = testCase
	return nil
}

func (f *fakeCaseRepo) CreateBatch(cases []*model.TestCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tc := range cases {
		f.nextID++
		tc.ID = f.nextID
		f.cases[tc.ID] = tc
	}
	return nil
}

func (f *fakeCaseRepo) CreateSteps([]*model.TestStep) error { return nil }

func (f *fakeCaseRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.TestCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.cases[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return tc, nil
}

func (f *fakeCaseRepo) FindByIDs(ids []int64) ([]*model.TestCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestCase
	for _, id := range ids {
		if tc, ok := f.cases[id]; ok {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (f *fakeCaseRepo) List(int, int, *int64, *int64, *string, *string, *string, string) ([]*model.TestCase, int64, error) {
	return nil, 0, nil
}

func (f *fakeCaseRepo) ListBySuiteID(suiteID int64) ([]*model.TestCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestCase
	for _, tc := range f.cases {
		if tc.SuiteID != nil && *tc.SuiteID == suiteID {
			out = append(out, tc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCaseRepo) ExistingNames(customerID int64, names []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}
	out := map[string]int64{}
	for _, tc := range f.cases {
		if tc.CustomerID == customerID && wanted[tc.Name] {
			out[tc.Name] = tc.ID
		}
	}
	return out, nil
}

func (f *fakeCaseRepo) Update(testCase *model.TestCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cases[testCase.ID] = testCase
	return nil
}

func (f *fakeCaseRepo) AssignToSuite(caseIDs []int64, suiteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range caseIDs {
		if tc, ok := f.cases[id]; ok {
			sid := suiteID
			tc.SuiteID = &sid
		}
	}
	return nil
}

func (f *fakeCaseRepo) UpdateLastStatus(id int64, status string, runAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.cases[id]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	tc.LastStatus = status
	tc.LastRunAt = &runAt
	return nil
}

func (f *fakeCaseRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cases, id)
	return nil
}

type fakeRegressionRepo struct {
	mu     sync.Mutex
	nextID int64
	regs   map[int64]*model.RegressionSuite
}

func newFakeRegressionRepo() *fakeRegressionRepo {
	return &fakeRegressionRepo{regs: map[int64]*model.RegressionSuite{}}
}

func (f *fakeRegressionRepo) Create(reg *model.RegressionSuite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	reg.ID = f.nextID
	f.regs[reg.ID] = reg
	return nil
}

func (f *fakeRegressionRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.RegressionSuite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return reg, nil
}

func (f *fakeRegressionRepo) FindBySuiteID(suiteID int64) (*model.RegressionSuite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.SuiteID != nil && *reg.SuiteID == suiteID {
			return reg, nil
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func (f *fakeRegressionRepo) List(int, int, *int64, string, *int8) ([]*model.RegressionSuite, int64, error) {
	return nil, 0, nil
}

func (f *fakeRegressionRepo) Update(reg *model.RegressionSuite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[reg.ID] = reg
	return nil
}

func (f *fakeRegressionRepo) UpdateRunStats(id int64, runDate time.Time, result string, passRate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	reg.LastRunDate = &runDate
	reg.LastRunResult = result
	reg.PassRate = passRate
	return nil
}

func (f *fakeRegressionRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.regs, id)
	return nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates []*model.RegressionTemplate
}

func (f *fakeTemplateRepo) ListByModule(module string) ([]*model.RegressionTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.RegressionTemplate
	for _, tpl := range f.templates {
		if tpl.Module == module {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (f *fakeTemplateRepo) ListAll() ([]*model.RegressionTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.templates, nil
}

func (f *fakeTemplateRepo) Create(tpl *model.RegressionTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tpl.ID = int64(len(f.templates) + 1)
	f.templates = append(f.templates, tpl)
	return nil
}

func (f *fakeTemplateRepo) Update(*model.RegressionTemplate) error { return nil }
func (f *fakeTemplateRepo) Delete(int64) error                     { return nil }

type fakeRequirementRepo struct {
	mu     sync.Mutex
	nextID int64
	reqs   map[int64]*model.Requirement
}

func newFakeRequirementRepo() *fakeRequirementRepo {
	return &fakeRequirementRepo{reqs: map[int64]*model.Requirement{}}
}

func (f *fakeRequirementRepo) Create(req *model.Requirement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	f.reqs[req.ID] = req
	return nil
}

func (f *fakeRequirementRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.reqs[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return req, nil
}

func (f *fakeRequirementRepo) FindByCode(customerID int64, code string) (*model.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.reqs {
		if req.CustomerID == customerID && req.Code == code {
			return req, nil
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func (f *fakeRequirementRepo) List(int, int, *int64, *int8, *string, string) ([]*model.Requirement, int64, error) {
	return nil, 0, nil
}

func (f *fakeRequirementRepo) Update(req *model.Requirement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs[req.ID] = req
	return nil
}

func (f *fakeRequirementRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reqs, id)
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[int64]*model.Customer{}}
}

func (f *fakeCustomerRepo) Create(customer *model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	customer.ID = f.nextID
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return customer, nil
}

func (f *fakeCustomerRepo) FindByCode(code string) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, customer := range f.customers {
		if customer.Code == code {
			return customer, nil
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func (f *fakeCustomerRepo) List(int, int, string, *int8, bool) ([]*model.Customer, int64, error) {
	return nil, 0, nil
}

func (f *fakeCustomerRepo) ListActive() ([]*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Customer
	for _, customer := range f.customers {
		out = append(out, customer)
	}
	return out, nil
}

func (f *fakeCustomerRepo) Update(customer *model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.customers, id)
	return nil
}

type fakeServerRepo struct {
	mu      sync.Mutex
	nextID  int64
	servers map[int64]*model.Server
}

func newFakeServerRepo() *fakeServerRepo {
	return &fakeServerRepo{servers: map[int64]*model.Server{}}
}

func (f *fakeServerRepo) Create(server *model.Server) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	server.ID = f.nextID
	f.servers[server.ID] = server
	return nil
}

func (f *fakeServerRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	server, ok := f.servers[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return server, nil
}

func (f *fakeServerRepo) List(int, int, *int64, *string, string, *int8) ([]*model.Server, int64, error) {
	return nil, 0, nil
}

func (f *fakeServerRepo) ListByCustomerID(customerID int64) ([]*model.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Server
	for _, server := range f.servers {
		if server.CustomerID == customerID {
			out = append(out, server)
		}
	}
	return out, nil
}

func (f *fakeServerRepo) Update(server *model.Server) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servers[server.ID] = server
	return nil
}

func (f *fakeServerRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.servers, id)
	return nil
}

type fakeSuiteRepo struct {
	mu     sync.Mutex
	nextID int64
	suites map[int64]*model.TestSuite
}

func newFakeSuiteRepo() *fakeSuiteRepo {
	return &fakeSuiteRepo{suites: map[int64]*model.TestSuite{}}
}

func (f *fakeSuiteRepo) Create(suite *model.TestSuite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	suite.ID = f.nextID
	f.suites[suite.ID] = suite
	return nil
}

func (f *fakeSuiteRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.TestSuite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	suite, ok := f.suites[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return suite, nil
}

func (f *fakeSuiteRepo) FindDefault(customerID int64) (*model.TestSuite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, suite := range f.suites {
		if suite.CustomerID == customerID && suite.IsDefault {
			return suite, nil
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func (f *fakeSuiteRepo) List(int, int, *int64, *bool, string, *int8) ([]*model.TestSuite, int64, error) {
	return nil, 0, nil
}

func (f *fakeSuiteRepo) ListScheduled() ([]*model.TestSuite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TestSuite
	for _, suite := range f.suites {
		if suite.ScheduleCron != "" {
			out = append(out, suite)
		}
	}
	return out, nil
}

func (f *fakeSuiteRepo) Update(suite *model.TestSuite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suites[suite.ID] = suite
	return nil
}

func (f *fakeSuiteRepo) ClearDefault(customerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, suite := range f.suites {
		if suite.CustomerID == customerID {
			suite.IsDefault = false
		}
	}
	return nil
}

func (f *fakeSuiteRepo) CountCases(int64) (int64, error) { return 0, nil }

func (f *fakeSuiteRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.suites, id)
	return nil
}

type fakeHealthRepo struct {
	mu     sync.Mutex
	nextID int64
	logID  int64
	checks map[int64]*model.HealthCheck
	logs   map[int64][]*model.HealthCheckLog // 新→旧
}

func newFakeHealthRepo() *fakeHealthRepo {
	return &fakeHealthRepo{
		checks: map[int64]*model.HealthCheck{},
		logs:   map[int64][]*model.HealthCheckLog{},
	}
}

func (f *fakeHealthRepo) Create(check *model.HealthCheck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	check.ID = f.nextID
	f.checks[check.ID] = check
	return nil
}

func (f *fakeHealthRepo) FindByID(id int64, _ ...repository.QueryOption) (*model.HealthCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	check, ok := f.checks[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return check, nil
}

func (f *fakeHealthRepo) List(int, int, *int64, *string, *string, string, *int8) ([]*model.HealthCheck, int64, error) {
	return nil, 0, nil
}

func (f *fakeHealthRepo) ListDue(now time.Time) ([]*model.HealthCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.HealthCheck
	for _, check := range f.checks {
		if check.Status != constants.StatusEnabled {
			continue
		}
		if check.LastRunAt == nil ||
			now.Sub(*check.LastRunAt) >= time.Duration(check.IntervalMinutes)*time.Minute {
			out = append(out, check)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeHealthRepo) ListActive() ([]*model.HealthCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.HealthCheck
	for _, check := range f.checks {
		if check.Status == constants.StatusEnabled {
			out = append(out, check)
		}
	}
	return out, nil
}

func (f *fakeHealthRepo) Update(check *model.HealthCheck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[check.ID] = check
	return nil
}

func (f *fakeHealthRepo) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.checks, id)
	delete(f.logs, id)
	return nil
}

func (f *fakeHealthRepo) CreateLog(log *model.HealthCheckLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logID++
	log.ID = f.logID
	log.CreatedAt = time.Now()
	f.logs[log.HealthCheckID] = append([]*model.HealthCheckLog{log}, f.logs[log.HealthCheckID]...)
	return nil
}

func (f *fakeHealthRepo) ListLogs(healthCheckID int64, limit int) ([]*model.HealthCheckLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	logs := f.logs[healthCheckID]
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (f *fakeHealthRepo) PruneLogs(healthCheckID int64, keep int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if logs := f.logs[healthCheckID]; len(logs) > keep {
		f.logs[healthCheckID] = logs[:keep]
	}
	return nil
}

// stubNotifier 记录发出的告警与恢复通知
type stubNotifier struct {
	mu        sync.Mutex
	alerts    []string
	recovered []string
}

func (n *stubNotifier) Send(context.Context, *notification.NotificationMessage) error { return nil }

func (n *stubNotifier) SendHealthAlert(_ context.Context, _, checkName, _, _ string, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, checkName)
	return nil
}

func (n *stubNotifier) SendHealthRecovered(_ context.Context, _, checkName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recovered = append(n.recovered, checkName)
	return nil
}

// fakeRunService 记录回归触发的套件执行
type fakeRunService struct {
	lastSuiteID int64
	lastReq     *dto.RunSuiteRequest
	resp        *dto.RunResponse
	err         error
}

func (f *fakeRunService) Run(_ context.Context, suiteID int64, req *dto.RunSuiteRequest, _, _ string) (*dto.RunResponse, error) {
	f.lastSuiteID = suiteID
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeRunService) GetByID(int64) (*dto.RunResponse, error) { return nil, nil }
func (f *fakeRunService) List(*dto.RunListQuery) ([]*dto.RunResponse, int64, error) {
	return nil, 0, nil
}
func (f *fakeRunService) Results(int64) ([]*dto.TestResultResponse, error)     { return nil, nil }
func (f *fakeRunService) Cancel(context.Context, int64) (*dto.RunResponse, error) { return nil, nil }
func (f *fakeRunService) Delete(int64) error                                   { return nil }
func (f *fakeRunService) MarkStuckRuns(time.Duration) (int, error)             { return 0, nil }
