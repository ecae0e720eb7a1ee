package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"qa-platform/internal/adapter/dbexec"
	"qa-platform/internal/adapter/notification"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// 每个检查保留的历史条数
const healthLogKeep = 100

// HealthService 环境健康检查服务接口
// 每种类型一个探测执行器, 连续失败到阈值告警一次, 恢复ok后重新武装
type HealthService interface {
	Create(req *dto.CreateHealthCheckRequest) (*dto.HealthCheckResponse, error)
	Update(req *dto.UpdateHealthCheckRequest) (*dto.HealthCheckResponse, error)
	GetByID(id int64) (*dto.HealthCheckResponse, error)
	List(query *dto.HealthCheckListQuery) ([]*dto.HealthCheckResponse, int64, error)
	Delete(id int64) error

	// RunCheck 立即执行一次检查
	RunCheck(ctx context.Context, id int64) (*dto.HealthCheckResponse, error)
	// RunDueChecks 执行全部到期检查, 单个失败不影响其它检查
	RunDueChecks(ctx context.Context) int
	// Rebaseline 清除结构基线并重新采集
	Rebaseline(ctx context.Context, id int64) (*dto.HealthCheckResponse, error)
	// ListLogs 查询检查历史, 新→旧
	ListLogs(id int64, limit int) ([]*dto.HealthCheckLogResponse, error)
}

type healthService struct {
	healthRepo   repository.HealthCheckRepository
	customerRepo repository.CustomerRepository
	serverRepo   repository.ServerRepository
	executor     dbexec.Executor
	notifier     notification.Notifier
	httpClient   *http.Client
}

// NewHealthService 创建健康检查服务实例
func NewHealthService(
	healthRepo repository.HealthCheckRepository,
	customerRepo repository.CustomerRepository,
	serverRepo repository.ServerRepository,
	executor dbexec.Executor,
	notifier notification.Notifier,
) HealthService {
	return &healthService{
		healthRepo:   healthRepo,
		customerRepo: customerRepo,
		serverRepo:   serverRepo,
		executor:     executor,
		notifier:     notifier,
		httpClient:   &http.Client{},
	}
}

// 各检查类型的配置载荷

type integrationConfig struct {
	URL            string `json:"url"`
	Method         string `json:"method"`          // GET/POST/HEAD, 默认GET
	ExpectedStatus int    `json:"expected_status"` // 默认200
	TimeoutSeconds int    `json:"timeout_seconds"` // 默认30
	AuthHeader     string `json:"auth_header"`
}

type integrityConfig struct {
	SQL           string `json:"sql"`
	Expect        string `json:"expect"` // zero/nonzero/specific
	ExpectedValue string `json:"expected_value"`
}

type structuralConfig struct {
	ModelName string `json:"model_name"`
}

type cronJobConfig struct {
	CronName    string  `json:"cron_name"`
	MaxAgeHours float64 `json:"max_age_hours"` // 默认24
}

type customConfig struct {
	Command string `json:"command"`
}

// checkResult 单次探测结论
type checkResult struct {
	Status  string
	Message string
	Value   string
}

// Create 创建健康检查
func (s *healthService) Create(req *dto.CreateHealthCheckRequest) (*dto.HealthCheckResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}
	if req.ServerID != nil {
		server, err := s.serverRepo.FindByID(*req.ServerID)
		if err != nil {
			return nil, err
		}
		if server.CustomerID != req.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "环境与检查不属于同一客户")
		}
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "检查配置不是合法的JSON")
	}

	check := &model.HealthCheck{
		CustomerID:         req.CustomerID,
		ServerID:           req.ServerID,
		Name:               req.Name,
		CheckType:          req.CheckType,
		Config:             datatypes.JSON(req.Config),
		IntervalMinutes:    60,
		LastStatus:         constants.HealthStatusUnknown,
		AlertAfterFailures: constants.DefaultAlertAfterFailures,
	}
	check.Status = constants.StatusEnabled
	if req.IntervalMinutes != nil {
		check.IntervalMinutes = *req.IntervalMinutes
	}
	if req.AlertAfterFailures != nil {
		check.AlertAfterFailures = *req.AlertAfterFailures
	}

	if err := s.healthRepo.Create(check); err != nil {
		return nil, err
	}
	return toHealthCheckResponse(check), nil
}

// Update 更新健康检查
func (s *healthService) Update(req *dto.UpdateHealthCheckRequest) (*dto.HealthCheckResponse, error) {
	check, err := s.healthRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		check.Name = *req.Name
	}
	if req.ServerID != nil {
		server, err := s.serverRepo.FindByID(*req.ServerID)
		if err != nil {
			return nil, err
		}
		if server.CustomerID != check.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "环境与检查不属于同一客户")
		}
		check.ServerID = req.ServerID
	}
	if len(req.Config) > 0 {
		if !json.Valid(req.Config) {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "检查配置不是合法的JSON")
		}
		check.Config = datatypes.JSON(req.Config)
	}
	if req.IntervalMinutes != nil {
		check.IntervalMinutes = *req.IntervalMinutes
	}
	if req.AlertAfterFailures != nil {
		check.AlertAfterFailures = *req.AlertAfterFailures
	}
	if req.Status != nil {
		check.Status = *req.Status
	}

	if err := s.healthRepo.Update(check); err != nil {
		return nil, err
	}
	return toHealthCheckResponse(check), nil
}

// GetByID 查询健康检查详情
func (s *healthService) GetByID(id int64) (*dto.HealthCheckResponse, error) {
	check, err := s.healthRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	return toHealthCheckResponse(check), nil
}

// List 分页查询健康检查
func (s *healthService) List(query *dto.HealthCheckListQuery) ([]*dto.HealthCheckResponse, int64, error) {
	checks, total, err := s.healthRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.CheckType, query.LastStatus, query.Keyword, nil)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.HealthCheckResponse, 0, len(checks))
	for _, check := range checks {
		resp = append(resp, toHealthCheckResponse(check))
	}
	return resp, total, nil
}

// Delete 删除健康检查及历史
func (s *healthService) Delete(id int64) error {
	if _, err := s.healthRepo.FindByID(id); err != nil {
		return err
	}
	return s.healthRepo.Delete(id)
}

// RunCheck 立即执行一次检查
func (s *healthService) RunCheck(ctx context.Context, id int64) (*dto.HealthCheckResponse, error) {
	check, err := s.healthRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, check); err != nil {
		return nil, err
	}
	return toHealthCheckResponse(check), nil
}

// RunDueChecks 执行全部到期检查
func (s *healthService) RunDueChecks(ctx context.Context) int {
	checks, err := s.healthRepo.ListDue(time.Now())
	if err != nil {
		logger.Error("查询到期健康检查失败", zap.Error(err))
		return 0
	}

	executed := 0
	for _, check := range checks {
		if err := s.execute(ctx, check); err != nil {
			logger.Error("执行健康检查失败",
				zap.Int64("check_id", check.ID),
				zap.String("name", check.Name),
				zap.Error(err))
			continue
		}
		executed++
	}
	return executed
}

// Rebaseline 清除结构基线并重新采集
func (s *healthService) Rebaseline(ctx context.Context, id int64) (*dto.HealthCheckResponse, error) {
	check, err := s.healthRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	if check.CheckType != constants.HealthTypeStructural {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "仅结构检查支持重置基线")
	}

	check.Baseline = nil
	check.BaselineDate = nil
	if err := s.execute(ctx, check); err != nil {
		return nil, err
	}
	return toHealthCheckResponse(check), nil
}

// ListLogs 查询检查历史
func (s *healthService) ListLogs(id int64, limit int) ([]*dto.HealthCheckLogResponse, error) {
	if _, err := s.healthRepo.FindByID(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > healthLogKeep {
		limit = healthLogKeep
	}
	logs, err := s.healthRepo.ListLogs(id, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.HealthCheckLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, &dto.HealthCheckLogResponse{
			ID:        log.ID,
			Status:    log.Status,
			Message:   log.Message,
			Value:     log.Value,
			Duration:  log.Duration,
			CreatedAt: log.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// execute 执行探测并落库: 状态快照/连续失败计数/告警/历史
func (s *healthService) execute(ctx context.Context, check *model.HealthCheck) error {
	started := time.Now()
	result := s.probe(ctx, check)
	duration := time.Since(started).Seconds()

	previousFailures := check.ConsecutiveFailures
	if result.Status == constants.HealthStatusOK {
		if check.Alerted {
			if err := s.notifier.SendHealthRecovered(ctx, s.customerName(check), check.Name); err != nil {
				logger.Warn("发送恢复通知失败", zap.Int64("check_id", check.ID), zap.Error(err))
			}
		}
		check.ConsecutiveFailures = 0
		check.Alerted = false
	} else {
		check.ConsecutiveFailures = previousFailures + 1
		// 阈值处告警一次, 恢复ok前不重复
		if !check.Alerted && check.ConsecutiveFailures >= check.AlertAfterFailures {
			err := s.notifier.SendHealthAlert(ctx, s.customerName(check), check.Name,
				result.Status, result.Message, check.ConsecutiveFailures)
			if err != nil {
				logger.Warn("发送告警通知失败", zap.Int64("check_id", check.ID), zap.Error(err))
			}
			check.Alerted = true
		}
	}

	now := time.Now()
	check.LastStatus = result.Status
	check.LastMessage = result.Message
	check.LastValue = result.Value
	check.LastRunAt = &now
	if err := s.healthRepo.Update(check); err != nil {
		return err
	}

	if err := s.healthRepo.CreateLog(&model.HealthCheckLog{
		HealthCheckID: check.ID,
		Status:        result.Status,
		Message:       result.Message,
		Value:         result.Value,
		Duration:      duration,
	}); err != nil {
		logger.Warn("写入健康检查历史失败", zap.Int64("check_id", check.ID), zap.Error(err))
	}
	if err := s.healthRepo.PruneLogs(check.ID, healthLogKeep); err != nil {
		logger.Warn("清理健康检查历史失败", zap.Int64("check_id", check.ID), zap.Error(err))
	}

	logger.Info("健康检查完成",
		zap.Int64("check_id", check.ID),
		zap.String("name", check.Name),
		zap.String("status", result.Status),
		zap.Int("consecutive_failures", check.ConsecutiveFailures))
	return nil
}

// probe 分发到类型执行器, 执行器异常归并为critical
func (s *healthService) probe(ctx context.Context, check *model.HealthCheck) checkResult {
	switch check.CheckType {
	case constants.HealthTypeIntegration:
		return s.checkIntegration(ctx, check)
	case constants.HealthTypeDataIntegrity:
		return s.checkDataIntegrity(ctx, check)
	case constants.HealthTypeStructural:
		return s.checkStructural(ctx, check)
	case constants.HealthTypeCronJob:
		return s.checkCronJob(ctx, check)
	case constants.HealthTypeCustom:
		return s.checkCustom(ctx, check)
	default:
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "未知的检查类型: " + check.CheckType,
		}
	}
}

// checkIntegration HTTP探活, 比对响应状态码
func (s *healthService) checkIntegration(ctx context.Context, check *model.HealthCheck) checkResult {
	var cfg integrationConfig
	if err := json.Unmarshal(check.Config, &cfg); err != nil || cfg.URL == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "未配置探活地址"}
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.ExpectedStatus == 0 {
		cfg.ExpectedStatus = http.StatusOK
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, cfg.URL, nil)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "构建探活请求失败: " + err.Error()}
	}
	if cfg.AuthHeader != "" {
		req.Header.Set("Authorization", cfg.AuthHeader)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "探活请求失败: " + err.Error()}
	}
	defer resp.Body.Close()

	value := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode == cfg.ExpectedStatus {
		return checkResult{
			Status:  constants.HealthStatusOK,
			Message: fmt.Sprintf("状态码 %d 正常", resp.StatusCode),
			Value:   value,
		}
	}
	return checkResult{
		Status:  constants.HealthStatusCritical,
		Message: fmt.Sprintf("期望状态码 %d, 实际 %d", cfg.ExpectedStatus, resp.StatusCode),
		Value:   value,
	}
}

// checkDataIntegrity 在目标环境执行SQL, 按期望方式判定行数
func (s *healthService) checkDataIntegrity(ctx context.Context, check *model.HealthCheck) checkResult {
	var cfg integrityConfig
	if err := json.Unmarshal(check.Config, &cfg); err != nil || cfg.SQL == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "未配置检查SQL"}
	}
	target, res := s.resolveTarget(check)
	if res != nil {
		return *res
	}

	output, err := s.executor.Query(ctx, target, cfg.SQL)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "执行检查SQL失败: " + err.Error()}
	}
	value := firstLine(output)
	count, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "检查SQL未返回数值: " + value,
			Value:   value,
		}
	}

	switch cfg.Expect {
	case constants.IntegrityExpectNonzero:
		if count > 0 {
			return checkResult{Status: constants.HealthStatusOK, Message: fmt.Sprintf("存在 %s 条记录", value), Value: value}
		}
		return checkResult{Status: constants.HealthStatusWarning, Message: "期望存在记录但查询为空", Value: value}
	case constants.IntegrityExpectSpecific:
		if value == cfg.ExpectedValue {
			return checkResult{Status: constants.HealthStatusOK, Message: "结果与期望一致: " + value, Value: value}
		}
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: fmt.Sprintf("期望 %s, 实际 %s", cfg.ExpectedValue, value),
			Value:   value,
		}
	default: // zero
		if count == 0 {
			return checkResult{Status: constants.HealthStatusOK, Message: "未发现异常记录", Value: value}
		}
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: fmt.Sprintf("发现 %s 条异常记录", value),
			Value:   value,
		}
	}
}

// checkStructural 读取模型字段结构并与基线比对, 检出定制篡改
// 无基线时采集为基线, 比对差异仅告警不更新基线
func (s *healthService) checkStructural(ctx context.Context, check *model.HealthCheck) checkResult {
	var cfg structuralConfig
	if err := json.Unmarshal(check.Config, &cfg); err != nil || cfg.ModelName == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "未配置监控模型"}
	}
	target, res := s.resolveTarget(check)
	if res != nil {
		return *res
	}

	query := fmt.Sprintf(
		"SELECT name, ttype, required FROM ir_model_fields WHERE model = '%s' ORDER BY name",
		strings.ReplaceAll(cfg.ModelName, "'", "''"))
	output, err := s.executor.Query(ctx, target, query)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "读取模型结构失败: " + err.Error()}
	}

	current := parseFieldRows(output)
	if len(current) == 0 {
		return checkResult{Status: constants.HealthStatusCritical, Message: "模型不存在或没有字段: " + cfg.ModelName}
	}

	if len(check.Baseline) == 0 {
		data, err := json.Marshal(current)
		if err != nil {
			return checkResult{Status: constants.HealthStatusCritical, Message: "序列化基线失败: " + err.Error()}
		}
		now := time.Now()
		check.Baseline = data
		check.BaselineDate = &now
		return checkResult{
			Status:  constants.HealthStatusOK,
			Message: "基线已采集",
			Value:   fmt.Sprintf("%d fields", len(current)),
		}
	}

	var baseline map[string]string
	if err := json.Unmarshal(check.Baseline, &baseline); err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "解析基线失败: " + err.Error()}
	}

	added, removed, modified := diffFields(baseline, current)
	if len(added) == 0 && len(removed) == 0 && len(modified) == 0 {
		return checkResult{Status: constants.HealthStatusOK, Message: "结构未变化", Value: "unchanged"}
	}

	var changes []string
	if len(added) > 0 {
		changes = append(changes, "新增: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		changes = append(changes, "删除: "+strings.Join(removed, ", "))
	}
	if len(modified) > 0 {
		changes = append(changes, "变更: "+strings.Join(modified, ", "))
	}
	return checkResult{
		Status:  constants.HealthStatusWarning,
		Message: strings.Join(changes, "; "),
		Value:   fmt.Sprintf("+%d -%d ~%d", len(added), len(removed), len(modified)),
	}
}

// checkCronJob 按定时任务最近执行时间的新鲜度判定
func (s *healthService) checkCronJob(ctx context.Context, check *model.HealthCheck) checkResult {
	var cfg cronJobConfig
	if err := json.Unmarshal(check.Config, &cfg); err != nil || cfg.CronName == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "未配置定时任务名称"}
	}
	if cfg.MaxAgeHours <= 0 {
		cfg.MaxAgeHours = 24
	}
	target, res := s.resolveTarget(check)
	if res != nil {
		return *res
	}

	query := fmt.Sprintf(
		"SELECT active, COALESCE(EXTRACT(EPOCH FROM (NOW() AT TIME ZONE 'UTC' - lastcall)), -1) FROM ir_cron WHERE cron_name = '%s'",
		strings.ReplaceAll(cfg.CronName, "'", "''"))
	output, err := s.executor.Query(ctx, target, query)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "查询定时任务失败: " + err.Error()}
	}
	line := firstLine(output)
	if line == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "定时任务不存在: " + cfg.CronName}
	}

	parts := strings.Split(line, "|")
	if len(parts) != 2 {
		return checkResult{Status: constants.HealthStatusCritical, Message: "查询结果格式异常: " + line}
	}
	if parts[0] != "t" {
		return checkResult{Status: constants.HealthStatusWarning, Message: "定时任务已停用", Value: "disabled"}
	}
	ageSeconds, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return checkResult{Status: constants.HealthStatusCritical, Message: "查询结果格式异常: " + line}
	}
	if ageSeconds < 0 {
		return checkResult{Status: constants.HealthStatusWarning, Message: "定时任务从未执行", Value: "never"}
	}

	ageHours := ageSeconds / 3600
	value := fmt.Sprintf("%.1fh", ageHours)
	if ageHours > cfg.MaxAgeHours {
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: fmt.Sprintf("最近执行在 %.1f 小时前 (上限 %.0fh)", ageHours, cfg.MaxAgeHours),
			Value:   value,
		}
	}
	return checkResult{
		Status:  constants.HealthStatusOK,
		Message: fmt.Sprintf("最近执行在 %.1f 小时前", ageHours),
		Value:   value,
	}
}

// checkCustom 在目标环境执行自定义命令, 退出码0为ok
func (s *healthService) checkCustom(ctx context.Context, check *model.HealthCheck) checkResult {
	var cfg customConfig
	if err := json.Unmarshal(check.Config, &cfg); err != nil || cfg.Command == "" {
		return checkResult{Status: constants.HealthStatusCritical, Message: "未配置检查命令"}
	}
	target, res := s.resolveTarget(check)
	if res != nil {
		return *res
	}

	output, err := s.executor.Run(ctx, target, cfg.Command)
	if err != nil {
		return checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "检查命令失败: " + err.Error(),
			Value:   firstLine(output),
		}
	}
	message := output
	if message == "" {
		message = "检查命令执行成功"
	}
	return checkResult{Status: constants.HealthStatusOK, Message: message, Value: firstLine(output)}
}

// resolveTarget 构建目标环境的SSH连接参数
func (s *healthService) resolveTarget(check *model.HealthCheck) (dbexec.Target, *checkResult) {
	if check.ServerID == nil {
		return dbexec.Target{}, &checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "检查未绑定目标环境",
		}
	}
	server, err := s.serverRepo.FindByID(*check.ServerID)
	if err != nil {
		return dbexec.Target{}, &checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "查询目标环境失败: " + err.Error(),
		}
	}
	if server.SSHHost == "" {
		return dbexec.Target{}, &checkResult{
			Status:  constants.HealthStatusCritical,
			Message: "目标环境未配置SSH通道",
		}
	}

	target := dbexec.Target{
		Host:     server.SSHHost,
		Port:     server.SSHPort,
		User:     server.SSHUser,
		Database: server.Database,
	}
	if server.SSHCredential != "" {
		credential, err := crypto.Decrypt(server.SSHCredential)
		if err != nil {
			return dbexec.Target{}, &checkResult{
				Status:  constants.HealthStatusCritical,
				Message: "解密SSH凭据失败",
			}
		}
		if strings.Contains(credential, "PRIVATE KEY") {
			target.PrivateKey = credential
		} else {
			target.Password = credential
		}
	}
	return target, nil
}

func (s *healthService) customerName(check *model.HealthCheck) string {
	if check.Customer != nil {
		return check.Customer.Name
	}
	customer, err := s.customerRepo.FindByID(check.CustomerID)
	if err != nil {
		return fmt.Sprintf("customer-%d", check.CustomerID)
	}
	return customer.Name
}

// parseFieldRows 解析 "name|ttype|required" 行到字段签名映射
func parseFieldRows(output string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		fields[parts[0]] = parts[1] + ":" + parts[2]
	}
	return fields
}

func diffFields(baseline, current map[string]string) (added, removed, modified []string) {
	for name := range current {
		if _, ok := baseline[name]; !ok {
			added = append(added, name)
		}
	}
	for name, sig := range baseline {
		cur, ok := current[name]
		if !ok {
			removed = append(removed, name)
			continue
		}
		if cur != sig {
			modified = append(modified, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return added, removed, modified
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func toHealthCheckResponse(check *model.HealthCheck) *dto.HealthCheckResponse {
	resp := &dto.HealthCheckResponse{
		ID:                  check.ID,
		CustomerID:          check.CustomerID,
		ServerID:            check.ServerID,
		Name:                check.Name,
		CheckType:           check.CheckType,
		Config:              json.RawMessage(check.Config),
		IntervalMinutes:     check.IntervalMinutes,
		LastStatus:          check.LastStatus,
		LastMessage:         check.LastMessage,
		LastValue:           check.LastValue,
		ConsecutiveFailures: check.ConsecutiveFailures,
		AlertAfterFailures:  check.AlertAfterFailures,
		Alerted:             check.Alerted,
		Status:              check.Status,
		CreatedAt:           check.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           check.UpdatedAt.Format(time.RFC3339),
	}
	if check.Customer != nil {
		resp.CustomerName = &check.Customer.Name
	}
	if check.LastRunAt != nil {
		t := check.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &t
	}
	if check.BaselineDate != nil {
		t := check.BaselineDate.Format(time.RFC3339)
		resp.BaselineDate = &t
	}
	return resp
}
