package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgErrors "qa-platform/pkg/errors"
)

// CIConfig 外部CI(Jenkins风格)配置
type CIConfig struct {
	BaseURL  string // 例如 https://jenkins.example.com
	JobName  string
	Username string
	APIToken string
}

// ciRunner 触发外部CI构建执行, 结果经回调上报
type ciRunner struct {
	cfg    CIConfig
	client *http.Client
	logger *zap.Logger
}

// NewCIRunner 创建外部CI执行器
func NewCIRunner(cfg CIConfig, logger *zap.Logger) Runner {
	return &ciRunner{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (r *ciRunner) Start(ctx context.Context, req *Request) (Execution, error) {
	params := url.Values{}
	params.Set("RUN_ID", strconv.FormatInt(req.RunID, 10))
	params.Set("SUITE_ID", strconv.FormatInt(req.SuiteID, 10))
	params.Set("CALLBACK_URL", req.CallbackURL)
	if v, ok := req.Variables["BASE_URL"]; ok {
		params.Set("BASE_URL", v)
	}
	if len(req.IncludeTags) > 0 {
		params.Set("INCLUDE_TAGS", strings.Join(req.IncludeTags, ","))
	}
	if len(req.ExcludeTags) > 0 {
		params.Set("EXCLUDE_TAGS", strings.Join(req.ExcludeTags, ","))
	}

	buildURL := fmt.Sprintf("%s/job/%s/buildWithParameters", strings.TrimRight(r.cfg.BaseURL, "/"), r.cfg.JobName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, buildURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "构造CI触发请求失败", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(r.cfg.Username, r.cfg.APIToken)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "触发CI构建失败", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, pkgErrors.New(pkgErrors.CodeDispatchError,
			fmt.Sprintf("CI返回异常状态码: %d", resp.StatusCode))
	}

	queueURL := resp.Header.Get("Location")
	buildNumber, err := r.resolveBuildNumber(ctx, queueURL)
	if err != nil {
		r.logger.Warn("解析CI构建号失败, 按排队处理",
			zap.Int64("run_id", req.RunID), zap.Error(err))
	}
	r.logger.Info("CI构建已触发",
		zap.Int64("run_id", req.RunID),
		zap.String("job", r.cfg.JobName),
		zap.Int("build", buildNumber))

	return &ciExecution{
		runner:      r,
		queueURL:    queueURL,
		buildNumber: buildNumber,
	}, nil
}

// resolveBuildNumber 轮询排队项直至取得构建号
func (r *ciRunner) resolveBuildNumber(ctx context.Context, queueURL string) (int, error) {
	if queueURL == "" {
		return 0, pkgErrors.New(pkgErrors.CodeDispatchError, "CI响应缺少排队地址")
	}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		item, err := r.fetchQueueItem(ctx, queueURL)
		if err != nil {
			return 0, err
		}
		if item.Executable.Number > 0 {
			return item.Executable.Number, nil
		}
		if item.Cancelled {
			return 0, pkgErrors.New(pkgErrors.CodeDispatchError, "CI排队项已被取消")
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return 0, pkgErrors.New(pkgErrors.CodeDispatchError, "等待CI构建号超时")
}

type queueItem struct {
	Cancelled  bool `json:"cancelled"`
	ID         int  `json:"id"`
	Executable struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	} `json:"executable"`
}

func (r *ciRunner) fetchQueueItem(ctx context.Context, queueURL string) (*queueItem, error) {
	apiURL := strings.TrimRight(queueURL, "/") + "/api/json"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.cfg.Username, r.cfg.APIToken)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("queue api status %d", resp.StatusCode)
	}

	var item queueItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// consoleStatsRe 从控制台日志兜底提取统计, 用于回调丢失后的巡检
var consoleStatsRe = regexp.MustCompile(`(\d+) tests?, (\d+) passed, (\d+) failed`)

// ConsoleStats 控制台日志中的汇总统计
type ConsoleStats struct {
	Total  int
	Passed int
	Failed int
}

// ConsoleStatsFetcher 能从执行后端的构建日志兜底拉取汇总统计的执行器
type ConsoleStatsFetcher interface {
	FetchConsoleStats(ctx context.Context, buildNumber int) (*ConsoleStats, error)
}

// FetchConsoleStats 拉取构建控制台日志并提取robot汇总统计
func (r *ciRunner) FetchConsoleStats(ctx context.Context, buildNumber int) (*ConsoleStats, error) {
	consoleURL := fmt.Sprintf("%s/job/%s/%d/consoleText",
		strings.TrimRight(r.cfg.BaseURL, "/"), r.cfg.JobName, buildNumber)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, consoleURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.cfg.Username, r.cfg.APIToken)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "拉取CI控制台日志失败", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	m := consoleStatsRe.FindSubmatch(body)
	if m == nil {
		return nil, pkgErrors.New(pkgErrors.CodeDispatchError, "控制台日志中未找到执行统计")
	}
	total, _ := strconv.Atoi(string(m[1]))
	passed, _ := strconv.Atoi(string(m[2]))
	failed, _ := strconv.Atoi(string(m[3]))
	return &ConsoleStats{Total: total, Passed: passed, Failed: failed}, nil
}

type ciExecution struct {
	runner      *ciRunner
	queueURL    string
	buildNumber int
}

// Await 外部CI不在进程内等待, 结果由回调接口入库
func (e *ciExecution) Await(ctx context.Context) (*Report, error) {
	return nil, ErrExternalReport
}

// Cancel 尽力终止: 已出队则stop构建, 否则取消排队项
func (e *ciExecution) Cancel(ctx context.Context) error {
	r := e.runner
	var stopURL string
	if e.buildNumber > 0 {
		stopURL = fmt.Sprintf("%s/job/%s/%d/stop",
			strings.TrimRight(r.cfg.BaseURL, "/"), r.cfg.JobName, e.buildNumber)
	} else if e.queueURL != "" {
		item, err := r.fetchQueueItem(ctx, e.queueURL)
		if err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDispatchError, "查询CI排队项失败", err)
		}
		stopURL = fmt.Sprintf("%s/queue/cancelItem?id=%d",
			strings.TrimRight(r.cfg.BaseURL, "/"), item.ID)
	} else {
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, stopURL, nil)
	if err != nil {
		return err
	}
	httpReq.SetBasicAuth(r.cfg.Username, r.cfg.APIToken)
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDispatchError, "终止CI构建失败", err)
	}
	resp.Body.Close()
	return nil
}

func (e *ciExecution) BuildNumber() int { return e.buildNumber }

func (e *ciExecution) BuildURL() string {
	if e.buildNumber == 0 {
		return ""
	}
	return fmt.Sprintf("%s/job/%s/%d/",
		strings.TrimRight(e.runner.cfg.BaseURL, "/"), e.runner.cfg.JobName, e.buildNumber)
}
