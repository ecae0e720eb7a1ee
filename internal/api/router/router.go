package router

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qa-platform/internal/adapter/ai"
	"qa-platform/internal/adapter/dbexec"
	"qa-platform/internal/adapter/gitrepo"
	"qa-platform/internal/adapter/notification"
	"qa-platform/internal/api/handler"
	"qa-platform/internal/api/middleware"
	"qa-platform/internal/core/requirement"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/repository"
	"qa-platform/internal/service"
)

// Deps 路由装配后对外暴露的依赖, 供调度器复用同一套服务实例
type Deps struct {
	SuiteRepo     repository.SuiteRepository
	RunService    service.RunService
	HealthService service.HealthService
}

// Setup 设置路由
func Setup(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*gin.Engine, *Deps) {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 初始化Repository
	userRepo := repository.NewUserRepository()
	customerRepo := repository.NewCustomerRepository(db)
	serverRepo := repository.NewServerRepository(db)
	gitRepoRepo := repository.NewGitRepositoryRepository(db)
	moduleSourceRepo := repository.NewModuleSourceRepository(db)
	scanRepo := repository.NewScanRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	specRepo := repository.NewSpecRepository(db)
	caseRepo := repository.NewTestCaseRepository(db)
	suiteRepo := repository.NewSuiteRepository(db)
	runRepo := repository.NewRunRepository(db)
	resultRepo := repository.NewResultRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	regressionRepo := repository.NewRegressionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	healthRepo := repository.NewHealthCheckRepository(db)

	// 初始化Adapter
	aiClient := ai.NewClient(&cfg.AI)
	fetcher := gitrepo.NewFetcher(cfg.Core.WorkDir, config.ParseDuration(cfg.Core.FetchTimeout, 5*time.Minute))
	executor := dbexec.NewSSHExecutor(config.ParseDuration(cfg.Runner.Timeout, time.Minute), logger)
	var notifier notification.Notifier
	if cfg.Notify.Enabled {
		notifier = notification.NewLarkNotifier(cfg.Notify.WebhookURL, true, logger)
	} else {
		notifier = notification.NewNoopNotifier()
	}

	// 初始化Service
	authService := service.NewAuthService(&cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo)
	customerService := service.NewCustomerService(customerRepo)
	serverService := service.NewServerService(serverRepo, customerRepo)
	repositoryService := service.NewGitRepositoryService(gitRepoRepo, moduleSourceRepo, customerRepo)
	scanService := service.NewScanService(scanRepo, analysisRepo, gitRepoRepo, customerRepo, fetcher)
	generateService := service.NewGenerateService(aiClient, scanRepo, analysisRepo, specRepo, caseRepo, suiteRepo, &cfg.Core)
	specService := service.NewSpecService(specRepo, customerRepo, suiteRepo)
	caseService := service.NewTestCaseService(caseRepo, suiteRepo)
	suiteService := service.NewSuiteService(suiteRepo, caseRepo, customerRepo, serverRepo)
	collectorService := service.NewCollectorService(runRepo, resultRepo, caseRepo, regressionRepo)
	runnerProvider := service.NewRunnerProvider(cfg)
	runService := service.NewRunService(runRepo, resultRepo, suiteRepo, caseRepo, serverRepo, runnerProvider, collectorService, cfg)
	stateMachine := requirement.NewStateMachine(db, logger)
	requirementService := service.NewRequirementService(requirementRepo, caseRepo, resultRepo, customerRepo, stateMachine)
	regressionService := service.NewRegressionService(regressionRepo, templateRepo, suiteRepo, caseRepo, customerRepo, runService)
	healthService := service.NewHealthService(healthRepo, customerRepo, serverRepo, executor, notifier)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	customerHandler := handler.NewCustomerHandler(customerService, serverService)
	repositoryHandler := handler.NewRepositoryHandler(repositoryService)
	scanHandler := handler.NewScanHandler(scanService, generateService)
	specHandler := handler.NewSpecHandler(specService, generateService)
	caseHandler := handler.NewCaseHandler(caseService, generateService)
	suiteHandler := handler.NewSuiteHandler(suiteService, runService)
	runHandler := handler.NewRunHandler(runService, collectorService)
	requirementHandler := handler.NewRequirementHandler(requirementService)
	regressionHandler := handler.NewRegressionHandler(regressionService)
	healthHandler := handler.NewHealthHandler(healthService)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证相关(无需token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// 机器端点(静态API Token): CI回调上报与制品拉取
		machine := v1.Group("", middleware.APITokenMiddleware(authService))
		{
			machine.POST("/runs/ingest", runHandler.Ingest)
			machine.GET("/suites/:id/artifacts", suiteHandler.Artifacts)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware())
		{
			// 认证信息
			authed.GET("/auth/me", authHandler.GetMe)
			authed.GET("/auth/verify", authHandler.Verify)
			authed.GET("/users/search", userHandler.Search)
			authed.GET("/roles", userHandler.ListRoles)

			// 客户管理
			customerGroup := authed.Group("/customers")
			{
				customerGroup.POST("", customerHandler.Create)
				customerGroup.GET("", customerHandler.List)
				customerGroup.PUT("", customerHandler.Update)
				customerGroup.GET("/:id", customerHandler.GetByID)
				customerGroup.DELETE("/:id", customerHandler.Delete)
			}

			// 客户环境管理
			serverGroup := authed.Group("/servers")
			{
				serverGroup.POST("", customerHandler.CreateServer)
				serverGroup.GET("", customerHandler.ListServers)
				serverGroup.PUT("", customerHandler.UpdateServer)
				serverGroup.GET("/:id", customerHandler.GetServer)
				serverGroup.DELETE("/:id", customerHandler.DeleteServer)
			}

			// 代码仓库管理
			repositoryGroup := authed.Group("/repositories")
			{
				repositoryGroup.POST("", repositoryHandler.Create)
				repositoryGroup.GET("", repositoryHandler.List)
				repositoryGroup.PUT("", repositoryHandler.Update)
				repositoryGroup.GET("/:id", repositoryHandler.GetByID)
				repositoryGroup.DELETE("/:id", repositoryHandler.Delete)
				repositoryGroup.GET("/:id/module-sources", repositoryHandler.ListModuleSources)
				repositoryGroup.POST("/:id/test", repositoryHandler.TestConnection)
				repositoryGroup.POST("/discover", repositoryHandler.Discover)
			}

			// 模块源管理
			moduleSourceGroup := authed.Group("/module-sources")
			{
				moduleSourceGroup.POST("", repositoryHandler.UpsertModuleSource)
				moduleSourceGroup.DELETE("/:id", repositoryHandler.DeleteModuleSource)
			}

			// 代码扫描
			scanGroup := authed.Group("/scans")
			{
				scanGroup.POST("", scanHandler.Create)
				scanGroup.GET("", scanHandler.List)
				scanGroup.GET("/:id", scanHandler.GetByID)
				scanGroup.DELETE("/:id", scanHandler.Delete)
				scanGroup.POST("/:id/scan", scanHandler.Scan)           // 拉取仓库并发现模块
				scanGroup.GET("/:id/modules", scanHandler.ListModules)  // 模块清单
				scanGroup.POST("/:id/select", scanHandler.SelectModules)
				scanGroup.POST("/:id/analyze", scanHandler.Analyze)     // 静态分析
				scanGroup.GET("/:id/analyses", scanHandler.ListAnalyses)
				scanGroup.POST("/:id/generate", scanHandler.Generate)   // AI生成用例
			}

			// 需求规格
			specGroup := authed.Group("/specs")
			{
				specGroup.POST("", specHandler.Create)
				specGroup.GET("", specHandler.List)
				specGroup.PUT("", specHandler.Update)
				specGroup.GET("/:id", specHandler.GetByID)
				specGroup.DELETE("/:id", specHandler.Delete)
				specGroup.POST("/:id/generate", specHandler.Generate)
			}

			// 测试用例
			caseGroup := authed.Group("/cases")
			{
				caseGroup.GET("", caseHandler.List)
				caseGroup.PUT("", caseHandler.Update)
				caseGroup.GET("/:id", caseHandler.GetByID)
				caseGroup.DELETE("/:id", caseHandler.Delete)
				caseGroup.POST("/:id/improve", caseHandler.Improve)
			}

			// 测试套件
			suiteGroup := authed.Group("/suites")
			{
				suiteGroup.POST("", suiteHandler.Create)
				suiteGroup.GET("", suiteHandler.List)
				suiteGroup.PUT("", suiteHandler.Update)
				suiteGroup.GET("/:id", suiteHandler.GetByID)
				suiteGroup.DELETE("/:id", suiteHandler.Delete)
				suiteGroup.GET("/:id/cases", suiteHandler.ListCases)
				suiteGroup.POST("/:id/cases", suiteHandler.AssignCases)
				suiteGroup.POST("/:id/run", suiteHandler.Run)
			}

			// 测试运行
			runGroup := authed.Group("/runs")
			{
				runGroup.GET("", runHandler.List)
				runGroup.GET("/:id", runHandler.GetByID)
				runGroup.DELETE("/:id", runHandler.Delete)
				runGroup.GET("/:id/results", runHandler.Results)
				runGroup.POST("/:id/cancel", runHandler.Cancel)
			}

			// 需求跟踪
			requirementGroup := authed.Group("/requirements")
			{
				requirementGroup.POST("", requirementHandler.Create)
				requirementGroup.GET("", requirementHandler.List)
				requirementGroup.PUT("", requirementHandler.Update)
				requirementGroup.GET("/:id", requirementHandler.GetByID)
				requirementGroup.DELETE("/:id", requirementHandler.Delete)
				requirementGroup.PUT("/:id/cases", requirementHandler.LinkCases)
				requirementGroup.POST("/:id/approve", requirementHandler.Approve)
				requirementGroup.POST("/:id/start", requirementHandler.Start)
				requirementGroup.POST("/:id/begin-testing", requirementHandler.BeginTesting)
				requirementGroup.POST("/:id/deploy", requirementHandler.Deploy)
				requirementGroup.POST("/:id/verify", requirementHandler.Verify)
				requirementGroup.GET("/:id/recheck", requirementHandler.Recheck)
			}

			// 回归测试
			regressionGroup := authed.Group("/regressions")
			{
				regressionGroup.POST("", regressionHandler.Create)
				regressionGroup.GET("", regressionHandler.List)
				regressionGroup.PUT("", regressionHandler.Update)
				regressionGroup.GET("/:id", regressionHandler.GetByID)
				regressionGroup.DELETE("/:id", regressionHandler.Delete)
				regressionGroup.POST("/:id/generate", regressionHandler.Generate)
				regressionGroup.POST("/:id/run", regressionHandler.Run)
			}

			// 环境健康
			healthGroup := authed.Group("/health-checks")
			{
				healthGroup.POST("", healthHandler.Create)
				healthGroup.GET("", healthHandler.List)
				healthGroup.PUT("", healthHandler.Update)
				healthGroup.GET("/:id", healthHandler.GetByID)
				healthGroup.DELETE("/:id", healthHandler.Delete)
				healthGroup.POST("/:id/run", healthHandler.Run)
				healthGroup.POST("/:id/rebaseline", healthHandler.Rebaseline)
				healthGroup.GET("/:id/logs", healthHandler.ListLogs)
			}
		}
	}

	return r, &Deps{
		SuiteRepo:     suiteRepo,
		RunService:    runService,
		HealthService: healthService,
	}
}
