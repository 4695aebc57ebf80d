package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"talentedge_backend/internal/config"
	"talentedge_backend/internal/controller"
	"talentedge_backend/internal/repository"
	"talentedge_backend/internal/service"
	"talentedge_backend/pkg/configwatcher"
	"talentedge_backend/pkg/database"
	"talentedge_backend/pkg/locker"
	"talentedge_backend/pkg/logger"
	"talentedge_backend/pkg/monitoring"
	"talentedge_backend/pkg/security"
	"talentedge_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configFile = "configs/config.yaml"

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	stop            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	attempt  *repository.AttemptRepository
	response *repository.ResponseRepository
}

type services struct {
	oracle       service.ScoringOracle
	pacer        *service.RatePacer
	subjective   *service.SubjectiveEvaluator
	aggregator   *service.ScoreAggregator
	evaluator    *service.AttemptEvaluator
	recalculator *service.ScoreRecalculator
}

type controllers struct {
	evaluation *controller.EvaluationController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		attempt:  repository.NewAttemptRepository(db),
		response: repository.NewResponseRepository(db),
	}
}

func (a *App) newLocker(cfg *config.Config) locker.Locker {
	if cfg.Grading.LockBackend == "redis" {
		return locker.NewRedis(a.Redis, cfg.Grading.LockTTL)
	}
	return locker.NewLocal()
}

func (a *App) initServices(repos *repositories, cfg *config.Config) (*services, error) {
	s := &services{}

	oracle, err := service.NewScoringOracle(context.Background(), cfg.AI)
	if err != nil {
		return nil, err
	}
	s.oracle = oracle
	s.pacer = service.NewRatePacer(cfg.Grading.AICallInterval)
	s.subjective = service.NewSubjectiveEvaluator(oracle, s.pacer, cfg.AI.Timeout, cfg.AI.Temperature)
	s.aggregator = service.NewScoreAggregator(repos.attempt, repos.response)

	locks := a.newLocker(cfg)
	s.evaluator = service.NewAttemptEvaluator(repos.attempt, repos.response, s.subjective, s.aggregator, locks, cfg.Grading.Workers)
	s.recalculator = service.NewScoreRecalculator(repos.response, s.aggregator, locks)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	var redisPing controller.PingFunc
	if a.Redis != nil {
		rdb := a.Redis
		redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return &controllers{
		evaluation: controller.NewEvaluationController(s.evaluator, s.recalculator),
		health:     controller.NewHealthController(db, redisPing, s.oracle != nil),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// applyReload 将可热更新的配置推送到运行中的服务，其余配置需重启生效
func (a *App) applyReload(newCfg *config.Config) {
	if newCfg.Grading.AICallInterval != a.Config.Grading.AICallInterval {
		a.services.pacer.SetInterval(newCfg.Grading.AICallInterval)
		logger.Log.Info("AI call interval updated",
			zap.Duration("old", a.Config.Grading.AICallInterval),
			zap.Duration("new", newCfg.Grading.AICallInterval),
		)
		a.Config.Grading.AICallInterval = newCfg.Grading.AICallInterval
	}
	for _, cb := range a.configCallbacks {
		cb(newCfg)
	}
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		stop:   make(chan struct{}),
	}

	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Grading.LockBackend == "redis" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg)
	if err != nil {
		return nil, err
	}
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("talentedge-grading", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	app.limiter = security.NewRateLimiter(cfg.RateLimit)
	go app.limiter.Run(app.stop)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := configwatcher.Watch(ctx, filepath.Clean(configFile), a.applyReload); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// 进行中的评估可能仍在等待评分模型
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 释放后台任务与外部客户端
func (a *App) Close() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}

	if a.services != nil {
		if c, ok := a.services.oracle.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Log.Warn("Failed to close scoring oracle", zap.Error(err))
			}
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Log.Sync()
}
