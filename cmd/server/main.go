package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/zAcherttp/next-wms-sub003/internal/config"
	"github.com/zAcherttp/next-wms-sub003/internal/middleware"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/handler"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// AutoMigrate WMS表
	if err := db.AutoMigrate(
		&entity.Branch{},
		&entity.User{},
		&entity.Supplier{},
		&entity.ProductVariant{},
		&entity.StorageZone{},
		&entity.SystemLookup{},
		&entity.PurchaseOrder{},
		&entity.PurchaseOrderLine{},
		&entity.ReceiveSession{},
		&entity.ReceiveSessionDetail{},
		&entity.WorkSession{},
		&entity.ReturnRequest{},
		&entity.ReturnRequestDetail{},
		&entity.CycleCountSession{},
		&entity.ZoneAssignment{},
		&entity.CycleCountItem{},
	); err != nil {
		zapLogger.Warn("AutoMigrate WMS tables warning", zap.Error(err))
	}

	// 唯一约束兜底（AutoMigrate因FK级联问题可能跳过索引变更）
	migrationSQL := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_po_branch_code ON wms_purchase_orders(branch_id, code)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rs_branch_code ON wms_receive_sessions(branch_id, code)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rs_purchase_order ON wms_receive_sessions(purchase_order_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ws_branch_code ON wms_work_sessions(branch_id, code)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ws_ref ON wms_work_sessions(ref_type, ref_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rr_branch_code ON wms_return_requests(branch_id, code)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cc_branch_code ON wms_cycle_count_sessions(branch_id, code)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_lookup_type_code ON wms_system_lookups(lookup_type, lookup_code)",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)

	lookupSvc := service.NewLookupService(repos.Lookup, rdb)
	workSvc := service.NewWorkSessionService(repos.WorkSession, repos.Catalog, repos.Code)
	poSvc := service.NewPurchaseOrderService(repos.PurchaseOrder, repos.Catalog, repos.Code)
	zonePick := service.NewRandomZoneRecommender(repos.Zone)
	receiveSvc := service.NewReceiveService(db, repos.ReceiveSession, repos.PurchaseOrder,
		repos.ReturnRequest, repos.Catalog, repos.Code, workSvc, zonePick, zapLogger)
	returnSvc := service.NewReturnService(repos.ReturnRequest, repos.Catalog, repos.Code)
	cycleSvc := service.NewCycleCountService(db, repos.CycleCount, repos.Catalog,
		repos.Zone, repos.Code, workSvc, zapLogger)

	// Seed: 状态字典展示文案
	if err := lookupSvc.SeedDefaults(context.Background()); err != nil {
		zapLogger.Warn("Seed lookups warning", zap.Error(err))
	}

	handlers := handler.NewHandlers(poSvc, receiveSvc, returnSvc, cycleSvc, workSvc, lookupSvc)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// TranslateError 让唯一索引冲突映射为 gorm.ErrDuplicatedKey，编码重试依赖它
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1（认证保护）
	api := r.Group("/api/v1/wms")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	h.RegisterRoutes(api)
}
