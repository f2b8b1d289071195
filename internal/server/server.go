package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	v1 "pricecheck/internal/api/v1"
	"pricecheck/internal/config"
	"pricecheck/internal/service/session"
	"pricecheck/internal/store"
)

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	store    *store.Store
	sessions *session.Manager
	logger   *zap.Logger
	http     *http.Server
}

// NewServer 创建服务器：初始化数据目录、SQLite 存储与会话管理器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "failed to prepare data directory")
	}

	sqliteStore, err := store.New(config.DBPath(dataDir))
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize database")
	}

	sessions, err := session.NewManager(dataDir, sqliteStore, session.DefaultsFromConfig(cfg), logger.Named("session"))
	if err != nil {
		sqliteStore.Close()
		return nil, err
	}

	s := &Server{
		router:   gin.New(),
		store:    sqliteStore,
		sessions: sessions,
		logger:   logger,
	}
	s.setupRoutes(v1.NewHandler(sessions, logger.Named("api")))

	logger.Info("server initialized", zap.String("dataDir", dataDir))
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(api *v1.Handler) {
	s.router.Use(requestLogger(s.logger), gin.Recovery())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	{
		api.RegisterRoutes(group)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
	})
}

// requestLogger 以 zap 记录每个请求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到服务器关闭
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并释放数据库连接
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		errs = append(errs, s.http.Shutdown(ctx))
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
