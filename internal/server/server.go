package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quotedesk/internal/api"
	"quotedesk/internal/config"
	"quotedesk/internal/importer"
	"quotedesk/internal/parser"
	"quotedesk/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	api     *api.Handler
	httpSrv *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	if _, err := config.EnsureDataDir(cfg); err != nil {
		log.Printf("创建数据目录失败: %v", err)
	}
	sqliteStore, err := store.New(config.DBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s, err := newServer(cfg, sqliteStore)
	if err != nil {
		_ = sqliteStore.Close()
		return nil, err
	}
	return s, nil
}

func newServer(cfg *config.AppConfig, st *store.Store) (*Server, error) {
	ctx := context.Background()

	if cfg.Data.ArchiveDeleted {
		if err := st.EnsureArchiveTable(ctx); err != nil {
			return nil, err
		}
	}

	ttl := time.Duration(cfg.Import.SessionTTLMinutes) * time.Minute
	var sessions importer.SessionStore
	switch cfg.Import.SessionBackend {
	case config.SessionBackendSQLite:
		sessions = importer.NewSQLSessionStore(st, ttl)
	case config.SessionBackendMemory, "":
		sessions = importer.NewMemorySessionStore(ttl)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Import.SessionBackend)
	}

	coord := importer.NewCoordinator(st, sessions, importer.Options{
		Detect: parser.DetectOptions{
			MaxHeaderRows: cfg.Import.MaxHeaderRows,
			MaxSearchRows: cfg.Import.MaxSearchRows,
		},
	})
	if err := coord.ReloadSynonyms(ctx); err != nil {
		return nil, err
	}

	handler := api.NewHandler(st, coord, api.Options{
		ArchiveEnabled: cfg.Data.ArchiveDeleted,
		MaxUploadBytes: int64(cfg.Import.MaxUploadMB) << 20,
		SessionBackend: cfg.Import.SessionBackend,
	})

	s := &Server{
		router: gin.Default(),
		store:  st,
		api:    handler,
	}
	s.setupRoutes(cfg)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(cfg *config.AppConfig) {
	// CORS
	corsCfg := cors.DefaultConfig()
	if cfg.Server.DevMode || len(cfg.Server.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", api.HeaderUser, api.HeaderRegion, api.HeaderRole}
	corsCfg.ExposeHeaders = []string{"Content-Disposition"}
	s.router.Use(cors.New(corsCfg))

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	s.router.GET("/healthz", func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "unhealthy")
			return
		}
		c.String(http.StatusOK, "ok")
	})
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			log.Printf("关闭 HTTP 服务失败: %v", err)
		}
	}
	return s.store.Close()
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
