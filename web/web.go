// Package web assembles the filedock HTTP server: middleware, routes,
// optional static frontend, TLS and the background jobs.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/filedock/filedock/config"
	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/util/common"
	"github.com/filedock/filedock/util/safepath"
	"github.com/filedock/filedock/web/controller"
	"github.com/filedock/filedock/web/job"
	"github.com/filedock/filedock/web/locale"
	"github.com/filedock/filedock/web/middleware"
	"github.com/filedock/filedock/web/network"
	"github.com/filedock/filedock/web/service"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// staleUploadAge is how old an upload temp file must be before cleanup removes it.
const staleUploadAge = time.Hour

// Server holds everything a request handler needs. It is built once at
// startup from the loaded configuration and the open database.
type Server struct {
	cfg *config.Config
	db  *gorm.DB

	fileService         *service.FileService
	userService         *service.UserService
	systemUpdateService *service.SystemUpdateService
	serverService       *service.ServerService

	locale  *locale.Bundle
	limiter *middleware.RateLimiter

	httpServer *http.Server
	listener   net.Listener
	cron       *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer wires the services for cfg and db.
func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	fileService, err := service.NewFileService(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	bundle, err := locale.New()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:                 cfg,
		db:                  db,
		fileService:         fileService,
		userService:         service.NewUserService(db),
		systemUpdateService: service.NewSystemUpdateService(db),
		serverService:       service.NewServerService(fileService.Root()),
		locale:              bundle,
		limiter:             middleware.NewRateLimiter(cfg.LoginPerMinute),
		ctx:                 ctx,
		cancel:              cancel,
	}, nil
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() (http.Handler, error) {
	return s.initRouter()
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20
	engine.Use(middleware.RequestLog())
	engine.Use(s.locale.LocalizerMiddleware())
	engine.Use(middleware.Recovery())

	if len(s.cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
		engine.Use(cors.New(corsConfig))
	}

	// byte streams are served as stored
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`^/(download|preview|qrcode)/`}),
		gzip.WithExcludedPaths([]string{"/upload"}),
	))

	secure := s.cfg.CertFile != "" && s.cfg.KeyFile != ""
	store := cookie.NewStore([]byte(s.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(session.CookieName, store))

	g := engine.Group("/")
	maxAge := time.Duration(s.cfg.SessionMaxAge) * time.Minute
	controller.NewIndexController(g, s.userService, maxAge, secure, s.limiter)
	controller.NewFileController(g, s.fileService, s.cfg.MaxUploadBytes(), s.cfg.PrivateRead)
	controller.NewAPIController(engine.Group("/api"), s.userService, s.systemUpdateService, s.serverService)

	engine.NoRoute(s.noRoute)
	return engine, nil
}

// noRoute serves the built frontend from webDir for unknown GET requests,
// falling back to its index.html for client side routes.
func (s *Server) noRoute(c *gin.Context) {
	notFound := func() {
		c.JSON(http.StatusNotFound, gin.H{"message": controller.I18nWeb(c, "server.notFound"), "kind": service.KindNotFound})
	}
	if s.cfg.WebDir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		notFound()
		return
	}
	p, err := safepath.Resolve(s.cfg.WebDir, c.Request.URL.Path[1:])
	if err != nil {
		notFound()
		return
	}
	if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
		c.File(p)
		return
	}
	index, err := safepath.Resolve(s.cfg.WebDir, "index.html")
	if err != nil {
		notFound()
		return
	}
	if _, err := os.Stat(index); err != nil {
		notFound()
		return
	}
	c.File(index)
}

// startTask schedules the maintenance jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@every 10m", job.NewCheckpointJob(s.db)); err != nil {
		logger.Warning("add checkpoint job failed:", err)
	}
	if _, err := s.cron.AddJob("@every 30m", job.NewCleanUploadTempJob(s.fileService.Root(), staleUploadAge)); err != nil {
		logger.Warning("add upload temp cleanup job failed:", err)
	}
	if s.cfg.DiskWarnPercent > 0 {
		if _, err := s.cron.AddJob("@every 5m", job.NewCheckDiskUsageJob(s.serverService, s.cfg.DiskWarnPercent)); err != nil {
			logger.Warning("add disk usage job failed:", err)
		}
	}
}

// Start begins serving on the configured address and starts the jobs.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			_ = listener.Close()
			return common.NewErrorf("load certificate: %w", err)
		}
		c := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		listener = network.NewRedirectListener(listener)
		listener = tls.NewListener(listener, c)
		logger.Info("Web server running HTTPS on", listener.Addr())
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the server down, waiting up to ten seconds for open requests.
func (s *Server) Stop() error {
	defer s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.limiter.Stop()

	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context. It is cancelled by Stop.
func (s *Server) GetCtx() context.Context { return s.ctx }

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
