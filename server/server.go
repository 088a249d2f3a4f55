package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/byteshifted/mailpanel/api"
	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/internal/cron"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/services"
)

const (
	shutdownTimeout = 15 * time.Second
)

type Server struct {
	cfg        *config.Config
	log        logger.Logger
	db         *gorm.DB
	httpServer *http.Server
	cron       *cron.CronManager
	doneCh     chan struct{}
}

func NewServer(cfg *config.Config, log logger.Logger, db *gorm.DB) *Server {
	return &Server{
		cfg:    cfg,
		log:    log,
		db:     db,
		doneCh: make(chan struct{}),
	}
}

func (s *Server) Run() error {
	tracer, closer, err := tracing.NewJaegerTracer(s.cfg.Tracing, s.log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize jaeger tracer")
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	repositories := repository.InitRepositories(s.db)
	serviceContainer := services.InitServices(s.cfg, s.log, repositories)

	s.cron = cron.NewCronManager(s.cfg, s.log, s.kubernetesClient(), repositories.ProvisionLogRepository)
	if err := s.cron.Start(os.Getenv("POD_NAME"), os.Getenv("POD_NAMESPACE")); err != nil {
		return errors.Wrap(err, "failed to start cron manager")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	api.RegisterRoutes(r, serviceContainer, s.cfg.AppConfig.APIKey)

	s.httpServer = &http.Server{
		Addr:    ":" + s.cfg.AppConfig.APIPort,
		Handler: r,
	}

	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		s.log.Infof("Starting HTTP server on port %s", s.cfg.AppConfig.APIPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Fatalf("HTTP server error: %v", err)
		}
	}()

	s.waitForShutdown()
	return nil
}

// kubernetesClient builds an in-cluster client for leader election.
// Outside a cluster it returns nil and the cron manager runs in local mode.
func (s *Server) kubernetesClient() kubernetes.Interface {
	k8sConfig, err := rest.InClusterConfig()
	if err != nil {
		s.log.Infof("Not running in kubernetes, cron jobs run without leader election: %v", err)
		return nil
	}
	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		s.log.Warnf("Failed to create kubernetes client: %v", err)
		return nil
	}
	return clientset
}

func (s *Server) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	}

	if s.cron != nil {
		s.cron.Stop()
	}

	close(s.doneCh)
	s.log.Info("Server stopped")
}
