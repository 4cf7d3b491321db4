package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/legaldoc/internal/cache"
	"github.com/emrgen/legaldoc/internal/compress"
	"github.com/emrgen/legaldoc/internal/config"
	"github.com/emrgen/legaldoc/internal/jobs"
	"github.com/emrgen/legaldoc/internal/metrics"
	"github.com/emrgen/legaldoc/internal/service"
	"github.com/emrgen/legaldoc/internal/store"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.httpPort); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires storage, cache, services and jobs behind the REST API and
// serves it until interrupted.
func Start(httpPort string) error {
	cnf := config.LoadConfig()
	db := config.GetDb(cnf)

	docStore := store.NewGormStore(db)
	if err := docStore.Migrate(); err != nil {
		return err
	}

	var redisCache *cache.Redis
	if cnf.RedisAddr != "" {
		redisCache = cache.NewRedis(cnf.RedisAddr)
	}

	codec, err := compress.FromName(cnf.Compression)
	if err != nil {
		return err
	}

	m := metrics.New()
	lifecycle := service.NewLifecycleService(codec, docStore, redisCache, m)
	query := service.NewQueryService(docStore, redisCache)

	router := NewRouter(NewHandler(lifecycle, query))

	executor := jobs.NewTaskExecutor([]jobs.CronJob{
		jobs.NewCacheRefreshTask(cnf.CacheCron, query),
	})
	executor.Run()
	defer executor.Stop()

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           cors.AllowAll().Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("legaldoc listening on :%s", httpPort)
		errCh <- httpServer.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logrus.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
