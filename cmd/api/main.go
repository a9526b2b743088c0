package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"eduscan/internal/attendance"
	"eduscan/internal/config"
	"eduscan/internal/httpmiddleware"
	"eduscan/internal/scan"
	"eduscan/internal/store"
	"eduscan/internal/summary"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := attendance.NewService(st, cfg.ScanDebounce)

	// Nil when GEMINI_API_KEY is unset; summary.Report handles the fallback.
	summarizer := summary.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	if summarizer == nil {
		log.Println("Gemini not configured (GEMINI_API_KEY not set), AI reports disabled")
	}

	var redisClient *redis.Client
	var src scan.Source
	if cfg.ScanBackend == "redis" {
		redisClient = scan.NewRedisClient(cfg.RedisAddr)
		src = scan.NewRedisSource(redisClient, cfg.ScanQueueKey)
	} else {
		src = scan.NewChannelSource(64)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go consumeScans(ctx, src, st, engine)

	srv := server{
		cfg:        cfg,
		store:      st,
		engine:     engine,
		summarizer: summarizer,
		redis:      redisClient,
		source:     src,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", srv.health)
	srv.routes(r)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := src.Stop(); err != nil {
		log.Printf("scan source stop: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// consumeScans drains the scan source and records each decoded payload. The
// acting user is whoever holds the session slot at consume time; with nobody
// logged in the record is attributed to the system sentinel.
func consumeScans(ctx context.Context, src scan.Source, st *store.Store, engine *attendance.Service) {
	decoded, errs, err := src.Start(ctx)
	if err != nil {
		log.Printf("scan source start failed: %v", err)
		return
	}
	for {
		select {
		case text, ok := <-decoded:
			if !ok {
				return
			}
			actor, err := st.Session()
			if err != nil {
				log.Printf("session lookup failed: %v", err)
				actor = nil
			}
			out, err := engine.Scan(text, actor, time.Now())
			switch {
			case err == attendance.ErrDuplicateScan:
				// debounced, nothing to do
			case err != nil:
				log.Printf("scan %q rejected: %v", text, err)
			default:
				log.Printf("marked %s %s at %s", out.Student.Name, out.Status, out.MarkedAt)
			}
		case derr, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("scanner decode failure: %v", derr)
		case <-ctx.Done():
			return
		}
	}
}

func (s server) health(c *gin.Context) {
	status := http.StatusOK
	redisHealthy := true
	if s.redis != nil {
		redisHealthy = scan.Healthy(c.Request.Context(), s.redis)
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
