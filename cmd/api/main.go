package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/bus"
	"rollcall/internal/config"
	"rollcall/internal/draft"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/live"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	mongo, err := store.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(ctx)
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var changes bus.Bus
	if cfg.BusBackend == "memory" {
		changes = bus.NewInMemory()
	} else {
		changes = bus.NewRedisBus(redisClient.Client, cfg.BusChannel)
	}

	rosterSvc := roster.NewService(roster.NewRepository(mongo.Database))
	attSvc := attendance.NewService(attendance.NewRepository(mongo.Database))
	sessions := auth.NewSessions(redisClient.Client, cfg.SessionTTL)
	authSvc := auth.NewService(auth.NewRepository(mongo.Database), sessions,
		cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	sheets := draft.NewSheets(draft.NewRedisStore(redisClient.Client, cfg.DraftTTL), rosterSvc)

	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	rosterHub := live.NewHub(bus.CollectionStudents, func(ctx context.Context) (any, error) {
		return rosterSvc.List(ctx)
	})
	attendanceHub := live.NewHub(bus.CollectionAttendance, func(ctx context.Context) (any, error) {
		return attSvc.List(ctx)
	})
	for _, h := range []*live.Hub{rosterHub, attendanceHub} {
		events, err := changes.Subscribe(appCtx)
		if err != nil {
			return err
		}
		go h.Run(appCtx, events)
	}

	notify := func(ctx context.Context, collection string) {
		if err := changes.Publish(ctx, bus.Event{Collection: collection}); err != nil {
			log.Printf("change publish failed: %v", err)
		}
	}

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		mongoHealthy := mongo.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !mongoHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "mongo": mongoHealthy})
	})

	// ---- Public marking surface ----

	r.GET("/v1/stats", func(c *gin.Context) {
		records, err := attSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		records = attendance.FilterByDate(records, c.Query("date"))
		c.JSON(http.StatusOK, gin.H{
			"stats":      attendance.Aggregate(records),
			"perStudent": attendance.PerStudent(records),
		})
	})

	r.GET("/v1/roster", func(c *gin.Context) {
		students, err := rosterSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		marked := make([]roster.Marked, 0, len(students))
		for _, s := range students {
			marked = append(marked, roster.Marked{Student: s})
		}
		c.JSON(http.StatusOK, gin.H{
			"students": students,
			"groups":   roster.GroupByTeam(marked),
		})
	})

	r.GET("/v1/roster/sheet", func(c *gin.Context) {
		draftID := c.Query("draft_id")
		if draftID == "" {
			draftID = uuid.NewString()
		}
		sheet, err := sheets.Load(c.Request.Context(), draftID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"draft_id": draftID,
			"sheet":    sheet,
			"groups":   roster.GroupByTeam(sheet),
		})
	})

	r.PUT("/v1/roster/sheet", func(c *gin.Context) {
		var req struct {
			DraftID string      `json:"draft_id" binding:"required"`
			Marks   draft.Marks `json:"marks"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sheets.Stage(c.Request.Context(), req.DraftID, req.Marks); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"draft_id": req.DraftID})
	})

	r.POST("/v1/attendance", func(c *gin.Context) {
		var req struct {
			Date     string             `json:"date" binding:"required"`
			Title    string             `json:"title" binding:"required"`
			DraftID  string             `json:"draft_id"`
			Students []attendance.Entry `json:"students" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := attSvc.Save(c.Request.Context(), req.Date, req.Title, req.Students)
		if err != nil {
			respondError(c, err)
			return
		}
		if req.DraftID != "" {
			if err := sheets.Clear(c.Request.Context(), req.DraftID); err != nil {
				log.Printf("draft clear failed: %v", err)
			}
		}
		notify(c.Request.Context(), bus.CollectionAttendance)
		c.JSON(http.StatusCreated, rec)
	})

	// ---- Live full-snapshot streams ----

	r.GET("/v1/live/roster", streamSnapshots(rosterHub))
	r.GET("/v1/live/attendance", streamSnapshots(attendanceHub))

	// ---- Auth ----

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		sess, tokens, err := authSvc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.SetCookie(auth.SessionCookie, tokens.AccessToken,
			int(time.Until(tokens.AccessExp).Seconds()), "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"username":      sess.Username,
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	r.POST("/v1/auth/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
			return
		}
		sess, tokens, err := authSvc.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.SetCookie(auth.SessionCookie, tokens.AccessToken,
			int(time.Until(tokens.AccessExp).Seconds()), "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"username":      sess.Username,
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	// ---- Admin panel ----

	adminGroup := r.Group("/v1/admin", auth.AdminAuth(sessions, cfg.JWTSigningKey, cfg.JWTIssuer))

	adminGroup.POST("/logout", func(c *gin.Context) {
		sess, _ := auth.SessionFrom(c)
		if err := authSvc.Logout(c.Request.Context(), sess.ID); err != nil {
			log.Printf("logout failed: %v", err)
		}
		c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	})

	adminGroup.GET("/session", func(c *gin.Context) {
		sess, _ := auth.SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": sess.Username})
	})

	adminGroup.GET("/students", func(c *gin.Context) {
		students, err := rosterSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		filtered, applied := roster.FilterByName(students, c.Query("q"))
		filtered = roster.FilterByTeam(filtered, c.DefaultQuery("team", roster.TeamAll))

		records, err := attSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"students":   filtered,
			"filtered":   applied,
			"perStudent": attendance.PerStudent(records),
		})
	})

	adminGroup.POST("/students", func(c *gin.Context) {
		var req struct {
			Name   string   `json:"name" binding:"required"`
			Groups []string `json:"groups"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s, err := rosterSvc.Add(c.Request.Context(), req.Name, req.Groups)
		if err != nil {
			respondError(c, err)
			return
		}
		notify(c.Request.Context(), bus.CollectionStudents)
		c.JSON(http.StatusCreated, s)
	})

	adminGroup.DELETE("/students/:id", func(c *gin.Context) {
		if err := rosterSvc.Remove(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		notify(c.Request.Context(), bus.CollectionStudents)
		c.Status(http.StatusNoContent)
	})

	adminGroup.GET("/attendance", func(c *gin.Context) {
		records, err := attSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		records = attendance.FilterByDate(records, c.Query("date"))
		c.JSON(http.StatusOK, gin.H{
			"records": records,
			"stats":   attendance.Aggregate(records),
		})
	})

	adminGroup.DELETE("/attendance/:id", func(c *gin.Context) {
		if err := attSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		notify(c.Request.Context(), bus.CollectionAttendance)
		c.Status(http.StatusNoContent)
	})

	adminGroup.GET("/attendance/export", func(c *gin.Context) {
		records, err := attSvc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		records = attendance.FilterByDate(records, c.Query("date"))
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
		if err := attendance.WriteCSV(c.Writer, records); err != nil {
			log.Printf("csv export failed: %v", err)
		}
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stop()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// streamSnapshots serves a hub's full-snapshot feed over SSE. The detach runs
// on every exit path so no standing listener is leaked.
func streamSnapshots(h *live.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, detach := h.Attach()
		defer detach()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ctx := c.Request.Context()
		c.Stream(func(w io.Writer) bool {
			select {
			case data, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("snapshot", string(data))
				return true
			case <-ctx.Done():
				return false
			}
		})
	}
}

// respondError converts a failure into the user-facing JSON the action
// surfaces. Anything that isn't a known validation failure is treated as
// transient: logged, and answered with a retry prompt.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, roster.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, roster.ErrNotFound),
		errors.Is(err, attendance.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, roster.ErrNameRequired),
		errors.Is(err, roster.ErrNoGroupSelected),
		errors.Is(err, attendance.ErrMissingMetadata),
		errors.Is(err, attendance.ErrEmptyRoster),
		errors.Is(err, attendance.ErrIncompleteMarking),
		errors.Is(err, draft.ErrBadStatus):
		status = http.StatusBadRequest
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure, please try again"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
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

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
