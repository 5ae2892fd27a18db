package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classlogger/internal/account"
	"classlogger/internal/apperr"
	"classlogger/internal/attendance"
	"classlogger/internal/auth"
	"classlogger/internal/config"
	"classlogger/internal/directory"
	"classlogger/internal/docstore"
	"classlogger/internal/faceclient"
	"classlogger/internal/httpmiddleware"
	"classlogger/internal/model"
	"classlogger/internal/queue"
	"classlogger/internal/session"
	"classlogger/internal/stats"
	"classlogger/internal/store"
	"classlogger/internal/wifi"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := docstore.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var uploads queue.Queue
	if cfg.QueueBackend == "memory" {
		uploads = queue.NewInMemory(64)
	} else {
		uploads = queue.NewRedisQueue(redisClient.Client, "classlogger:selfies")
	}
	if cfg.CloudinaryCloudName == "" {
		uploads = nil
		log.Println("Cloudinary not configured; selfies stay inline in the store")
	}

	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceTimeout, cfg.FaceSkip)
	if cfg.FaceSkip {
		log.Println("WARNING: face verification skipped (FACE_SKIP=true)")
	}

	dir := directory.New(db)
	sessionRepo := session.NewRepository(db)
	sessions := session.NewService(sessionRepo, dir)
	attendanceRepo := attendance.NewRepository(db)
	ledger := attendance.NewService(attendanceRepo, sessionRepo, dir, face, uploads, cfg.VerifyThreshold, cfg.FaceSkip)
	accounts := account.NewService(db, face)
	aggregates := stats.NewService(sessionRepo, attendanceRepo, dir)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	var limiter httpmiddleware.Limiter
	if redisClient.Healthy(context.Background()) {
		limiter = httpmiddleware.NewRedisFixedWindow(redisClient.Client, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		dbHealthy := db.Healthy(ctx)
		redisHealthy := redisClient.Healthy(ctx)
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	r.POST("/v1/auth/register", func(c *gin.Context) {
		var req struct {
			Role       string   `json:"role" binding:"required,oneof=teacher student"`
			Email      string   `json:"email" binding:"required,email"`
			Password   string   `json:"password" binding:"required"`
			Name       string   `json:"name" binding:"required"`
			Phone      string   `json:"phone"`
			RollNumber string   `json:"rollNumber"`
			Classrooms []string `json:"classrooms"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var (
			userID  string
			warning string
			err     error
		)
		if req.Role == auth.RoleTeacher {
			userID, err = accounts.RegisterTeacher(c.Request.Context(), req.Email, req.Password, model.Teacher{
				Name:       req.Name,
				Phone:      req.Phone,
				Classrooms: req.Classrooms,
			})
		} else {
			userID, warning, err = accounts.RegisterStudent(c.Request.Context(), req.Email, req.Password, model.Student{
				Name:       req.Name,
				Phone:      req.Phone,
				RollNumber: req.RollNumber,
				Classrooms: req.Classrooms,
			})
		}
		if err != nil {
			respondError(c, err)
			return
		}

		tokens, err := auth.Issue(userID, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		resp := gin.H{
			"user_id":       userID,
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		}
		if warning != "" {
			resp["warning"] = warning
		}
		c.JSON(http.StatusCreated, resp)
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Role     string `json:"role" binding:"required,oneof=teacher student"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var (
			userID  string
			profile any
		)
		if req.Role == auth.RoleTeacher {
			t, err := accounts.LoginTeacher(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				respondError(c, err)
				return
			}
			userID, profile = t.ID, t
		} else {
			st, err := accounts.LoginStudent(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				respondError(c, err)
				return
			}
			userID, profile = st.ID, st
		}

		tokens, err := auth.Issue(userID, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
			"profile":       profile,
		})
	})

	authed := r.Group("/v1", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer))
	teachers := authed.Group("", auth.RequireRole(auth.RoleTeacher))
	students := authed.Group("", auth.RequireRole(auth.RoleStudent))

	teachers.GET("/teachers/me/classrooms", func(c *gin.Context) {
		classrooms, err := dir.TeacherClassrooms(c.Request.Context(), auth.FromContext(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"classrooms": classrooms})
	})

	authed.GET("/classrooms/:id/subjects", func(c *gin.Context) {
		subjects, err := dir.ClassroomSubjects(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": subjects})
	})

	// Session creation is WiFi-gated: the teacher's device must currently be
	// on the classroom's expected network. The verified live reading becomes
	// the session's immutable snapshot.
	teachers.POST("/sessions", func(c *gin.Context) {
		var req struct {
			SubjectID   string       `json:"subjectId" binding:"required"`
			ClassroomID string       `json:"classroomId" binding:"required"`
			StartTime   int64        `json:"startTime" binding:"required"`
			EndTime     int64        `json:"endTime" binding:"required"`
			Wifi        wifi.Reading `json:"wifi"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		classroom, err := dir.Classroom(c.Request.Context(), req.ClassroomID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !wifi.Verify(req.Wifi, classroom.WifiSSID, classroom.WifiBSSID) {
			respondError(c, apperr.Newf(apperr.Verification,
				"device is not on the classroom network %q: %s", classroom.WifiSSID, wifi.StatusMessage(req.Wifi)))
			return
		}

		ident := req.Wifi.Identity()
		sessionID, err := sessions.Create(c.Request.Context(), auth.FromContext(c).UserID,
			req.SubjectID, req.ClassroomID, req.StartTime, req.EndTime, ident.SSID, ident.BSSID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
	})

	teachers.POST("/sessions/:id/close", func(c *gin.Context) {
		if err := sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "closed"})
	})

	authed.GET("/sessions/:id", func(c *gin.Context) {
		sess, err := sessions.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	})

	teachers.GET("/sessions/:id/attendance", func(c *gin.Context) {
		roster, err := ledger.SessionAttendance(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"attendance": roster})
	})

	// Student submission re-verifies WiFi against the session's snapshot, not
	// the classroom's live configuration, then runs the face gate.
	students.POST("/sessions/:id/attendance", func(c *gin.Context) {
		var req struct {
			Selfie string       `json:"selfie" binding:"required"` // base64 JPEG
			Wifi   wifi.Reading `json:"wifi"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess, err := sessions.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if sess.Status != model.SessionActive || !sess.AttendanceWindow {
			respondError(c, apperr.New(apperr.Validation, "the attendance window for this session is closed"))
			return
		}
		if !wifi.Verify(req.Wifi, sess.WifiSSID, sess.WifiBSSID) {
			respondError(c, apperr.Newf(apperr.Verification,
				"device is not on the session network: %s", wifi.StatusMessage(req.Wifi)))
			return
		}

		selfie, err := base64.StdEncoding.DecodeString(req.Selfie)
		if err != nil {
			respondError(c, apperr.New(apperr.Validation, "selfie must be base64-encoded"))
			return
		}

		rec, err := ledger.SubmitSelfie(c.Request.Context(), sess.ID, auth.FromContext(c).UserID, selfie)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"status":             rec.Status,
			"marked_at":          rec.MarkedAt,
			"verification_score": rec.VerificationScore,
		})
	})

	teachers.PUT("/sessions/:id/attendance/:studentId", func(c *gin.Context) {
		var req struct {
			Status model.AttendanceStatus `json:"status" binding:"required,oneof=PRESENT ABSENT"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := ledger.Override(c.Request.Context(), c.Param("id"), c.Param("studentId"),
			req.Status, auth.FromContext(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	})

	students.GET("/students/me/sessions/active", func(c *gin.Context) {
		active, err := sessions.ActiveForStudent(c.Request.Context(), auth.FromContext(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": active})
	})

	students.GET("/students/me/subjects", func(c *gin.Context) {
		subjects, err := aggregates.SubjectAttendanceForStudent(c.Request.Context(), auth.FromContext(c).UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": subjects})
	})

	students.GET("/students/me/subjects/:id/history", func(c *gin.Context) {
		history, err := aggregates.History(c.Request.Context(), auth.FromContext(c).UserID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// respondError maps labeled failures to HTTP statuses; the reason string is
// always returned for direct display.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Auth:
		status = http.StatusUnauthorized
	case apperr.Verification:
		status = http.StatusForbidden
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Network:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": apperr.Reason(err)})
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
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
