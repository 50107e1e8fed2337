// Package app wires the HTTP surface together
package app

import (
	"fmt"
	"strings"
	"time"

	"cobi/auth-api/app/root"
	"cobi/auth-api/app/user"
	"cobi/auth-api/db"
	"cobi/auth-api/internal"
	"cobi/auth-api/internal/service"
	"cobi/auth-api/internal/store"
	"cobi/auth-api/pkg/middleware"
	"cobi/auth-api/pkg/security"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d.DB = conn
	d.Users = store.NewUsers(conn)
	d.Otps = store.NewOtps(conn)
	d.Argon = security.NewArgon()
	d.Tokens = security.NewTokenIssuer(
		[]byte(viper.GetString("jwt.secret")),
		viper.GetDuration("jwt.ttl"),
	)
	d.Mail = service.NewMailQueue()
	d.Auth = service.NewAuth(d.Users, d.Otps, d.Argon, d.Tokens, d.Mail, viper.GetDuration("otp.ttl"))

	router := newEngine(d)

	// Deliver queued verification mails in the background
	d.Mail.StartWorkerPool()

	// Codes expire after minutes but rows stick around for weeks, a
	// daily sweep is plenty
	service.OtpCleanup(time.Hour*24, d.Otps)

	return router, nil
}

func newEngine(d *internal.Deps) *gin.Engine {
	router := gin.New()

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("user_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	auth := middleware.NewAuthMiddleware(d.Auth)

	m := router.Group("/api", middleware.BodySizeLimiter(1<<20))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a session token
		m.GET("/validate", auth, root.Validate)
	}

	u := m.Group("/users")
	{
		// POST /api/users 		-> Registers a new user and sends an OTP
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a verified user and returns a session token
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// GET /api/users/me		-> Returns the account behind the token
		u.GET("/me", auth, func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /api/users/verify-otp	-> Verifies an account with a one-time code
		u.POST("/verify-otp", func(c *gin.Context) { user.UserVerifyOtp(c, d) })

		// POST /api/users/resend-otp	-> Issues a fresh one-time code
		u.POST("/resend-otp", func(c *gin.Context) { user.UserResendOtp(c, d) })
	}

	return router
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level"))
	if err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
