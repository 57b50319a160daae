// Package app wires configuration, storage, services and transports into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aklny/internal/auth"
	"aklny/internal/config"
	"aklny/internal/database"
	"aklny/internal/handler"
	"aklny/internal/mailer"
	"aklny/internal/metrics"
	"aklny/internal/middleware"
	"aklny/internal/repository"
	"aklny/internal/service"
	"aklny/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type options struct {
	db     *gorm.DB
	sender mailer.Sender
}

// Option overrides a dependency New would otherwise build from config.
type Option func(*options)

// WithDB uses an already migrated database.
func WithDB(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// WithMailSender replaces the SMTP or log sender.
func WithMailSender(s mailer.Sender) Option {
	return func(o *options) { o.sender = s }
}

type App struct {
	cfg        *config.Config
	log        *zap.Logger
	Router     *gin.Engine
	hub        *websocket.Hub
	broker     websocket.Broker
	dispatcher *mailer.Dispatcher
	google     *auth.GoogleVerifier

	db          *gorm.DB
	mongoClient *mongo.Client
	redisClient *redis.Client
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	a.db = o.db
	if a.db == nil {
		db, err := database.NewConnection(cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.db = db
	}

	m := metrics.New()

	// Repositories
	users := repository.NewUserRepository(a.db)
	tokens := repository.NewRefreshTokenRepository(a.db)
	foods := repository.NewFoodRepository(a.db)
	orders := repository.NewOrderRepository(a.db)
	audits := repository.NewAuditRepository(a.db)
	statistics := repository.NewStatisticsRepository(a.db)
	txManager := repository.NewTransactionManager(a.db)

	tracking, chats, err := a.realtimeStores(ctx)
	if err != nil {
		return nil, err
	}

	// Mail
	sender := o.sender
	if sender == nil {
		if sender, err = a.mailSender(); err != nil {
			return nil, err
		}
	}
	a.dispatcher = mailer.NewDispatcher(sender, 0, log)
	a.dispatcher.OnFailure(m.EmailFailed)
	composer := mailer.NewComposer(cfg.Frontend.BaseURL)

	// Auth
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, tokens)
	gate := auth.NewGate(issuer, log)
	googleVerifier, err := a.googleVerifier()
	if err != nil {
		return nil, err
	}

	// Services
	auditService := service.NewAuditService(audits, log)
	authService := service.NewAuthService(service.AuthDependencies{
		Users:     users,
		Tokens:    tokens,
		TxManager: txManager,
		Hasher:    hasher,
		Issuer:    issuer,
		Google:    googleVerifier,
		Mailer:    a.dispatcher,
		Composer:  composer,
		Audit:     auditService,
		Metrics:   m,
		Logger:    log,
	})
	userService := service.NewUserService(users, tokens, txManager, hasher, a.dispatcher, composer, auditService, log)
	foodService := service.NewFoodService(foods, txManager, auditService)
	orderService := service.NewOrderService(orders, foods, users, txManager, log)
	trackingService := service.NewTrackingService(tracking, orders, log)
	chatService := service.NewChatService(chats, orders)
	statisticsService := service.NewStatisticsService(statistics)

	// Realtime
	a.hub = websocket.NewHub(log, m)
	a.broker = websocket.NewLocalBroker(a.hub)
	if cfg.Redis.Enabled() {
		a.redisClient, err = database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.broker = websocket.NewRedisBroker(a.redisClient, cfg.Redis.Channel, log)
		log.Info("socket fan-out over redis", zap.String("channel", cfg.Redis.Channel))
	}
	gateway := websocket.NewGateway(websocket.GatewayDependencies{
		Hub:            a.hub,
		Broker:         a.broker,
		Gate:           gate,
		Tracking:       trackingService,
		Chat:           chatService,
		AllowedOrigins: cfg.HTTP.AllowOrigins,
		Logger:         log,
		Metrics:        m,
	})

	// Handlers
	authenticate := middleware.Authenticate(gate)
	cookie := middleware.CookieOptions{Secure: cfg.Auth.CookieSecure, MaxAge: issuer.RefreshTTL()}
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewAuthHandler(authService, cookie),
		handler.NewUserHandler(userService, authenticate),
		handler.NewAuditHandler(auditService, authenticate),
		handler.NewFoodHandler(foodService, authenticate),
		handler.NewOrderHandler(orderService, authenticate),
		handler.NewStatisticsHandler(statisticsService, authenticate),
	}

	a.Router = a.newRouter(m, gateway, handlers)
	ok = true
	return a, nil
}

func (a *App) realtimeStores(ctx context.Context) (repository.TrackingRepository, repository.ChatRepository, error) {
	if !a.cfg.Mongo.Enabled() {
		a.log.Warn("MONGO_URI not set, tracking and chat are kept in memory")
		return repository.NewMemoryTrackingRepository(), repository.NewMemoryChatRepository(), nil
	}

	client, db, err := database.NewMongo(ctx, a.cfg.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	a.mongoClient = client
	if err := repository.EnsureTrackingIndexes(ctx, db); err != nil {
		return nil, nil, err
	}
	if err := repository.EnsureChatIndexes(ctx, db); err != nil {
		return nil, nil, err
	}
	return repository.NewTrackingRepository(db), repository.NewChatRepository(db), nil
}

func (a *App) mailSender() (mailer.Sender, error) {
	if !a.cfg.SMTP.Enabled() {
		a.log.Warn("SMTP not configured, emails are logged instead of sent")
		return mailer.NewLogSender(a.log), nil
	}
	s, err := mailer.NewSMTPSender(a.cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}
	return s, nil
}

// googleVerifier fetches Google's keys only when client ids are configured. An
// unconfigured verifier rejects every token.
func (a *App) googleVerifier() (auth.ProviderVerifier, error) {
	if len(a.cfg.Google.Audiences) == 0 {
		a.log.Warn("GOOGLE_CLIENT_IDS not set, Google sign-in is disabled")
		return auth.NewGoogleVerifierWithKeys(nil, nil), nil
	}
	v, err := auth.NewGoogleVerifier(a.cfg.Google.JWKSURL, a.cfg.Google.Audiences, a.log)
	if err != nil {
		return nil, fmt.Errorf("google jwks: %w", err)
	}
	a.google = v
	return v, nil
}

func (a *App) newRouter(m *metrics.Metrics, gateway *websocket.Gateway, handlers []interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(a.log), middleware.RequestLogger(a.log), middleware.Metrics(m))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.cfg.HTTP.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", gateway.ServeWS)

	api := router.Group("")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return router
}

// Start runs the socket hub and the broker subscription until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	go a.hub.Run(ctx)
	go func() {
		if err := a.broker.Subscribe(ctx, a.hub.Deliver); err != nil {
			a.log.Error("room broker stopped", zap.Error(err))
		}
	}()
}

// Run serves HTTP on the configured port until ctx is cancelled, then drains
// in-flight requests and pending mail before closing connections.
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.close(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", zap.Error(err))
	}
	a.close(shutdownCtx)
	return nil
}

func (a *App) close(ctx context.Context) {
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	if a.google != nil {
		a.google.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("mongo disconnect", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("redis close", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
