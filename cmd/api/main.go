package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartattendance/internal/attendance"
	"smartattendance/internal/auth"
	"smartattendance/internal/config"
	"smartattendance/internal/enroll"
	"smartattendance/internal/faceclient"
	"smartattendance/internal/faces"
	"smartattendance/internal/geo"
	"smartattendance/internal/httpapi"
	"smartattendance/internal/httpmiddleware"
	"smartattendance/internal/identity"
	"smartattendance/internal/logging"
	"smartattendance/internal/queue"
	"smartattendance/internal/session"
	"smartattendance/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

type backends struct {
	sessions  session.Repository
	directory identity.Directory
	ledger    attendance.Ledger
	db        *store.DB
}

func openBackends(ctx context.Context, cfg config.App, logger *zap.Logger) (*backends, error) {
	if cfg.StoreBackend == "memory" {
		dir := identity.NewMemoryDirectory()
		if err := seedDemo(dir); err != nil {
			return nil, err
		}
		logger.Warn("using in-memory store; data is lost on restart")
		return &backends{
			sessions:  session.NewMemoryRepository(),
			directory: dir,
			ledger:    attendance.NewMemoryLedger(),
		}, nil
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db.Client); err != nil {
			_ = db.Close()
			return nil, err
		}
		if v, err := store.Version(ctx, db.Client); err == nil {
			logger.Info("database migrated", zap.Int64("version", v))
		}
	}
	return &backends{
		sessions:  session.NewPostgresRepository(db.Client),
		directory: identity.NewPostgresDirectory(db.Client),
		ledger:    attendance.NewPostgresLedger(db.Client),
		db:        db,
	}, nil
}

// seedDemo gives the memory backend one teacher and two students, all with password "demo".
func seedDemo(dir *identity.MemoryDirectory) error {
	hash, err := auth.HashPassword("demo")
	if err != nil {
		return fmt.Errorf("seed demo users: %w", err)
	}
	dir.Put(identity.Identity{USN: "T001", Name: "Demo Teacher", Email: "teacher@example.edu", IsTeacher: true}, hash)
	dir.Put(identity.Identity{USN: "S001", Name: "Demo Student", Email: "s001@example.edu"}, hash)
	dir.Put(identity.Identity{USN: "S002", Name: "Second Student", Email: "s002@example.edu"}, hash)
	dir.SetSubjects("T001", []string{"CS101"})
	return nil
}

func openFaceStore(cfg config.App, logger *zap.Logger) (faces.Store, error) {
	if cfg.FaceStore == "cloudinary" {
		if !cfg.CloudinaryConfigured() {
			return nil, errors.New("FACE_STORE=cloudinary needs CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
		logger.Info("face photos stored in cloudinary", zap.String("cloud", cfg.CloudinaryCloudName))
		return faces.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder), nil
	}
	logger.Info("face photos stored on disk", zap.String("dir", cfg.FaceDir))
	return faces.NewLocalStore(cfg.FaceDir)
}

func run(ctx context.Context, cfg config.App, logger *zap.Logger) error {
	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if b.db != nil {
		defer b.db.Close()
	}

	health := map[string]httpapi.HealthChecker{}
	if b.db != nil {
		health["db"] = b.db
	}

	var redisClient *store.Redis
	if cfg.SessionCache || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis not reachable at startup", zap.Error(err))
		}
		health["redis"] = redisClient
	}

	var regOpts []session.Option
	if cfg.SessionCache {
		regOpts = append(regOpts, session.WithCache(session.NewRedisCache(redisClient.Client, "")))
	}
	registry := session.NewRegistry(b.sessions, cfg.SessionTTL, logger.Named("session"), regOpts...)

	faceClient := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		// No separate worker can reach an in-process queue, so consume it here.
		mem := queue.NewInMemory(64)
		jobs = mem
		go func() {
			if err := enroll.NewWorker(faceClient, logger.Named("enroll")).Run(ctx, mem); err != nil {
				logger.Error("enrollment worker", zap.Error(err))
			}
		}()
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	faceStore, err := openFaceStore(cfg, logger)
	if err != nil {
		return err
	}

	classroom := geo.Classroom{
		Center: geo.Point{Lat: cfg.ClassroomLat, Lng: cfg.ClassroomLng},
		Radius: cfg.ClassroomRadius,
	}
	var signals attendance.SignalPolicy = attendance.TrustAll{}
	if !cfg.TrustAllSignals {
		signals = attendance.Verified{
			Classroom: classroom,
			Faces:     faceClient,
			Logger:    logger.Named("signals"),
		}
		logger.Info("verifying location and face signals")
	}

	signer := auth.NewSigner(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	attLogger := logger.Named("attendance")
	h := httpapi.New(httpapi.Deps{
		Sessions:  registry,
		Marker:    attendance.NewMarker(registry, b.directory, b.ledger, signals, cfg.ClassroomID, attLogger),
		Overrider: attendance.NewOverrider(b.directory, b.ledger, cfg.ClassroomID, attLogger),
		Reporter:  attendance.NewReporter(b.directory, b.ledger, cfg.TotalStudents),
		Directory: b.directory,
		Auth:      auth.NewAuthenticator(b.directory, signer, logger.Named("auth")),
		Signer:    signer,
		Faces:     faceStore,
		Jobs:      &nonBlocking{q: jobs},
		Classroom: classroom,
		Limiter:   httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin),
		Health:    health,
		Origins:   cfg.CORSOrigins,
		Logger:    logger.Named("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// nonBlocking bounds publish latency so a slow queue never holds up a request.
type nonBlocking struct {
	q queue.Queue
}

func (n *nonBlocking) Publish(ctx context.Context, msg queue.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return n.q.Publish(ctx, msg)
}

func (n *nonBlocking) Consume(ctx context.Context) (<-chan queue.Message, error) {
	return n.q.Consume(ctx)
}
