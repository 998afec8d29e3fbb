package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Kariqs/eden-store-api/cache"
	"github.com/Kariqs/eden-store-api/controllers"
	"github.com/Kariqs/eden-store-api/fulfillment"
	"github.com/Kariqs/eden-store-api/initializers"
	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/payments"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/Kariqs/eden-store-api/routes"
	"github.com/Kariqs/eden-store-api/services"
	"github.com/Kariqs/eden-store-api/storage"
	"github.com/Kariqs/eden-store-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// application holds the wired services for the process lifetime.
type application struct {
	store  *repositories.Store
	logger utils.Logger

	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Reviews  *services.ReviewService
	Users    *services.UserService
}

const cartSweepInterval = time.Hour

func main() {
	if err := initializers.LoadEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := initializers.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := utils.NewLogger(cfg.App.Name, cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initializers.ConnectToDB(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	if err := initializers.SyncDatabase(db); err != nil {
		log.Fatal(err)
	}
	logger.Info("Database synced successfully", map[string]interface{}{"driver": cfg.Database.Driver})

	redisClient, err := initializers.ConnectToRedis(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal(err)
	}
	if redisClient == nil {
		logger.Warn("Redis not configured, catalog cache disabled", nil)
	} else {
		defer redisClient.Close()
	}

	catalogCache := cache.NewCatalogCache(redisClient,
		cache.WithTTL(cfg.Redis.CatalogTTL),
		cache.WithPrefix(cfg.Redis.Prefix),
		cache.WithLogger(logger),
	)
	store := repositories.NewStore(db)

	app, err := buildApplication(ctx, cfg, store, catalogCache, logger)
	if err != nil {
		log.Fatal(err)
	}
	go app.sweepExpiredCarts(ctx)

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.DefaultRoutes(server, controllers.NewDefaultController(db, catalogCache))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

func buildApplication(ctx context.Context, cfg *initializers.Config, store *repositories.Store, catalogCache *cache.CatalogCache, logger utils.Logger) (*application, error) {
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithCatalogCache(catalogCache),
	}

	mailer, err := utils.NewMailer(utils.MailSettings{
		Enabled:      cfg.Mail.Enabled,
		FromEmail:    cfg.Mail.FromEmail,
		Password:     cfg.Mail.Password,
		SMTPHost:     cfg.Mail.SMTPHost,
		SMTPAddress:  cfg.Mail.SMTPAddress,
		TemplatePath: cfg.Mail.TemplatePath,
	})
	if err != nil {
		return nil, err
	}
	opts = append(opts, services.WithNotifier(mailer))

	if cfg.Storage.Bucket != "" {
		images, err := storage.NewS3ImageStore(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, services.WithImageUploader(images))
	}
	if cfg.Carrier.BaseURL != "" {
		opts = append(opts, services.WithTracker(fulfillment.NewCarrierClient(fulfillment.CarrierOptions{
			BaseURL:    cfg.Carrier.BaseURL,
			APIKey:     cfg.Carrier.APIKey,
			Timeout:    cfg.Carrier.Timeout,
			RetryCount: cfg.Carrier.RetryCount,
		})))
	}
	if cfg.Payment.ConsumerKey != "" {
		opts = append(opts, services.WithPaymentGateway(payments.NewPesapalClient(payments.PesapalOptions{
			BaseURL:        cfg.Payment.BaseURL,
			ConsumerKey:    cfg.Payment.ConsumerKey,
			ConsumerSecret: cfg.Payment.ConsumerSecret,
		})))
	}

	return &application{
		store:    store,
		logger:   logger,
		Checkout: services.NewCheckoutService(store, opts...),
		Orders:   services.NewOrderService(store, opts...),
		Catalog:  services.NewCatalogService(store, opts...),
		Reviews:  services.NewReviewService(store, opts...),
		Users:    services.NewUserService(store, opts...),
	}, nil
}

// sweepExpiredCarts removes abandoned guest carts until ctx ends.
func (a *application) sweepExpiredCarts(ctx context.Context) {
	ticker := time.NewTicker(cartSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.store.Carts.DeleteExpired(ctx, models.Now())
			if err != nil {
				a.logger.Error("Expired cart sweep failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if removed > 0 {
				a.logger.Info("Expired carts removed", map[string]interface{}{"count": removed})
			}
		}
	}
}
