package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/gypsum_shop/internal/events"
	"github.com/Skotchmaster/gypsum_shop/internal/httpserver"
	"github.com/Skotchmaster/gypsum_shop/internal/invoice"
	"github.com/Skotchmaster/gypsum_shop/internal/notify"
	"github.com/Skotchmaster/gypsum_shop/internal/payment"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/search"
	"github.com/Skotchmaster/gypsum_shop/internal/service"
	"github.com/Skotchmaster/gypsum_shop/internal/transport"
	"github.com/Skotchmaster/gypsum_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/gypsum_shop/pkg/db"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/gypsum_shop/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustValid(cfg)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = r.Migrate(ctx)
	cancel()
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		publisher = producer
	}

	var searcher service.ProductSearcher
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err == nil {
			err = es.EnsureIndex(ctx)
		}
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			searcher = es
		}
	}

	telegram, err := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.PaymentCurrency, cfg.NotifyTimeout)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	dispatcher := notify.NewDispatcher(telegram, notify.DispatcherOptions{
		Workers:        cfg.NotifyWorkers,
		QueueSize:      cfg.NotifyQueueSize,
		MaxTries:       cfg.NotifyMaxTries,
		AttemptTimeout: cfg.NotifyTimeout,
		Logger:         logger,
	})

	gateway, err := payment.NewPayPalGateway(cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalMode)
	if err != nil {
		log.Fatalf("paypal: %v", err)
	}

	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, AccessTTL: cfg.AccessTTL}
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		cancel()
	}

	orderSvc := &service.OrderService{
		Repo:           r,
		Gateway:        gateway,
		Notifier:       dispatcher,
		Events:         publisher,
		HostURL:        cfg.HostURL,
		Currency:       cfg.PaymentCurrency,
		PaymentTimeout: cfg.PaymentTimeout,
	}

	invoiceFont := invoice.ResolveFont(cfg.InvoiceFontPath)
	if invoiceFont == "" {
		logger.Warn("invoice font not found, cyrillic will be transliterated")
	} else {
		logger.Info("invoice font", "path", invoiceFont)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = transport.NewRequestValidator()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc, Invoices: &invoice.Renderer{FontPath: invoiceFont, Currency: cfg.PaymentCurrency}},
		Catalog:   &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Searcher: searcher, Events: publisher}},
		Warehouse: &httpserver.WarehouseHTTP{Svc: &service.WarehouseService{Repo: r}},
		Auth:      &httpserver.AuthHTTP{Svc: authSvc},
		JWTSecret: cfg.JWTAccessSecret,
		DB:        db,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	dispatcher.Close()
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("stopped")
}
