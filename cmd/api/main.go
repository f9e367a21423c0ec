package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"autobesa/docs"
	"autobesa/pkg/account"
	"autobesa/pkg/cart"
	"autobesa/pkg/catalog"
	"autobesa/pkg/config"
	"autobesa/pkg/kv"
	kvmemory "autobesa/pkg/kv/memory"
	kvpg "autobesa/pkg/kv/postgres"
	kvredis "autobesa/pkg/kv/redis"
	"autobesa/pkg/logger"
	"autobesa/pkg/money"
	"autobesa/pkg/order"
	"autobesa/pkg/order/kvstore"
	ordermem "autobesa/pkg/order/memory"
	orderpg "autobesa/pkg/order/postgres"
	"autobesa/pkg/otel"
	"autobesa/pkg/session"
	"autobesa/pkg/storefront"
)

//go:generate swag init --dir ./,../../pkg --generalInfo main.go --output ../../docs --outputTypes go

var (
	svc            *storefront.Service
	sessions       session.Store
	accounts       *account.Store
	log            *logger.Logger
	tracer         trace.Tracer
	searchDebounce = catalog.DefaultDebounce
	sessionTTL     = time.Hour
)

// @title AutoBesa Storefront API
// @version 1.0
// @description Cart, favorites, catalog and checkout for the AutoBesa car catalog
// @host localhost:8443
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log = logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "autobesa", otel.GetTraceID)
	defer log.Sync()

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "autobesa", Host: cfg.OTELHost, Probability: cfg.TraceProbability})
	if err != nil {
		log.Error(context.Background(), "init tracing", "error", err)
		return
	}
	defer shutdown(context.Background())
	tracer = tp.Tracer("autobesa")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	searchDebounce = cfg.SearchDebounce
	sessionTTL = cfg.SessionTTL

	var (
		db  *sql.DB
		rdb *redis.Client
		err error
	)
	if cfg.DatabaseURL != "" {
		if db, err = sql.Open("postgres", cfg.DatabaseURL); err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
	}
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
	}

	store, err := openStore(ctx, cfg, db, rdb)
	if err != nil {
		return err
	}
	orders, err := orderHistory(ctx, cfg, db)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg.CatalogHTML)
	if err != nil {
		return err
	}

	accounts = account.New(store, log)
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	svc = storefront.New(store, cat, orders, storefront.Options{
		Pricing: cart.Pricing{
			TaxRate:               cfg.TaxRate,
			FreeShippingThreshold: money.Cents(cfg.FreeShippingThreshold),
			ShippingFee:           money.Cents(cfg.ShippingFee),
		},
		PageSize: cfg.PageSize,
	}, log)

	docs.SwaggerInfo.Host = hostForDocs(cfg.HTTPAddr)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: newRouter(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	if w, ok := store.(kv.Watcher); ok {
		g.Go(func() error { return svc.Hub().Run(gctx, w) })
	}
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLS(), "cards", cat.Len(), "store", cfg.StoreBackend)
		var err error
		if cfg.TLS() {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info(context.Background(), "server closed")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return kvredis.New(rdb), nil
	case config.BackendPostgres:
		s := kvpg.New(db, cfg.DatabaseURL, log)
		if err := s.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("create kv table: %w", err)
		}
		return s, nil
	default:
		return kvmemory.NewBackend().Open(), nil
	}
}

func orderHistory(ctx context.Context, cfg config.Config, db *sql.DB) (storefront.OrdersFunc, error) {
	switch cfg.OrderStore {
	case config.OrdersPostgres:
		repo := orderpg.New(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("create orders table: %w", err)
		}
		return func(profile string, _ kv.Store) order.Repository { return repo.ForProfile(profile) }, nil
	case config.OrdersMemory:
		histories := ordermem.NewProfiles()
		return func(profile string, _ kv.Store) order.Repository { return histories.ForProfile(profile) }, nil
	default:
		return func(_ string, scoped kv.Store) order.Repository { return kvstore.New(scoped, log) }, nil
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		log.Warn(context.Background(), "CATALOG_HTML not set, serving an empty catalog")
		return catalog.New(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return catalog.ParseCatalog(f)
}

func hostForDocs(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(traceMiddleware)
	r.HandleFunc("/login", loginHandler).Methods(http.MethodPost)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := r.NewRoute().Subrouter()
	api.Use(sessionMiddleware)

	api.HandleFunc("/cart", getCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", clearCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", addCartItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/detail", addDetailHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id}", updateCartItemHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{id}", removeCartItemHandler).Methods(http.MethodDelete)

	api.HandleFunc("/favorites", listFavoritesHandler).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}", isFavoriteHandler).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}/toggle", toggleFavoriteHandler).Methods(http.MethodPost)

	api.HandleFunc("/catalog", catalogHandler).Methods(http.MethodGet)
	api.HandleFunc("/catalog/filters", applyFiltersHandler).Methods(http.MethodPost)
	api.HandleFunc("/catalog/filters", resetFiltersHandler).Methods(http.MethodDelete)
	api.HandleFunc("/catalog/{id}/cart", addCardHandler).Methods(http.MethodPost)
	api.HandleFunc("/catalog/{id}/quickview", quickViewHandler).Methods(http.MethodGet)

	api.HandleFunc("/checkout", checkoutHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", getOrderHandler).Methods(http.MethodGet)

	api.HandleFunc("/badges", badgesHandler).Methods(http.MethodGet)
	api.HandleFunc("/ws", wsHandler).Methods(http.MethodGet)
	return r
}

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
