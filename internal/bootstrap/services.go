package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/slicehq/slice/config"
	httpx "github.com/slicehq/slice/internal/http"
	"github.com/slicehq/slice/internal/service"
)

// ServiceDeps contains the dependencies needed to build the service container.
type ServiceDeps struct {
	Config *config.AppConfig
	Auth   *AuthComponents
	Logger *slog.Logger
}

// ServiceContainer holds the assembled application services and handler.
type ServiceContainer struct {
	Auth    *AuthComponents
	Refresh *service.RefreshService
	Handler http.Handler
}

// NewServices assembles the service layer and the HTTP handler tree.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	refreshSvc, err := service.NewRefreshService(service.RefreshServiceOptions{
		Scripts: map[string]string{
			"market": cfg.Refresh.MarketScript,
			"news":   cfg.Refresh.NewsScript,
		},
		ScriptsDir: cfg.Refresh.ScriptsDir,
		Timeout:    cfg.Refresh.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build refresh service: %w", err)
	}

	static := httpx.NewStaticHandler(httpx.StaticHandlerOptions{
		WebRoot:     cfg.Assets.WebRoot,
		CacheMaxAge: cfg.Assets.StaticCacheMaxAge,
	})
	if _, err := static.Stat("index.html"); err != nil {
		logger.Warn("dashboard index page not found in web root", "web_root", cfg.Assets.WebRoot)
	}

	handler := httpx.NewRouter(httpx.RouterOptions{
		Auth: httpx.NewAuthHandlers(httpx.AuthHandlersOptions{
			Svc:           deps.Auth.Service,
			Logger:        logger,
			CookieDomain:  cfg.HTTP.CookieDomain,
			SecureCookies: cfg.Auth.SecureCookies,
		}),
		AuthSvc:          deps.Auth.Service,
		Refresh:          httpx.NewRefreshHandlers(refreshSvc, logger),
		Static:           static,
		Logger:           logger,
		PublicAssetPaths: cfg.Assets.PublicPaths,
		Misconfigured:    deps.Auth.Misconfigured,
	})

	return &ServiceContainer{
		Auth:    deps.Auth,
		Refresh: refreshSvc,
		Handler: handler,
	}, nil
}
