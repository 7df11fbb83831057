package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"inventory-management-service/config"
)

// NewRouter はルーターを生成する。
func NewRouter(
	cfg *config.Config,
	catalogueItems *CatalogueItemHandler,
	items *ItemHandler,
	systems *SystemHandler,
	usageStatuses *UsageStatusHandler,
	rules *RuleHandler,
	settings *SettingHandler,
) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	// ルート定義
	r.Route("/v1/catalogue-items", func(r chi.Router) {
		r.Post("/", catalogueItems.CreateCatalogueItem)
		r.Get("/", catalogueItems.ListCatalogueItems)
		r.Get("/{catalogue_item_id}", catalogueItems.GetCatalogueItem)
	})

	r.Route("/v1/items", func(r chi.Router) {
		r.Post("/", items.CreateItem)
		r.Get("/", items.ListItems)
		r.Get("/{item_id}", items.GetItem)
		r.Patch("/{item_id}", items.MoveItem)
		r.Delete("/{item_id}", items.DeleteItem)
	})

	r.Route("/v1/systems", func(r chi.Router) {
		r.Post("/", systems.CreateSystem)
		r.Get("/", systems.ListSystems)
		r.Get("/{system_id}", systems.GetSystem)
	})

	r.Route("/v1/system-types", func(r chi.Router) {
		r.Get("/", systems.ListSystemTypes)
		r.Get("/{system_type_id}", systems.GetSystemType)
	})

	r.Route("/v1/usage-statuses", func(r chi.Router) {
		r.Post("/", usageStatuses.CreateUsageStatus)
		r.Get("/", usageStatuses.ListUsageStatuses)
		r.Get("/{usage_status_id}", usageStatuses.GetUsageStatus)
	})

	r.Route("/v1/rules", func(r chi.Router) {
		r.Post("/", rules.CreateRule)
		r.Get("/", rules.ListRules)
	})

	r.Route("/v1/settings", func(r chi.Router) {
		r.Get("/spares-definition", settings.GetSparesDefinition)
		r.Put("/spares-definition", settings.SetSparesDefinition)
	})

	if cfg.OtelEnabled {
		return otelhttp.NewHandler(r, "inventory-management-service")
	}
	return r
}
