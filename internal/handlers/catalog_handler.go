// internal/handlers/catalog_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"
)

// CatalogHandler は読み込み済みのカタログをそのまま返すだけのハンドラです。
// カタログは不変のため、サービス層を挟まず直接参照します。
type CatalogHandler struct {
	catalog *model.Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *model.Catalog, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCatalog"))
	webutil.RespondWithJSON(w, http.StatusOK, h.catalog, logger)
}
