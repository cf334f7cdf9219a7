package itemcatalogo

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/utils"
	"github.com/sirupsen/logrus"
)

// Autorizador decide si el usuario del contexto puede ejecutar la acción.
type Autorizador interface {
	Autorizar(ctx context.Context, accion, recurso string) error
}

const recursoItems = "items"

// Handler expone el catálogo de ítems de sueldo.
type Handler struct {
	Repo     *Repository
	Auth     Autorizador
	validate *validator.Validate
}

func NewHandler(repo *Repository, auth Autorizador) *Handler {
	return &Handler{Repo: repo, Auth: auth, validate: validator.New()}
}

// GET /api/items
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.Listar(r.Context())
	if err != nil {
		logger.DesdeContexto(r.Context()).WithError(err).Error("listar items")
		utils.RespondError(w, http.StatusInternalServerError, "INTERNAL", "Error al listar ítems")
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// POST /api/items
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Auth.Autorizar(ctx, "crear", recursoItems); err != nil {
		utils.RespondError(w, http.StatusForbidden, "FORBIDDEN", "No autorizado para crear ítems")
		return
	}

	defer r.Body.Close()
	var dto CrearItemDTO
	if err := utils.DecodeJSON(r, &dto); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "INVALID_FIELDS", "JSON mal formado")
		return
	}
	dto.normalizar()
	if err := h.validate.Struct(dto); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "INVALID_FIELDS", err.Error())
		return
	}
	if dto.TopeMonto != nil && dto.TopeMonto.IsNegative() {
		utils.RespondError(w, http.StatusBadRequest, "INVALID_FIELDS", "cap_amount no puede ser negativo")
		return
	}

	item := dto.toModel()
	if err := h.Repo.Crear(ctx, item); err != nil {
		if errors.Is(err, ErrCodigoDuplicado) {
			utils.RespondError(w, http.StatusConflict, "ITEM_CODE_CONFLICT", "Ya existe un ítem con el código "+dto.Codigo)
			return
		}
		logger.DesdeContexto(ctx).WithError(err).Error("crear item")
		utils.RespondError(w, http.StatusInternalServerError, "INTERNAL", "Error al crear ítem")
		return
	}

	logger.DesdeContexto(ctx).WithFields(logrus.Fields{"item_id": item.ID, "codigo": item.Codigo}).Info("item creado")
	utils.RespondJSON(w, http.StatusCreated, item)
}
