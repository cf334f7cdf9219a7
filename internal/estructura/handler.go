package estructura

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/guardiaspro/api-estructuras/internal/utils"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
)

// Handler expone las tres superficies: por instalación, por guardia y unificada.
type Handler struct {
	Servicio *Servicio
	// Hoy es la fecha por defecto de la vista unificada.
	Hoy func() vigencia.Fecha
}

func NewHandler(s *Servicio) *Handler {
	return &Handler{Servicio: s, Hoy: vigencia.Hoy}
}

// Registrar monta las rutas en el router.
func (h *Handler) Registrar(r *mux.Router) {
	// instalación + rol
	r.HandleFunc("/estructuras/instalacion", h.crear(VarianteServicio)).Methods("POST")
	r.HandleFunc("/estructuras/instalacion", h.listar(VarianteServicio)).Methods("GET")
	r.HandleFunc("/estructuras/instalacion/{id}", h.obtener(VarianteServicio)).Methods("GET")
	r.HandleFunc("/estructuras/instalacion/{id}/cerrar", h.cerrar(VarianteServicio)).Methods("POST")

	// guardia
	r.HandleFunc("/estructuras-guardia", h.crear(VarianteGuardia)).Methods("POST")
	r.HandleFunc("/estructuras-guardia", h.listar(VarianteGuardia)).Methods("GET")
	r.HandleFunc("/estructuras-guardia/{id}", h.obtener(VarianteGuardia)).Methods("GET")
	r.HandleFunc("/estructuras-guardia/{id}/cerrar", h.cerrar(VarianteGuardia)).Methods("POST")
	r.HandleFunc("/estructuras-guardia/{id}/lineas", h.agregarLinea(VarianteGuardia)).Methods("POST")
	r.HandleFunc("/estructuras-guardia/{id}/lineas/{lid}", h.editarLinea(VarianteGuardia)).Methods("PUT")
	r.HandleFunc("/estructuras-guardia/{id}/lineas/{lid}/desactivar", h.desactivarLinea(VarianteGuardia)).Methods("POST")

	// unificada
	r.HandleFunc("/estructuras-unificadas", h.Vigente).Methods("GET")
	r.HandleFunc("/estructuras-unificadas", h.CrearUnificada).Methods("POST")
	r.HandleFunc("/estructuras-unificadas/{tipo}/{id}/lineas", h.porTipo(h.agregarLinea)).Methods("POST")
	r.HandleFunc("/estructuras-unificadas/{tipo}/{id}/lineas/{lid}", h.porTipo(h.editarLinea)).Methods("PUT")
	r.HandleFunc("/estructuras-unificadas/{tipo}/{id}/lineas/{lid}/desactivar", h.porTipo(h.desactivarLinea)).Methods("POST")
}

// RespondError escribe el cuerpo de error de la API a partir de un error del servicio.
func RespondError(w http.ResponseWriter, err error) {
	e := ComoError(err)
	body := utils.ErrorResponse{Code: string(e.Codigo), Error: e.Mensaje, Item: e.Item}
	if len(e.Conflictos) > 0 {
		body.ConflictingStructures = e.Conflictos
	}
	utils.RespondJSON(w, e.Status, body)
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := utils.DecodeJSON(r, dst); err != nil {
		return errCamposInvalidos("JSON mal formado: " + err.Error())
	}
	return nil
}

// POST /api/estructuras/instalacion
// POST /api/estructuras-guardia
func (h *Handler) crear(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sol SolicitudCreacion
		if err := decode(r, &sol); err != nil {
			RespondError(w, err)
			return
		}
		res, err := h.Servicio.CrearEstructura(r.Context(), v, sol)
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, res)
	}
}

// POST /api/estructuras-unificadas
func (h *Handler) CrearUnificada(w http.ResponseWriter, r *http.Request) {
	var sol SolicitudCreacion
	if err := decode(r, &sol); err != nil {
		RespondError(w, err)
		return
	}
	v, err := VarianteDeAlcance(sol.Alcance)
	if err != nil {
		RespondError(w, err)
		return
	}
	res, err := h.Servicio.CrearEstructura(r.Context(), v, sol)
	if err != nil {
		RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, res)
}

// GET /api/estructuras/instalacion?installation_id=&service_role_id=
// GET /api/estructuras-guardia?guard_id=
func (h *Handler) listar(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		clave := ClaveAlcance{Variante: v}
		if v == VarianteGuardia {
			clave.GuardiaID = strings.TrimSpace(q.Get("guard_id"))
		} else {
			clave.InstalacionID = strings.TrimSpace(q.Get("installation_id"))
			clave.RolServicioID = strings.TrimSpace(q.Get("service_role_id"))
		}
		cabs, err := h.Servicio.ListarEstructuras(r.Context(), clave)
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, cabs)
	}
}

// GET /api/estructuras/instalacion/{id}
// GET /api/estructuras-guardia/{id}
func (h *Handler) obtener(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Servicio.ObtenerEstructura(r.Context(), v, mux.Vars(r)["id"])
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, res)
	}
}

// POST /api/estructuras/instalacion/{id}/cerrar
// POST /api/estructuras-guardia/{id}/cerrar
func (h *Handler) cerrar(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sol SolicitudCierre
		if err := decode(r, &sol); err != nil {
			RespondError(w, err)
			return
		}
		cab, err := h.Servicio.Cerrar(r.Context(), v, mux.Vars(r)["id"], sol)
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, cab)
	}
}

// POST /api/estructuras-guardia/{id}/lineas
func (h *Handler) agregarLinea(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sol SolicitudLinea
		if err := decode(r, &sol); err != nil {
			RespondError(w, err)
			return
		}
		l, err := h.Servicio.AgregarLinea(r.Context(), v, mux.Vars(r)["id"], sol)
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, l)
	}
}

// PUT /api/estructuras-guardia/{id}/lineas/{lid}
func (h *Handler) editarLinea(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sol SolicitudEdicionLinea
		if err := decode(r, &sol); err != nil {
			RespondError(w, err)
			return
		}
		vars := mux.Vars(r)
		l, err := h.Servicio.EditarLinea(r.Context(), v, vars["id"], vars["lid"], sol)
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, l)
	}
}

// POST /api/estructuras-guardia/{id}/lineas/{lid}/desactivar
func (h *Handler) desactivarLinea(v Variante) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		l, err := h.Servicio.DesactivarLinea(r.Context(), v, vars["id"], vars["lid"])
		if err != nil {
			RespondError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, l)
	}
}

// porTipo resuelve {tipo} (servicio|guardia) de las rutas unificadas.
func (h *Handler) porTipo(fn func(Variante) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := ParseVariante(mux.Vars(r)["tipo"])
		if !ok {
			RespondError(w, errNoEncontrado("tipo de estructura desconocido"))
			return
		}
		fn(v)(w, r)
	}
}

// GET /api/estructuras-unificadas?guard_id=&installation_id=&service_role_id=&date=
func (h *Handler) Vigente(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	consulta := ConsultaVigente{
		GuardiaID:     q.Get("guard_id"),
		InstalacionID: q.Get("installation_id"),
		RolServicioID: q.Get("service_role_id"),
		Fecha:         h.Hoy(),
	}
	if s := strings.TrimSpace(q.Get("date")); s != "" {
		f, err := vigencia.ParseFecha(s)
		if err != nil {
			RespondError(w, errCamposInvalidos("date debe tener formato YYYY-MM-DD"))
			return
		}
		consulta.Fecha = f
	}
	res, err := h.Servicio.ResolverVigente(r.Context(), consulta)
	if err != nil {
		RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}
