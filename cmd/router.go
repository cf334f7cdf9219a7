package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/guardiaspro/api-estructuras/internal/auth"
	"github.com/guardiaspro/api-estructuras/internal/config"
	"github.com/guardiaspro/api-estructuras/internal/estructura"
	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type dependencias struct {
	DB *gorm.DB
	// Llaves nil deja la API sin autenticación.
	Llaves      *auth.Llaves
	Notificador estructura.Notificador
	Log         *logrus.Logger
	Metricas    config.MetricsOptions
	Origenes    []string
}

func nuevoRouter(d dependencias) http.Handler {
	r := mux.NewRouter()

	// GET /health
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(req.Context())
		}
		if err != nil {
			logger.DesdeContexto(req.Context()).WithError(err).Warn("health: base no disponible")
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_unavailable"})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	if d.Metricas.Enabled {
		r.Handle(d.Metricas.Path, promhttp.Handler()).Methods("GET")
	}

	var autorizador estructura.Autorizador = auth.PermitirTodo{}
	api := r.PathPrefix("/api").Subrouter()
	if d.Llaves != nil {
		// GET /.well-known/jwks.json
		r.HandleFunc("/.well-known/jwks.json", d.Llaves.JWKSHandler).Methods("GET")
		api.Use(auth.Middleware(d.Llaves))
		autorizador = auth.Autorizador{}
	}

	// Catálogo de ítems
	items := itemcatalogo.NewHandler(itemcatalogo.NewRepository(d.DB), autorizador)
	api.HandleFunc("/items", items.Listar).Methods("GET")
	api.HandleFunc("/items", items.Crear).Methods("POST")

	// Estructuras
	svc := estructura.NuevoServicio(estructura.NewTransactor(d.DB), autorizador, d.Notificador)
	estructura.NewHandler(svc).Registrar(api)

	c := cors.New(cors.Options{
		AllowedOrigins:   d.Origenes,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})
	return logger.Middleware(d.Log)(c.Handler(r))
}
