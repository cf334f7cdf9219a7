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

	"github.com/guardiaspro/api-estructuras/internal/auth"
	"github.com/guardiaspro/api-estructuras/internal/config"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/migrations"
	"github.com/guardiaspro/api-estructuras/internal/notificacion"
	"github.com/guardiaspro/api-estructuras/internal/utils/db"
	"github.com/spf13/cobra"
)

func main() {
	if err := nuevoRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func nuevoRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "api-estructuras",
		Short:        "API de estructuras de sueldo por instalación, rol y guardia",
		SilenceUsage: true,
	}
	cmd.AddCommand(cmdServir(), cmdMigrar(), cmdToken())
	return cmd
}

/* ============================== serve ============================== */

func cmdServir() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Cargar()
			if err != nil {
				return err
			}
			log := logger.Nuevo(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gormDB, err := db.ConnectDataBase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if cfg.Database.AutoMigrate {
				if err := migrations.Up(ctx, sqlDB); err != nil {
					return err
				}
				log.Info("migraciones aplicadas")
			}

			deps := dependencias{
				DB:          gormDB,
				Log:         log,
				Notificador: notificacion.NuevoWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout),
				Metricas:    cfg.Metrics,
				Origenes:    cfg.AllowedOrigins,
			}
			if cfg.Auth.Enabled {
				deps.Llaves, err = auth.CargarLlaves(cfg.Auth)
				if err != nil {
					return err
				}
			} else {
				log.Warn("AUTH_ENABLED=false: todas las escrituras quedan autorizadas")
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           nuevoRouter(deps),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.WithField("port", cfg.Port).Info("servidor escuchando")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			log.Info("apagando servidor")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

/* ============================== migrate ============================== */

func cmdMigrar() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Cargar()
			if err != nil {
				return err
			}
			log := logger.Nuevo(cfg.Log.Level, cfg.Log.Format)

			gormDB, err := db.ConnectDataBase(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := migrations.Up(cmd.Context(), sqlDB); err != nil {
				return err
			}
			log.Info("migraciones aplicadas")
			return nil
		},
	}
}

/* ============================== token ============================== */

func cmdToken() *cobra.Command {
	var (
		userID   string
		admin    bool
		permisos []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Firma un access token con la llave local (uso operativo)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.CargarAuth()
			if err != nil {
				return err
			}
			llaves, err := auth.CargarLlaves(*opts)
			if err != nil {
				return err
			}
			tok, err := llaves.GenerarAccessToken(userID, admin, permisos)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id del usuario (sub)")
	cmd.Flags().BoolVar(&admin, "admin", false, "emite el token como administrador")
	cmd.Flags().StringSliceVar(&permisos, "perm", nil, `permisos "recurso:accion", ej. estructuras:crear`)
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
