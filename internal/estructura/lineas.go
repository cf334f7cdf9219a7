package estructura

import (
	"context"
	"errors"
	"fmt"

	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"github.com/sirupsen/logrus"
)

// AgregarLinea suma una línea a una estructura existente.
// La vigencia por defecto es la de la cabecera y debe quedar dentro de ella.
func (s *Servicio) AgregarLinea(ctx context.Context, v Variante, estructuraID string, sol SolicitudLinea) (*Linea, error) {
	if err := s.autorizar(ctx, "editar"); err != nil {
		return nil, err
	}
	if err := validate.Struct(sol); err != nil {
		return nil, errValidacion(err)
	}
	if sol.Monto.IsNegative() {
		return nil, errCamposInvalidos("amount no puede ser negativo")
	}
	estructuraID, ok := normalizarUUID(estructuraID)
	if !ok {
		return nil, errNoEncontrado("estructura no encontrada")
	}

	var out *Linea
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		if err := verificarTablas(ctx, u.Esquema(), v.TablaCabeceras(), v.TablaLineas(), tablaItems); err != nil {
			return err
		}
		cab, err := buscarActiva(ctx, u.Cabeceras(), v, estructuraID)
		if err != nil {
			return err
		}
		item, err := u.Catalogo().ResolverPorIDOCodigo(ctx, sol.ItemRef)
		if errors.Is(err, itemcatalogo.ErrItemNoEncontrado) {
			return errNoEncontrado("ítem " + sol.ItemRef + " no encontrado")
		}
		if err != nil {
			return errorDeBD(err, "error al resolver el ítem "+sol.ItemRef)
		}

		iv := cab.Intervalo()
		if sol.VigenciaDesde != nil && !sol.VigenciaDesde.IsZero() {
			iv.Desde = *sol.VigenciaDesde
		}
		if sol.VigenciaHasta != nil && !sol.VigenciaHasta.IsZero() {
			h := *sol.VigenciaHasta
			iv.Hasta = &h
		}
		if err := validarVigenciaLinea(iv, cab); err != nil {
			return err
		}

		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		l := nuevaLinea(cab.ID, item, *sol.Monto, iv)
		if err := admitirLinea(ctx, lineas, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	logger.DesdeContexto(ctx).WithFields(logrus.Fields{
		"estructura_id": estructuraID, "linea_id": out.ID, "item": out.ItemCodigo,
	}).Info("línea agregada")
	return out, nil
}

// EditarLinea cambia monto y/o vigencia de una línea activa.
func (s *Servicio) EditarLinea(ctx context.Context, v Variante, estructuraID, lineaID string, sol SolicitudEdicionLinea) (*Linea, error) {
	if err := s.autorizar(ctx, "editar"); err != nil {
		return nil, err
	}
	if sol.Monto == nil && sol.VigenciaDesde == nil && sol.VigenciaHasta == nil {
		return nil, errFaltanCampos("indique amount, validity_from o validity_to")
	}
	if sol.Monto != nil && sol.Monto.IsNegative() {
		return nil, errCamposInvalidos("amount no puede ser negativo")
	}
	estructuraID, ok1 := normalizarUUID(estructuraID)
	lineaID, ok2 := normalizarUUID(lineaID)
	if !ok1 || !ok2 {
		return nil, errNoEncontrado("línea no encontrada")
	}

	var out *Linea
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		if err := verificarTablas(ctx, u.Esquema(), v.TablaCabeceras(), v.TablaLineas()); err != nil {
			return err
		}
		cab, err := buscarActiva(ctx, u.Cabeceras(), v, estructuraID)
		if err != nil {
			return err
		}
		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		l, err := lineas.BuscarPorID(ctx, cab.ID, lineaID)
		if err != nil {
			return errorDeBD(err, "error al buscar la línea")
		}
		if l == nil || !l.Activo {
			return errNoEncontrado("línea no encontrada")
		}

		if sol.Monto != nil {
			l.Monto = *sol.Monto
		}
		if sol.VigenciaDesde != nil && !sol.VigenciaDesde.IsZero() {
			l.VigenciaDesde = *sol.VigenciaDesde
		}
		if sol.VigenciaHasta != nil && !sol.VigenciaHasta.IsZero() {
			h := *sol.VigenciaHasta
			l.VigenciaHasta = &h
		}
		if err := validarVigenciaLinea(l.Intervalo(), cab); err != nil {
			return err
		}
		if err := verificarLinea(ctx, lineas, l); err != nil {
			return err
		}
		if err := lineas.Actualizar(ctx, l); err != nil {
			if clasificar(err) == fallaSolape {
				return errSolapeItem(l.ItemCodigo, nil)
			}
			return errorDeBD(err, "error al actualizar la línea")
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	logger.DesdeContexto(ctx).WithFields(logrus.Fields{
		"estructura_id": estructuraID, "linea_id": out.ID, "item": out.ItemCodigo,
	}).Info("línea actualizada")
	return out, nil
}

// DesactivarLinea marca la línea como inactiva. Repetir la llamada no falla.
func (s *Servicio) DesactivarLinea(ctx context.Context, v Variante, estructuraID, lineaID string) (*Linea, error) {
	if err := s.autorizar(ctx, "editar"); err != nil {
		return nil, err
	}
	estructuraID, ok1 := normalizarUUID(estructuraID)
	lineaID, ok2 := normalizarUUID(lineaID)
	if !ok1 || !ok2 {
		return nil, errNoEncontrado("línea no encontrada")
	}

	var out *Linea
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		if err := verificarTablas(ctx, u.Esquema(), v.TablaCabeceras(), v.TablaLineas()); err != nil {
			return err
		}
		cab, err := buscarActiva(ctx, u.Cabeceras(), v, estructuraID)
		if err != nil {
			return err
		}
		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		l, err := lineas.BuscarPorID(ctx, cab.ID, lineaID)
		if err != nil {
			return errorDeBD(err, "error al buscar la línea")
		}
		if l == nil {
			return errNoEncontrado("línea no encontrada")
		}
		if l.Activo {
			if err := lineas.Desactivar(ctx, l.ID); err != nil {
				return errorDeBD(err, "error al desactivar la línea")
			}
			l.Activo = false
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	return out, nil
}

func validarVigenciaLinea(iv vigencia.Intervalo, cab *Cabecera) error {
	if !iv.Valido() {
		return errCamposInvalidos("validity_to no puede ser anterior a validity_from")
	}
	if !iv.Dentro(cab.Intervalo()) {
		return errCamposInvalidos(fmt.Sprintf("la vigencia de la línea (%s) debe quedar dentro de la estructura (%s)", iv, cab.Intervalo()))
	}
	return nil
}
