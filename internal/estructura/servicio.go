package estructura

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/guardiaspro/api-estructuras/internal/itemcatalogo"
	"github.com/guardiaspro/api-estructuras/internal/logger"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"github.com/sirupsen/logrus"
)

const (
	recursoEstructuras = "estructuras"
	tablaItems         = "sueldo_items"
	tablaRoles         = "roles_servicio"
)

// Servicio orquesta la escritura de estructuras y sus líneas.
type Servicio struct {
	tx    Transactor
	auth  Autorizador
	notif Notificador
}

func NuevoServicio(tx Transactor, auth Autorizador, notif Notificador) *Servicio {
	return &Servicio{tx: tx, auth: auth, notif: notif}
}

func (s *Servicio) autorizar(ctx context.Context, accion string) error {
	if err := s.auth.Autorizar(ctx, accion, recursoEstructuras); err != nil {
		return nuevoError(http.StatusForbidden, CodigoProhibido, "no autorizado para "+accion+" estructuras", err)
	}
	return nil
}

/* ============================== Creación ============================== */

// CrearEstructura crea cabecera, línea de sueldo base y bonos en una sola transacción.
// Cualquier error deshace todo, incluida la versión anterior acortada.
func (s *Servicio) CrearEstructura(ctx context.Context, v Variante, sol SolicitudCreacion) (*Resultado, error) {
	if err := s.autorizar(ctx, "crear"); err != nil {
		return nil, err
	}
	clave, verr := sol.validar(v)
	if verr != nil {
		return nil, verr
	}

	log := logger.DesdeContexto(ctx).WithFields(logrus.Fields{
		"variante":       v,
		"clave":          clave.String(),
		"vigencia_desde": sol.VigenciaDesde.String(),
	})

	var (
		res      Resultado
		omitidos []string
	)
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		esq := u.Esquema()
		if err := verificarTablas(ctx, esq, v.TablaCabeceras(), v.TablaLineas(), tablaItems); err != nil {
			return err
		}
		if err := normalizarClave(ctx, esq, &clave); err != nil {
			return err
		}
		repo := u.Cabeceras()
		if v == VarianteServicio {
			if err := verificarRol(ctx, esq, repo, clave.RolServicioID); err != nil {
				return err
			}
		}

		version, err := repo.SiguienteVersion(ctx, clave)
		if err != nil {
			return errorDeBD(err, "error al calcular la versión")
		}
		cab := nuevaCabecera(clave, version, *sol.VigenciaDesde)
		cerrada, err := admitirCabecera(ctx, repo, cab)
		if err != nil {
			return err
		}

		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		// la versión acortada no puede dejar líneas fuera de su vigencia
		if cerrada != nil {
			if err := recortarLineas(ctx, lineas, cerrada.ID, cerrada.Intervalo()); err != nil {
				return err
			}
		}
		cat := u.Catalogo()
		base, err := cat.AsegurarSueldoBase(ctx)
		if err != nil {
			return errorDeBD(err, "error al resolver el ítem sueldo_base")
		}

		iv := vigencia.Abierto(cab.VigenciaDesde)
		lb := nuevaLinea(cab.ID, base, *sol.MontoBase, iv)
		if err := admitirLinea(ctx, lineas, lb); err != nil {
			return err
		}
		res = Resultado{Header: *cab, Lines: []Linea{*lb}, Cerrada: cerrada}

		for i, b := range sol.Bonos {
			item, motivo, err := resolverBono(ctx, cat, b.ItemRef)
			if err != nil {
				return errorDeBD(err, "error al resolver el bono "+b.ItemRef)
			}
			if motivo != "" {
				log.WithFields(logrus.Fields{"item_ref": b.ItemRef, "posicion": i, "motivo": motivo}).
					Warn("bono omitido")
				omitidos = append(omitidos, motivo)
				continue
			}
			l := nuevaLinea(cab.ID, item, *b.Monto, iv)
			if err := admitirLinea(ctx, lineas, l); err != nil {
				return err
			}
			res.Lines = append(res.Lines, *l)
		}
		return nil
	})
	if err != nil {
		e := ComoError(err)
		entry := log.WithField("code", e.Codigo)
		if e.Status >= http.StatusInternalServerError {
			entry.WithError(err).Error("crear estructura")
		} else {
			entry.Info("estructura rechazada: " + e.Mensaje)
		}
		return nil, e
	}

	registrarCreada(v)
	for _, m := range omitidos {
		registrarBonoOmitido(m)
	}
	entry := log.WithFields(logrus.Fields{"estructura_id": res.Header.ID, "version": res.Header.Version, "lineas": len(res.Lines)})
	if res.Cerrada != nil {
		entry = entry.WithFields(logrus.Fields{"cerrada_id": res.Cerrada.ID, "cerrada_hasta": res.Cerrada.VigenciaHasta.String()})
	}
	entry.Info("estructura creada")

	s.notificarCreada(ctx, clave, &res)
	return &res, nil
}

func nuevaCabecera(clave ClaveAlcance, version int, desde vigencia.Fecha) *Cabecera {
	cab := &Cabecera{
		Variante:      clave.Variante,
		Version:       version,
		VigenciaDesde: desde,
		Activo:        true,
	}
	if clave.Variante == VarianteGuardia {
		g := clave.GuardiaID
		cab.GuardiaID = &g
	} else {
		inst, rol := clave.InstalacionID, clave.RolServicioID
		cab.InstalacionID, cab.RolServicioID = &inst, &rol
	}
	return cab
}

// resolverBono devuelve el motivo de omisión, o "" si el bono se inserta.
func resolverBono(ctx context.Context, cat Catalogo, ref string) (*itemcatalogo.Item, string, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, "no_resuelto", nil
	}
	item, err := cat.ResolverPorIDOCodigo(ctx, ref)
	if errors.Is(err, itemcatalogo.ErrItemNoEncontrado) {
		return nil, "no_resuelto", nil
	}
	if err != nil {
		return nil, "", err
	}
	if !item.EsHaber() {
		return nil, "no_haber", nil
	}
	if strings.EqualFold(item.Codigo, itemcatalogo.CodigoSueldoBase) {
		return nil, "sueldo_base", nil
	}
	return item, "", nil
}

func (s *Servicio) notificarCreada(ctx context.Context, clave ClaveAlcance, res *Resultado) {
	if s.notif == nil {
		return
	}
	ev := Evento{
		Tipo:          "estructura.creada",
		EstructuraID:  res.Header.ID,
		Variante:      res.Header.Variante,
		Clave:         clave,
		Version:       res.Header.Version,
		VigenciaDesde: res.Header.VigenciaDesde,
		Lineas:        len(res.Lines),
	}
	if res.Cerrada != nil {
		ev.CerradaID = res.Cerrada.ID
		ev.CerradaHasta = res.Cerrada.VigenciaHasta
	}
	if err := s.notif.Notificar(ctx, ev); err != nil {
		logger.DesdeContexto(ctx).WithError(err).WithField("estructura_id", res.Header.ID).Warn("notificación de estructura falló")
	}
}

/* ============================== Cierre ============================== */

// Cerrar fija la vigencia_hasta de una cabecera abierta. Es terminal para esa versión.
// Las líneas activas se recortan a la nueva fecha; las que empiezan después se desactivan.
func (s *Servicio) Cerrar(ctx context.Context, v Variante, id string, sol SolicitudCierre) (*Cabecera, error) {
	if err := s.autorizar(ctx, "cerrar"); err != nil {
		return nil, err
	}
	if sol.VigenciaHasta == nil || sol.VigenciaHasta.IsZero() {
		return nil, errFaltanCampos("falta validity_to")
	}
	hasta := *sol.VigenciaHasta
	id, ok := normalizarUUID(id)
	if !ok {
		return nil, errNoEncontrado("estructura no encontrada")
	}

	var cab *Cabecera
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		if err := verificarTablas(ctx, u.Esquema(), v.TablaCabeceras(), v.TablaLineas()); err != nil {
			return err
		}
		repo := u.Cabeceras()
		c, err := buscarActiva(ctx, repo, v, id)
		if err != nil {
			return err
		}
		if !c.Intervalo().EsAbierto() {
			return nuevoError(http.StatusConflict, CodigoYaCerrada,
				fmt.Sprintf("la versión %d ya está cerrada hasta %s", c.Version, c.VigenciaHasta), nil)
		}
		cerrado := vigencia.Cerrado(c.VigenciaDesde, hasta)
		if !cerrado.Valido() {
			return errCamposInvalidos(fmt.Sprintf("validity_to no puede ser anterior a %s", c.VigenciaDesde))
		}
		if err := repo.FijarVigenciaHasta(ctx, v, c.ID, hasta); err != nil {
			return errorDeBD(err, "error al cerrar la estructura")
		}
		c.VigenciaHasta = &hasta

		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		if err := recortarLineas(ctx, lineas, c.ID, cerrado); err != nil {
			return err
		}
		cab = c
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	logger.DesdeContexto(ctx).WithFields(logrus.Fields{
		"estructura_id": cab.ID, "version": cab.Version, "vigencia_hasta": hasta.String(),
	}).Info("estructura cerrada")
	return cab, nil
}

// recortarLineas ajusta las líneas activas a la vigencia ya cerrada de su cabecera:
// las que quedan fuera se desactivan y las que la exceden terminan en iv.Hasta.
func recortarLineas(ctx context.Context, repo RepositorioLineas, estructuraID string, iv vigencia.Intervalo) error {
	if iv.EsAbierto() {
		return nil
	}
	activas, err := repo.Listar(ctx, estructuraID, true)
	if err != nil {
		return errorDeBD(err, "error al listar líneas")
	}
	for i := range activas {
		l := &activas[i]
		switch {
		case !l.Intervalo().Solapa(iv):
			if err := repo.Desactivar(ctx, l.ID); err != nil {
				return errorDeBD(err, "error al desactivar la línea "+l.ItemCodigo)
			}
		case l.Intervalo().EsAbierto() || l.VigenciaHasta.Despues(*iv.Hasta):
			h := *iv.Hasta
			l.VigenciaHasta = &h
			if err := repo.Actualizar(ctx, l); err != nil {
				return errorDeBD(err, "error al recortar la línea "+l.ItemCodigo)
			}
		}
	}
	return nil
}

/* ============================== Lectura ============================== */

// ListarEstructuras devuelve la línea de tiempo de una clave ordenada por versión.
func (s *Servicio) ListarEstructuras(ctx context.Context, clave ClaveAlcance) ([]Cabecera, error) {
	if !clave.Completa() {
		return nil, errFaltanCampos("faltan los parámetros de la clave de alcance")
	}
	var out []Cabecera
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		esq := u.Esquema()
		if err := verificarTablas(ctx, esq, clave.Variante.TablaCabeceras()); err != nil {
			return err
		}
		if err := normalizarClave(ctx, esq, &clave); err != nil {
			return err
		}
		cabs, err := u.Cabeceras().ListarCabeceras(ctx, clave)
		if err != nil {
			return errorDeBD(err, "error al listar estructuras")
		}
		out = cabs
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	if out == nil {
		out = []Cabecera{}
	}
	return out, nil
}

// ObtenerEstructura devuelve la cabecera con sus líneas activas.
func (s *Servicio) ObtenerEstructura(ctx context.Context, v Variante, id string) (*Resultado, error) {
	id, ok := normalizarUUID(id)
	if !ok {
		return nil, errNoEncontrado("estructura no encontrada")
	}
	var res *Resultado
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		if err := verificarTablas(ctx, u.Esquema(), v.TablaCabeceras(), v.TablaLineas()); err != nil {
			return err
		}
		cab, err := u.Cabeceras().BuscarCabecera(ctx, v, id, false)
		if err != nil {
			return errorDeBD(err, "error al buscar la estructura")
		}
		if cab == nil {
			return errNoEncontrado("estructura no encontrada")
		}
		lineas, err := u.Lineas(ctx, v)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar la tabla de líneas")
		}
		ls, err := lineas.Listar(ctx, cab.ID, true)
		if err != nil {
			return errorDeBD(err, "error al listar líneas")
		}
		if ls == nil {
			ls = []Linea{}
		}
		res = &Resultado{Header: *cab, Lines: ls}
		return nil
	})
	if err != nil {
		return nil, ComoError(err)
	}
	return res, nil
}

// ResolverVigente aplica la precedencia de la vista unificada: la estructura
// personal del guardia gana sobre la de su instalación + rol.
func (s *Servicio) ResolverVigente(ctx context.Context, q ConsultaVigente) (*EstructuraVigente, error) {
	if q.Fecha.IsZero() {
		return nil, errFaltanCampos("falta date")
	}
	var claves []ClaveAlcance
	if g := strings.TrimSpace(q.GuardiaID); g != "" {
		claves = append(claves, ClaveAlcance{Variante: VarianteGuardia, GuardiaID: g})
	}
	servicio := ClaveAlcance{
		Variante:      VarianteServicio,
		InstalacionID: strings.TrimSpace(q.InstalacionID),
		RolServicioID: strings.TrimSpace(q.RolServicioID),
	}
	switch {
	case servicio.Completa():
		claves = append(claves, servicio)
	case servicio.InstalacionID != "" || servicio.RolServicioID != "":
		return nil, errFaltanCampos("installation_id y service_role_id van juntos")
	}
	if len(claves) == 0 {
		return nil, errFaltanCampos("indique guard_id y/o installation_id + service_role_id")
	}

	var out *EstructuraVigente
	err := s.tx.Transaccion(ctx, func(u Unidad) error {
		esq := u.Esquema()
		consultadas := 0
		for _, clave := range claves {
			v := clave.Variante
			existe, err := tablasExisten(ctx, esq, v.TablaCabeceras(), v.TablaLineas())
			if err != nil {
				return errorDeBD(err, "error al inspeccionar el esquema")
			}
			if !existe {
				continue
			}
			consultadas++
			if err := normalizarClave(ctx, esq, &clave); err != nil {
				return err
			}
			cab, err := u.Cabeceras().Vigente(ctx, clave, q.Fecha)
			if err != nil {
				return errorDeBD(err, "error al buscar la estructura vigente")
			}
			if cab == nil {
				continue
			}
			lineas, err := u.Lineas(ctx, v)
			if err != nil {
				return errorDeBD(err, "error al inspeccionar la tabla de líneas")
			}
			ls, err := lineas.Listar(ctx, cab.ID, true)
			if err != nil {
				return errorDeBD(err, "error al listar líneas")
			}
			enVigor := make([]Linea, 0, len(ls))
			for _, l := range ls {
				if l.Intervalo().Contiene(q.Fecha) {
					enVigor = append(enVigor, l)
				}
			}
			out = &EstructuraVigente{Origen: v, Fecha: q.Fecha, Header: *cab, Lines: enVigor}
			return nil
		}
		if consultadas == 0 {
			return errFaltanTablas("faltan las tablas de estructuras; ejecute las migraciones", nil)
		}
		return errNoEncontrado("no hay estructura vigente para " + q.Fecha.String())
	})
	if err != nil {
		return nil, ComoError(err)
	}
	return out, nil
}

/* ============================== Auxiliares ============================== */

func tablasExisten(ctx context.Context, esq Esquema, tablas ...string) (bool, error) {
	for _, t := range tablas {
		ok, err := esq.TablaExiste(ctx, t)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func verificarTablas(ctx context.Context, esq Esquema, tablas ...string) error {
	for _, t := range tablas {
		ok, err := esq.TablaExiste(ctx, t)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar el esquema")
		}
		if !ok {
			return errFaltanTablas("falta la tabla "+t+"; ejecute las migraciones", nil)
		}
	}
	return nil
}

// normalizarClave valida cada id de la clave contra el tipo real de su columna
// y lo deja en forma canónica.
func normalizarClave(ctx context.Context, esq Esquema, clave *ClaveAlcance) error {
	tabla := clave.Variante.TablaCabeceras()
	for _, f := range clave.campos() {
		tipo, err := esq.TipoColumna(ctx, tabla, f.Columna)
		if err != nil {
			return errorDeBD(err, "error al inspeccionar el esquema")
		}
		if tipo == "" {
			return errFaltanTablas(fmt.Sprintf("falta la columna %s.%s; ejecute las migraciones", tabla, f.Columna), nil)
		}
		valor, ok := normalizarValor(tipo, *f.Valor)
		if !ok {
			if f.EsRol {
				return nuevoError(http.StatusBadRequest, CodigoRolTipoInvalido,
					fmt.Sprintf("service_role_id %q no es de tipo %s", *f.Valor, tipo), nil)
			}
			return nuevoError(http.StatusBadRequest, CodigoTipoInvalido,
				fmt.Sprintf("%s %q no es de tipo %s", f.Columna, *f.Valor, tipo), nil)
		}
		*f.Valor = valor
	}
	return nil
}

func normalizarValor(tipo, valor string) (string, bool) {
	valor = strings.TrimSpace(valor)
	switch strings.ToLower(tipo) {
	case "uuid":
		return normalizarUUID(valor)
	case "integer", "bigint", "smallint":
		n, err := strconv.ParseInt(valor, 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	}
	return valor, valor != ""
}

func normalizarUUID(s string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func verificarRol(ctx context.Context, esq Esquema, repo Repositorio, rolID string) error {
	existe, err := esq.TablaExiste(ctx, tablaRoles)
	if err != nil {
		return errorDeBD(err, "error al inspeccionar el esquema")
	}
	if !existe {
		return nil
	}
	ok, err := repo.RolServicioExiste(ctx, rolID)
	if err != nil {
		return errorDeBD(err, "error al verificar el rol de servicio")
	}
	if !ok {
		return nuevoError(http.StatusBadRequest, CodigoRolInvalido, "el rol de servicio "+rolID+" no existe", nil)
	}
	return nil
}

// buscarActiva bloquea la cabecera; inexistente o inactiva es NOT_FOUND.
func buscarActiva(ctx context.Context, repo Repositorio, v Variante, id string) (*Cabecera, error) {
	c, err := repo.BuscarCabecera(ctx, v, id, true)
	if err != nil {
		return nil, errorDeBD(err, "error al buscar la estructura")
	}
	if c == nil || !c.Activo {
		return nil, errNoEncontrado("estructura no encontrada")
	}
	return c, nil
}
