package estructura

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/guardiaspro/api-estructuras/internal/vigencia"
)

/* ============================ Cabeceras ============================ */

// admitirCabecera inserta una cabecera abierta [desde, +inf).
// Si choca con otra vigencia intenta, una sola vez, cerrar la versión abierta
// más reciente el día anterior y reintenta. Devuelve la cabecera acortada, si la hubo.
func admitirCabecera(ctx context.Context, repo Repositorio, cab *Cabecera) (*Cabecera, error) {
	err := repo.InsertarCabecera(ctx, cab)
	if err == nil {
		return nil, nil
	}
	if clasificar(err) != fallaSolape {
		return nil, errorDeBD(err, "error al insertar la estructura")
	}

	clave := cab.Clave()
	desde := cab.VigenciaDesde

	// foto de los conflictos antes de reparar: es lo que queda si no se admite
	conflictos, err := conflictosCabecera(ctx, repo, clave, desde)
	if err != nil {
		return nil, err
	}

	previa, err := repo.SolapadaMasReciente(ctx, clave, desde)
	if err != nil {
		return nil, errorDeBD(err, "error al buscar la versión anterior")
	}
	if !reparable(previa, desde) {
		return nil, errSolape(desde, conflictos)
	}

	hasta := desde.DiaAnterior()
	if err := repo.FijarVigenciaHasta(ctx, previa.Variante, previa.ID, hasta); err != nil {
		return nil, errorDeBD(err, "error al cerrar la versión anterior")
	}
	if err := repo.InsertarCabecera(ctx, cab); err != nil {
		if clasificar(err) != fallaSolape {
			return nil, errorDeBD(err, "error al insertar la estructura")
		}
		// otra cabecera sigue chocando; no se repara dos veces
		return nil, errSolape(desde, conflictos)
	}

	previa.VigenciaHasta = &hasta
	registrarAutoCierre(previa.Variante)
	return previa, nil
}

// reparable: solo se acorta una versión abierta que empezó antes de desde.
func reparable(previa *Cabecera, desde vigencia.Fecha) bool {
	if previa == nil || !previa.Intervalo().EsAbierto() {
		return false
	}
	return !desde.DiaAnterior().Antes(previa.VigenciaDesde)
}

func conflictosCabecera(ctx context.Context, repo Repositorio, clave ClaveAlcance, desde vigencia.Fecha) ([]Conflicto, error) {
	solapadas, err := repo.Solapadas(ctx, clave, desde)
	if err != nil {
		return nil, errorDeBD(err, "error al listar estructuras en conflicto")
	}
	sort.SliceStable(solapadas, func(i, j int) bool {
		return solapadas[i].VigenciaDesde.Antes(solapadas[j].VigenciaDesde)
	})
	out := make([]Conflicto, 0, len(solapadas))
	for _, c := range solapadas {
		out = append(out, Conflicto{
			ID:            c.ID,
			Version:       c.Version,
			VigenciaDesde: c.VigenciaDesde,
			VigenciaHasta: c.VigenciaHasta,
			CubreInicio:   c.Intervalo().Contiene(desde),
		})
	}
	return out, nil
}

func errSolape(desde vigencia.Fecha, conflictos []Conflicto) *Error {
	registrarConflicto("solape")

	var cubren []string
	for _, c := range conflictos {
		if c.CubreInicio {
			cubren = append(cubren, describirConflicto(c))
		}
	}
	msg := "la vigencia se solapa con una estructura existente"
	switch {
	case len(cubren) > 0:
		msg = fmt.Sprintf("la fecha %s ya está cubierta por %s", desde, strings.Join(cubren, ", "))
	case len(conflictos) > 0:
		todas := make([]string, 0, len(conflictos))
		for _, c := range conflictos {
			todas = append(todas, describirConflicto(c))
		}
		msg = fmt.Sprintf("una vigencia abierta desde %s se solapa con %s", desde, strings.Join(todas, ", "))
	}

	e := nuevoError(http.StatusConflict, CodigoSolape, msg, nil)
	e.Conflictos = conflictos
	return e
}

func describirConflicto(c Conflicto) string {
	iv := vigencia.Intervalo{Desde: c.VigenciaDesde, Hasta: c.VigenciaHasta}
	return fmt.Sprintf("la versión %d (%s)", c.Version, iv)
}

/* ============================== Líneas ============================== */

// admitirLinea verifica e inserta una línea. Las líneas nunca se reparan solas.
func admitirLinea(ctx context.Context, repo RepositorioLineas, l *Linea) error {
	if err := verificarLinea(ctx, repo, l); err != nil {
		return err
	}
	if err := repo.Insertar(ctx, l); err != nil {
		if clasificar(err) == fallaSolape {
			return errSolapeItem(l.ItemCodigo, nil)
		}
		return errorDeBD(err, "error al insertar la línea "+l.ItemCodigo)
	}
	return nil
}

// verificarLinea es la consulta previa; la restricción de exclusión sigue siendo la guardia real.
func verificarLinea(ctx context.Context, repo RepositorioLineas, l *Linea) error {
	solapadas, err := repo.Solapadas(ctx, l.EstructuraID, l.ItemCodigo, l.Intervalo(), l.ID)
	if err != nil {
		return errorDeBD(err, "error al verificar líneas del ítem "+l.ItemCodigo)
	}
	if len(solapadas) > 0 {
		return errSolapeItem(l.ItemCodigo, solapadas)
	}
	return nil
}

func errSolapeItem(codigo string, solapadas []Linea) *Error {
	registrarConflicto("item")

	msg := fmt.Sprintf("el ítem %s ya tiene una línea activa que se solapa", codigo)
	if len(solapadas) > 0 {
		rangos := make([]string, 0, len(solapadas))
		for _, s := range solapadas {
			rangos = append(rangos, s.Intervalo().String())
		}
		msg += " (" + strings.Join(rangos, ", ") + ")"
	}
	e := nuevoError(http.StatusConflict, CodigoSolapeItem, msg, nil)
	e.Item = codigo
	return e
}
