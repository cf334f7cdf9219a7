package estructura

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// huella resume el estado persistido para comparar antes y después de un rechazo.
func huella(m *memoria) string {
	var b strings.Builder
	for _, c := range m.cabeceras {
		fmt.Fprintf(&b, "%s:%d:%s|", c.ID, c.Version, c.Intervalo())
	}
	for _, l := range m.lineas {
		fmt.Fprintf(&b, "%s:%t:%s|", l.ID, l.Activo, l.Intervalo())
	}
	return b.String()
}

func verificarInvariantes(t *testing.T, m *memoria) {
	t.Helper()

	porClave := map[ClaveAlcance][]Cabecera{}
	for _, c := range m.cabeceras {
		porClave[c.Clave()] = append(porClave[c.Clave()], c)
	}
	for clave, cabs := range porClave {
		versiones := make([]int, 0, len(cabs))
		for _, c := range cabs {
			versiones = append(versiones, c.Version)
		}
		sort.Ints(versiones)
		for i, v := range versiones {
			require.Equal(t, i+1, v, "versiones de %s: %v", clave, versiones)
		}
		for i := range cabs {
			for j := i + 1; j < len(cabs); j++ {
				a, b := cabs[i], cabs[j]
				if a.Activo && b.Activo {
					require.False(t, a.Intervalo().Solapa(b.Intervalo()),
						"%s: v%d (%s) solapa v%d (%s)", clave, a.Version, a.Intervalo(), b.Version, b.Intervalo())
				}
			}
		}
	}

	for i := range m.lineas {
		for j := i + 1; j < len(m.lineas); j++ {
			a, b := m.lineas[i], m.lineas[j]
			if !a.Activo || !b.Activo || a.EstructuraID != b.EstructuraID || !strings.EqualFold(a.ItemCodigo, b.ItemCodigo) {
				continue
			}
			require.False(t, a.Intervalo().Solapa(b.Intervalo()), "líneas %s solapadas", a.ItemCodigo)
		}
	}

	// toda línea activa queda dentro de la vigencia de su cabecera
	for _, l := range m.lineas {
		if !l.Activo {
			continue
		}
		cab := m.cabecera(l.EstructuraID)
		require.True(t, l.Intervalo().Dentro(cab.Intervalo()),
			"línea %s (%s) fuera de v%d (%s)", l.ItemCodigo, l.Intervalo(), cab.Version, cab.Intervalo())
	}
}

func TestPropiedades_SecuenciaAleatoria(t *testing.T) {
	m, s, _ := nuevoEntorno()
	ctx := context.Background()
	r := rand.New(rand.NewSource(20240101))
	inicio := dia("2024-01-01")
	instalaciones := []string{instA, instB}

	for paso := 0; paso < 400; paso++ {
		inst := instalaciones[r.Intn(len(instalaciones))]

		if r.Intn(4) == 0 {
			var abiertas []Cabecera
			for _, c := range m.cabeceras {
				if c.Activo && c.VigenciaHasta == nil {
					abiertas = append(abiertas, c)
				}
			}
			if len(abiertas) == 0 {
				continue
			}
			c := abiertas[r.Intn(len(abiertas))]
			hasta := vigencia.Fecha{Time: c.VigenciaDesde.AddDate(0, 0, r.Intn(60))}
			cab, err := s.Cerrar(ctx, VarianteServicio, c.ID, SolicitudCierre{VigenciaHasta: &hasta})
			require.NoError(t, err, "paso %d", paso)
			assert.Equal(t, hasta.String(), cab.VigenciaHasta.String())
			verificarInvariantes(t, m)
			continue
		}

		desde := vigencia.Fecha{Time: inicio.AddDate(0, 0, r.Intn(365))}
		antes := huella(m)
		res, err := s.CrearEstructura(ctx, VarianteServicio, solServicio(inst, desde.String(), "1000", bono("bono_turno", "10")))
		if err != nil {
			require.Equal(t, CodigoSolape, codigo(t, err), "paso %d", paso)
			require.NotEmpty(t, ComoError(err).Conflictos)
			require.Equal(t, antes, huella(m), "paso %d: un rechazo no deja rastro", paso)
			verificarInvariantes(t, m)
			continue
		}

		require.Nil(t, res.Header.VigenciaHasta)
		require.Equal(t, desde.String(), res.Header.VigenciaDesde.String())
		if res.Cerrada != nil {
			require.Equal(t, desde.DiaAnterior().String(), res.Cerrada.VigenciaHasta.String())
			require.False(t, res.Cerrada.VigenciaHasta.Antes(res.Cerrada.VigenciaDesde))
		}
		verificarInvariantes(t, m)
	}
}
