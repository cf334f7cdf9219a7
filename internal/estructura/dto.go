package estructura

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guardiaspro/api-estructuras/internal/vigencia"
	"github.com/shopspring/decimal"
)

var validate = nuevoValidador()

// nuevoValidador reporta los campos con su nombre JSON.
func nuevoValidador() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// AlcanceDTO es la clave de alcance tal como llega en el request.
type AlcanceDTO struct {
	InstalacionID string `json:"installation_id"`
	RolServicioID string `json:"service_role_id"`
	GuardiaID     string `json:"guard_id"`
}

// LineaBonoDTO es un bono opcional de la creación.
type LineaBonoDTO struct {
	// ItemRef vacío no invalida la solicitud: el bono se omite como no resuelto.
	ItemRef string           `json:"item_ref"`
	Monto   *decimal.Decimal `json:"amount" validate:"required"`
}

// SolicitudCreacion es el body de creación de estructura.
type SolicitudCreacion struct {
	Alcance       *AlcanceDTO      `json:"scope" validate:"required"`
	VigenciaDesde *vigencia.Fecha  `json:"validity_from" validate:"required"`
	MontoBase     *decimal.Decimal `json:"base_amount" validate:"required"`
	Bonos         []LineaBonoDTO   `json:"bonus_lines" validate:"omitempty,dive"`
}

// VarianteDeAlcance decide la variante por la forma del scope.
func VarianteDeAlcance(a *AlcanceDTO) (Variante, error) {
	if a == nil {
		return "", errFaltanCampos("falta scope")
	}
	guardia := strings.TrimSpace(a.GuardiaID) != ""
	servicio := strings.TrimSpace(a.InstalacionID) != "" || strings.TrimSpace(a.RolServicioID) != ""
	switch {
	case guardia && servicio:
		return "", errCamposInvalidos("scope debe indicar guard_id o installation_id + service_role_id, no ambos")
	case guardia:
		return VarianteGuardia, nil
	case servicio:
		return VarianteServicio, nil
	}
	return "", errFaltanCampos("scope requiere guard_id o installation_id + service_role_id")
}

// validar revisa presencia y forma; cero es un monto base válido, nulo no.
func (s SolicitudCreacion) validar(v Variante) (ClaveAlcance, *Error) {
	if err := validate.Struct(s); err != nil {
		return ClaveAlcance{}, errValidacion(err)
	}
	if s.VigenciaDesde.IsZero() {
		return ClaveAlcance{}, errFaltanCampos("falta validity_from")
	}
	if s.MontoBase.IsNegative() {
		return ClaveAlcance{}, errCamposInvalidos("base_amount no puede ser negativo")
	}
	for i, b := range s.Bonos {
		if b.Monto.IsNegative() {
			return ClaveAlcance{}, errCamposInvalidos("bonus_lines[" + strconv.Itoa(i) + "].amount no puede ser negativo")
		}
	}

	clave := ClaveAlcance{
		Variante:      v,
		InstalacionID: strings.TrimSpace(s.Alcance.InstalacionID),
		RolServicioID: strings.TrimSpace(s.Alcance.RolServicioID),
		GuardiaID:     strings.TrimSpace(s.Alcance.GuardiaID),
	}
	switch v {
	case VarianteServicio:
		if clave.GuardiaID != "" {
			return ClaveAlcance{}, errCamposInvalidos("guard_id no aplica a estructuras de instalación")
		}
		if !clave.Completa() {
			return ClaveAlcance{}, errFaltanCampos("scope requiere installation_id y service_role_id")
		}
	case VarianteGuardia:
		if clave.InstalacionID != "" || clave.RolServicioID != "" {
			return ClaveAlcance{}, errCamposInvalidos("installation_id/service_role_id no aplican a estructuras de guardia")
		}
		if !clave.Completa() {
			return ClaveAlcance{}, errFaltanCampos("scope requiere guard_id")
		}
	default:
		return ClaveAlcance{}, errCamposInvalidos("variante desconocida")
	}
	return clave, nil
}

// SolicitudCierre es el body de POST .../{id}/cerrar.
type SolicitudCierre struct {
	VigenciaHasta *vigencia.Fecha `json:"validity_to" validate:"required"`
}

// SolicitudLinea es el body para agregar una línea a una estructura existente.
type SolicitudLinea struct {
	ItemRef       string           `json:"item_ref" validate:"required"`
	Monto         *decimal.Decimal `json:"amount" validate:"required"`
	VigenciaDesde *vigencia.Fecha  `json:"validity_from"`
	VigenciaHasta *vigencia.Fecha  `json:"validity_to"`
}

// SolicitudEdicionLinea cambia monto y/o vigencia; lo omitido se mantiene.
type SolicitudEdicionLinea struct {
	Monto         *decimal.Decimal `json:"amount"`
	VigenciaDesde *vigencia.Fecha  `json:"validity_from"`
	VigenciaHasta *vigencia.Fecha  `json:"validity_to"`
}

// ConsultaVigente son los parámetros de la vista unificada.
type ConsultaVigente struct {
	GuardiaID     string
	InstalacionID string
	RolServicioID string
	Fecha         vigencia.Fecha
}

func errValidacion(err error) *Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errCamposInvalidos(err.Error())
	}
	var faltan, invalidos []string
	for _, fe := range ve {
		campo := fe.Namespace()
		if i := strings.Index(campo, "."); i >= 0 {
			campo = campo[i+1:]
		}
		if fe.Tag() == "required" {
			faltan = append(faltan, campo)
		} else {
			invalidos = append(invalidos, campo)
		}
	}
	if len(faltan) > 0 {
		return errFaltanCampos("faltan campos: " + strings.Join(faltan, ", "))
	}
	return errCamposInvalidos("campos inválidos: " + strings.Join(invalidos, ", "))
}
