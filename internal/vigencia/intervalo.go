package vigencia

// Intervalo es la vigencia de una estructura o línea.
// Hasta es el último día en vigor (inclusive); nil significa vigencia abierta.
// Para comparar se usa la forma semiabierta [Desde, Hasta+1).
type Intervalo struct {
	Desde Fecha
	Hasta *Fecha
}

// Abierto construye [desde, +inf).
func Abierto(desde Fecha) Intervalo {
	return Intervalo{Desde: desde}
}

// Cerrado construye [desde, hasta] con hasta inclusive.
func Cerrado(desde, hasta Fecha) Intervalo {
	h := hasta
	return Intervalo{Desde: desde, Hasta: &h}
}

// EsAbierto indica si no tiene fecha de término.
func (i Intervalo) EsAbierto() bool { return i.Hasta == nil }

// Valido exige Hasta >= Desde cuando hay término.
func (i Intervalo) Valido() bool {
	if i.Desde.IsZero() {
		return false
	}
	return i.Hasta == nil || !i.Hasta.Antes(i.Desde)
}

// finExclusivo devuelve el límite superior semiabierto; ok=false para +inf.
func (i Intervalo) finExclusivo() (Fecha, bool) {
	if i.Hasta == nil {
		return Fecha{}, false
	}
	return i.Hasta.DiaSiguiente(), true
}

// Solapa reporta si la intersección es no vacía.
// Intervalos contiguos (a.Hasta+1 == b.Desde) no se solapan.
func (i Intervalo) Solapa(o Intervalo) bool {
	return antesDeFin(i.Desde, o) && antesDeFin(o.Desde, i)
}

// Contiene indica si el día f está en vigor dentro del intervalo.
func (i Intervalo) Contiene(f Fecha) bool {
	if f.Antes(i.Desde) {
		return false
	}
	return antesDeFin(f, i)
}

// Dentro indica si i está completamente contenido en o.
func (i Intervalo) Dentro(o Intervalo) bool {
	if i.Desde.Antes(o.Desde) {
		return false
	}
	if o.Hasta == nil {
		return true
	}
	return i.Hasta != nil && !i.Hasta.Despues(*o.Hasta)
}

func (i Intervalo) String() string {
	if i.Hasta == nil {
		return i.Desde.String() + "..abierta"
	}
	return i.Desde.String() + ".." + i.Hasta.String()
}

func antesDeFin(f Fecha, i Intervalo) bool {
	fin, ok := i.finExclusivo()
	if !ok {
		return true
	}
	return f.Antes(fin)
}
