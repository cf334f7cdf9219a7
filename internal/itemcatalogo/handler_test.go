package itemcatalogo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFijo struct{ err error }

func (a authFijo) Autorizar(context.Context, string, string) error { return a.err }

func decodeCodigo(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func TestCrear_Prohibido(t *testing.T) {
	repo, mock := nuevoRepoMock(t)
	h := NewHandler(repo, authFijo{err: errors.New("denegado")})

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Crear(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeCodigo(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrear_Validacion(t *testing.T) {
	repo, _ := nuevoRepoMock(t)
	h := NewHandler(repo, authFijo{})

	cases := map[string]string{
		"clase invalida":    `{"code":"bono","name":"Bono","class":"OTRO","nature":"IMPONIBLE"}`,
		"sin nombre":        `{"code":"bono","class":"HABER","nature":"IMPONIBLE"}`,
		"tope negativo":     `{"code":"bono","name":"Bono","class":"HABER","nature":"IMPONIBLE","cap_amount":-1}`,
		"campo desconocido": `{"code":"bono","name":"Bono","class":"HABER","nature":"IMPONIBLE","x":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Crear(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_FIELDS", decodeCodigo(t, rec))
		})
	}
}

func TestCrear_OK(t *testing.T) {
	repo, mock := nuevoRepoMock(t)
	h := NewHandler(repo, authFijo{})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sueldo_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d4"))
	mock.ExpectCommit()

	body := `{"code":"bono_noche","name":"Bono nocturno","class":"haber","nature":"imponible","cap_amount":80000}`
	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Crear(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var item Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "d4", item.ID)
	assert.Equal(t, ClaseHaber, item.Clase)
	assert.Equal(t, NaturalezaImponible, item.Naturaleza)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrear_Duplicado(t *testing.T) {
	repo, mock := nuevoRepoMock(t)
	h := NewHandler(repo, authFijo{})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sueldo_items"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	body := `{"code":"sueldo_base","name":"Otro","class":"HABER","nature":"IMPONIBLE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Crear(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ITEM_CODE_CONFLICT", decodeCodigo(t, rec))
}

func TestListar(t *testing.T) {
	repo, mock := nuevoRepoMock(t)
	h := NewHandler(repo, authFijo{})

	mock.ExpectQuery(`SELECT \* FROM "sueldo_items" WHERE activo = \$1 ORDER BY codigo ASC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("a", "bono", "Bono", ClaseHaber, NaturalezaImponible, nil, true).
			AddRow("b", "sueldo_base", "Sueldo base", ClaseHaber, NaturalezaImponible, nil, true))

	rec := httptest.NewRecorder()
	h.Listar(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}
