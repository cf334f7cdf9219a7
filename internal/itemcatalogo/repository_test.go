package itemcatalogo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var columnasItem = []string{"id", "codigo", "nombre", "clase", "naturaleza", "tope_monto", "activo"}

func nuevoRepoMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewRepository(db), mock
}

func TestResolverPorCodigo_SinDistinguirMayusculas(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectQuery(`SELECT \* FROM "sueldo_items" WHERE LOWER\(codigo\) = LOWER\(\$1\) AND activo = \$2`).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("0b6b6c1e-6f1f-4d38-9c55-8c3f5b5f0a01", "sueldo_base", "Sueldo base", ClaseHaber, NaturalezaImponible, nil, true))

	item, err := repo.ResolverPorCodigo(context.Background(), "SUELDO_BASE")
	require.NoError(t, err)
	assert.Equal(t, "sueldo_base", item.Codigo)
	assert.Nil(t, item.TopeMonto)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolverPorCodigo_NoEncontrado(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectQuery(`FROM "sueldo_items"`).WillReturnRows(sqlmock.NewRows(columnasItem))

	_, err := repo.ResolverPorCodigo(context.Background(), "bono_x")
	assert.ErrorIs(t, err, ErrItemNoEncontrado)

	_, err = repo.ResolverPorCodigo(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrItemNoEncontrado)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolverPorIDOCodigo_UUIDCaeACodigo(t *testing.T) {
	repo, mock := nuevoRepoMock(t)
	ref := "7d2a8f3c-1111-4b7a-9a9a-0123456789ab"

	// primero por id: no existe
	mock.ExpectQuery(`FROM "sueldo_items" WHERE id = \$1 AND activo = \$2`).
		WillReturnRows(sqlmock.NewRows(columnasItem))
	// luego por código
	mock.ExpectQuery(`FROM "sueldo_items" WHERE LOWER\(codigo\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("a1", ref, "Bono raro", ClaseHaber, NaturalezaNoImponible, nil, true))

	item, err := repo.ResolverPorIDOCodigo(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "a1", item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolverPorIDOCodigo_CodigoNoConsultaID(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectQuery(`WHERE LOWER\(codigo\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("b2", "bono_turno", "Bono turno", ClaseHaber, NaturalezaImponible, "50000", true))

	item, err := repo.ResolverPorIDOCodigo(context.Background(), "bono_turno")
	require.NoError(t, err)
	require.NotNil(t, item.TopeMonto)
	assert.Equal(t, "50000", item.TopeMonto.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAsegurarSueldoBase_CreaSiFalta(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectQuery(`FROM "sueldo_items"`).WillReturnRows(sqlmock.NewRows(columnasItem))
	mock.ExpectExec(`INSERT INTO sueldo_items .* ON CONFLICT DO NOTHING`).
		WithArgs(CodigoSueldoBase, "Sueldo base", ClaseHaber, NaturalezaImponible).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "sueldo_items"`).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("c3", CodigoSueldoBase, "Sueldo base", ClaseHaber, NaturalezaImponible, nil, true))

	item, err := repo.AsegurarSueldoBase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c3", item.ID)
	assert.True(t, item.EsHaber())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAsegurarSueldoBase_Existente(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectQuery(`FROM "sueldo_items"`).
		WillReturnRows(sqlmock.NewRows(columnasItem).
			AddRow("c3", CodigoSueldoBase, "Sueldo base", ClaseHaber, NaturalezaImponible, nil, true))

	item, err := repo.AsegurarSueldoBase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c3", item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrear_CodigoDuplicado(t *testing.T) {
	repo, mock := nuevoRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sueldo_items"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "sueldo_items_codigo_key"})
	mock.ExpectRollback()

	err := repo.Crear(context.Background(), &Item{Codigo: "bono", Nombre: "Bono", Clase: ClaseHaber, Naturaleza: NaturalezaImponible, Activo: true})
	assert.ErrorIs(t, err, ErrCodigoDuplicado)
	assert.NoError(t, mock.ExpectationsWereMet())
}
