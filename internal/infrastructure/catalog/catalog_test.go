package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_LoadItems(t *testing.T) {
	path := writeCatalogFile(t, `[
		{"id": "sofa_002", "category": "sofa", "name": "Fabric 3-Seater", "price": 25000, "vendor": "Wakefit"},
		{"id": "sofa_001", "category": "sofa", "name": "Compact Loveseat", "price": 18000, "vendor": "IKEA",
		 "vendor_link": "https://www.ikea.com/in/en/p/klippan-loveseat"}
	]`)

	items, err := NewFileSource(path).LoadItems(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "sofa_002", items[0].ID, "file order is preserved")
	assert.Equal(t, int64(18000), items[1].Price)
	assert.Equal(t, "https://www.ikea.com/in/en/p/klippan-loveseat", items[1].VendorLink)
}

func TestFileSource_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).LoadItems(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeCatalogFile(t, `{"id": "not an array"}`)
		_, err := NewFileSource(path).LoadItems(context.Background())
		assert.Error(t, err)
	})
}

func TestFileSource_ShippedCatalog(t *testing.T) {
	items, err := NewFileSource("../../../data/furniture_catalog.json").LoadItems(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, items)
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.Category)
		assert.GreaterOrEqual(t, item.Price, int64(0), item.ID)
	}
}

func TestPostgresSource_LoadItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "category", "name", "price", "vendor", "vendor_link"}).
		AddRow("bed_001", "bed", "Queen Bed", int64(22000), "Wakefit", "").
		AddRow("chair_002", "chair", "Dining Chair", int64(2500), "Amazon", "https://amazon.in/dp/chair")
	mock.ExpectQuery(regexp.QuoteMeta("FROM furniture_catalog")).WillReturnRows(rows)

	items, err := NewPostgresSource(db, nil).LoadItems(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "bed_001", items[0].ID)
	assert.Equal(t, int64(2500), items[1].Price)
	assert.Equal(t, "https://amazon.in/dp/chair", items[1].VendorLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New(`relation "furniture_catalog" does not exist`))

	_, err = NewPostgresSource(db, nil).LoadItems(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query catalog")
}

func TestPostgresSource_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "category", "name", "price", "vendor", "vendor_link"}).
		AddRow("bed_001", "bed", "Queen Bed", int64(22000), "Wakefit", "").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err = NewPostgresSource(db, nil).LoadItems(context.Background())
	assert.Error(t, err)
}
