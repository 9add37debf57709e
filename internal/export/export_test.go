package export

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-map/internal/stores"
)

const fetchSQL = `SELECT "latitude", "longitude", "channel_id", "store_id" FROM "entity"."pincode_store_mapping" WHERE "channel_id" = ANY($1)`

func TestParseChannels(t *testing.T) {
	cs, err := ParseChannels("")
	require.NoError(t, err)
	assert.Equal(t, DefaultChannels(), cs)

	cs, err = ParseChannels(" 27:Blinkit:#D8C414 , 7:Dunzo ")
	require.NoError(t, err)
	assert.Equal(t, []Channel{
		{ID: 27, Name: "Blinkit", Color: "#D8C414"},
		{ID: 7, Name: "Dunzo", Color: UnknownColor},
	}, cs)

	for _, bad := range []string{"27", "x:Blinkit", "27:", "1:A,1:B", ","} {
		_, err := ParseChannels(bad)
		assert.ErrorIs(t, err, ErrBadChannel, bad)
	}
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"entity"."pincode_store_mapping"`, QuoteTable(DefaultTable))
	assert.Equal(t, `"stores"`, QuoteTable("stores"))
}

func TestFetchRowsAndSanitize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"latitude", "longitude", "channel_id", "store_id"}).
		AddRow(28.6, 77.2, int64(27), "B-1").
		AddRow(nil, 77.0, int64(65), "S-1").
		AddRow(math.NaN(), 72.8, int64(65), "S-2").
		AddRow(19.0, 72.8, int64(65), "S-3").
		AddRow(12.9, 77.5, int64(999), int64(42))
	mock.ExpectQuery(regexp.QuoteMeta(fetchSQL)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	got, err := FetchRows(context.Background(), db, DefaultTable, DefaultChannels())
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.False(t, got[1].Lat.Valid)
	assert.Equal(t, "42", got[4].StoreID.String)

	recs := Sanitize(got, DefaultChannels())
	assert.Equal(t, []stores.Record{
		{ID: "B-1", Lat: 28.6, Lon: 77.2, SourceName: "Blinkit", Color: "#D8C414"},
		{ID: "S-3", Lat: 19.0, Lon: 72.8, SourceName: "Swiggy", Color: "#EC822A"},
		{ID: "42", Lat: 12.9, Lon: 77.5, SourceName: UnknownName, Color: UnknownColor},
	}, recs)
	assert.Equal(t, []string{"Blinkit=1", "Swiggy=1", "Unknown=1"}, Summary(recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRowsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(fetchSQL)).WillReturnError(sql.ErrConnDone)
	_, err = FetchRows(context.Background(), db, DefaultTable, DefaultChannels())
	assert.True(t, errors.Is(err, sql.ErrConnDone))
}

// 导出结果可被页面加载器原样读取
func TestWriteStoresRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "stores.json")
	recs := []stores.Record{
		{ID: "B-1", Lat: 28.6, Lon: 77.2, SourceName: "Blinkit", Color: "#D8C414"},
		{ID: "S-3", Lat: 19.0, Lon: 72.8, SourceName: "Swiggy", Color: "#EC822A"},
	}
	require.NoError(t, WriteStores(path, recs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, skipped, err := stores.Decode(f)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, recs, got)
}

func TestWriteStoresEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	require.NoError(t, WriteStores(path, nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))
}

func TestConfigJS(t *testing.T) {
	assert.Equal(t, "const GOOGLE_MAPS_API_KEY = 'abc';\n", ConfigJS("abc"))
	assert.Equal(t, `const GOOGLE_MAPS_API_KEY = 'a\'b\\c';`+"\n", ConfigJS(`a'b\c`))

	path := filepath.Join(t.TempDir(), "config.js")
	require.NoError(t, WriteConfigJS(path, "k"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "const GOOGLE_MAPS_API_KEY = 'k';\n", string(b))
}
