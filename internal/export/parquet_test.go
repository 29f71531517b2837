package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/mallflow/mallflow/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("cross_visits",
		[]string{"store_code_1", "total_cross_visits", "score", "date"},
		[]table.ColumnType{table.String, table.Integer, table.Float, table.Date})
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tbl.Append(table.Row{
		table.StringValue("S1"), table.IntValue(42), table.FloatValue(0.5), table.DateValue(day),
	}))
	require.NoError(t, tbl.Append(table.Row{
		table.StringValue("S2"), table.Missing(table.Integer), table.Missing(table.Float), table.Missing(table.Date),
	}))
	return tbl
}

func TestParquetSchema(t *testing.T) {
	s, err := ParquetSchema(sampleTable(t))
	require.NoError(t, err)

	var root schemaNode
	require.NoError(t, json.Unmarshal([]byte(s), &root))
	require.Len(t, root.Fields, 4)
	assert.Contains(t, root.Fields[0].Tag, "name=store_code_1")
	assert.Contains(t, root.Fields[0].Tag, "convertedtype=UTF8")
	assert.Contains(t, root.Fields[1].Tag, "type=INT64")
	assert.Contains(t, root.Fields[2].Tag, "type=DOUBLE")
	assert.Contains(t, root.Fields[3].Tag, "convertedtype=DATE")
	for _, f := range root.Fields {
		assert.Contains(t, f.Tag, "repetitiontype=OPTIONAL")
	}
}

func TestRecordJSON(t *testing.T) {
	tbl := sampleTable(t)

	rec, err := recordJSON(tbl.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"Col0":"S1","Col1":42,"Col2":0.5,"Col3":19787}`, rec)

	rec, err = recordJSON(tbl.Rows[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"Col0":"S2","Col1":null,"Col2":null,"Col3":null}`, rec)
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.parquet")
	require.NoError(t, WriteParquet(path, sampleTable(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(2), pr.GetNumRows())

	var names []string
	for _, el := range pr.Footer.Schema[1:] {
		names = append(names, el.Name)
	}
	assert.Equal(t, []string{"store_code_1", "total_cross_visits", "score", "date"}, names)
}
