package pipeline

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

func TestCheckRawSchemasOK(t *testing.T) {
	cfg := testConfig(t)
	writeAllRaw(t, cfg)

	assert.NoError(t, CheckRawSchemas(cfg))
}

func TestCheckRawSchemasReportsEveryTable(t *testing.T) {
	cfg := testConfig(t)
	writeAllRaw(t, cfg)
	writeRaw(t, cfg, schema.DimMalls, []string{"id", "country"})
	writeRaw(t, cfg, schema.CrossVisits, []string{"a", "b", "c", "d"})
	require.NoError(t, os.Remove(cfg.Path(cfg.Tables[schema.StoreFinancials].Raw)))

	err := CheckRawSchemas(cfg)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)

	assert.True(t, errors.Is(merr.Errors[0], table.ErrSchemaMismatch))
	assert.Contains(t, merr.Errors[0].Error(), schema.DimMalls)
	assert.True(t, errors.Is(merr.Errors[1], os.ErrNotExist))
	assert.Contains(t, merr.Errors[1].Error(), schema.StoreFinancials)
	assert.True(t, errors.Is(merr.Errors[2], table.ErrSchemaMismatch))
	assert.Contains(t, merr.Errors[2].Error(), "expected 3 columns, got 4")
}

func TestSummaryRender(t *testing.T) {
	s := &Summary{}
	s.Add(Result{Stage: StageNormalize, Table: schema.DimBlocks, Path: "data/intermediate/dim_blocks.csv",
		RowsIn: 1200, RowsOut: 1187, Duration: 15 * time.Millisecond})
	other := &Summary{}
	other.Add(Result{Stage: StageEnrich, Table: schema.CrossVisits, Path: "data/enriched/crossé.csv",
		RowsIn: 9, RowsOut: 8, Duration: 2 * time.Second})
	s.Merge(other)
	s.Merge(nil)

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STAGE      TABLE         ROWS IN  ROWS OUT  DROPPED  DURATION  PATH"))
	assert.Equal(t, "normalize  dim_blocks       1200      1187       13      15ms  data/intermediate/dim_blocks.csv", lines[1])
	assert.Equal(t, "enrich     cross_visits        9         8        1        2s  data/enriched/crossé.csv", lines[2])

	r, ok := s.Find(StageEnrich, schema.CrossVisits)
	require.True(t, ok)
	assert.Equal(t, 1, r.Dropped())
	_, ok = s.Find(StageLoad, schema.CrossVisits)
	assert.False(t, ok)
}
