//go:build integration

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallflow/mallflow/internal/db"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/testutil"
)

func TestLoaderPostgres(t *testing.T) {
	scratch := testutil.NewScratchDB(t, "pipeline")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := testConfig(t)
	cfg.Load.TablePrefix = "etl_"
	writeAllRaw(t, cfg)
	_, err := Run(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	sink, err := db.Open(ctx, db.DriverPostgres, scratch.ConnStr, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()

	summary, err := NewLoader(cfg, sink, "run-pg", zerolog.Nop()).Run(ctx)
	require.NoError(t, err)

	for _, res := range summary.Results {
		assert.Equal(t, int64(res.RowsOut), scratch.RowCount(t, res.Table), res.Table)
	}
	assert.Equal(t, int64(2), scratch.RowCount(t, "etl_"+EnrichedTableName))

	cols := scratch.Columns(t, "etl_"+EnrichedTableName)
	require.Len(t, cols, 12)
	assert.Equal(t, [2]string{schema.StoreCode1, "text"}, cols[0])
	assert.Equal(t, [2]string{schema.TotalCrossVisits, "bigint"}, cols[2])
	assert.Equal(t, [2]string{schema.MallID, "text"}, cols[11])

	assert.Equal(t, "run-pg", scratch.Metadata(t)["run_id"])
}
