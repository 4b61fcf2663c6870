package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jende/inventory-service/internal/config"
)

func TestNewPostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.Error(t, err)
	require.Nil(t, pg)
}

func TestPostgresPingUnconfigured(t *testing.T) {
	t.Parallel()

	var pg *Postgres
	require.Error(t, pg.Ping(context.Background()))
	require.Error(t, (&Postgres{}).Ping(context.Background()))
}
