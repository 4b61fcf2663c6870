package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jende/inventory-service/internal/observability"
	apperrors "github.com/jende/inventory-service/pkg/util"
)

func TestRequestLoggerObservesErrorStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("name required", nil)
	})

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/boom", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, nethttp.StatusBadRequest, entries[0].ContextMap()["status"])

	require.EqualValues(t, 1, metrics.RequestCount("/boom", nethttp.MethodGet, nethttp.StatusBadRequest))
	require.Zero(t, metrics.RequestCount("/boom", nethttp.MethodGet, nethttp.StatusOK))
	require.EqualValues(t, 1, metrics.ErrorCount("/boom", nethttp.MethodGet, "VALIDATION_FAILED"))
}

func TestRequestLoggerObservesSuccessStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/ok", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	resp.Body.Close()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, nethttp.StatusOK, entries[0].ContextMap()["status"])
	require.EqualValues(t, 1, metrics.RequestCount("/ok", nethttp.MethodGet, nethttp.StatusOK))
}
