package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusHandlerHealthy(t *testing.T) {
	DefaultRegistry = NewRegistry()

	req := httptest.NewRequest(http.MethodGet, "/debug/health", nil)
	rec := httptest.NewRecorder()
	StatusHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())
}

func TestStatusHandlerUnhealthy(t *testing.T) {
	DefaultRegistry = NewRegistry()
	Register("storage", CheckFunc(func(context.Context) error {
		return errors.New("disk full")
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/health", nil)
	rec := httptest.NewRecorder()
	StatusHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"storage":"disk full"}`, rec.Body.String())
}

func TestUpdaterReflectsLastUpdate(t *testing.T) {
	u := NewStatusUpdater()
	require.NoError(t, u.Check(context.Background()))

	u.Update(errors.New("boom"))
	require.EqualError(t, u.Check(context.Background()), "boom")

	u.Update(nil)
	require.NoError(t, u.Check(context.Background()))
}
