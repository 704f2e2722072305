// Package handlers wires RegistryCore to HTTP, following the teacher's
// registry/handlers shape: a single App holding one router, a thin
// dispatch wrapper that builds a per-request context and turns a
// handler's returned error into the standard JSON error envelope, and
// one handler function per route (registry/handlers/app.go's dispatcher
// pattern, reduced to this registry's five operations instead of the
// teacher's much larger blob/manifest/tag surface).
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Palladinium/quartermaster/internal/dcontext"
	"github.com/Palladinium/quartermaster/registry/api/errcode"
	"github.com/Palladinium/quartermaster/registry/auth"
	"github.com/Palladinium/quartermaster/registry/core"
)

// App is the HTTP frontend over a Core, constructed once at startup and
// safe for concurrent use (all mutation lives in Core, not here).
type App struct {
	router *mux.Router
	core   *core.Core
	logger *logrus.Entry
}

// New builds an App with the six routes spec.md §6 defines.
func New(c *core.Core, logger *logrus.Entry) *App {
	app := &App{router: mux.NewRouter(), core: c, logger: logger}

	app.router.HandleFunc("/index/config.json", app.wrap(app.handleIndexConfig, false)).Methods(http.MethodGet)
	app.router.HandleFunc("/index/{path:.*}", app.wrap(app.handleFetchIndex, true)).Methods(http.MethodGet)
	app.router.HandleFunc("/crates/{name}/{version}/download", app.wrap(app.handleFetchArchive, true)).Methods(http.MethodGet)
	app.router.HandleFunc("/api/v1/crates/new", app.wrap(app.handlePublish, true)).Methods(http.MethodPut)
	app.router.HandleFunc("/api/v1/crates/{name}/{version}/yank", app.wrap(app.handleYank, true)).Methods(http.MethodDelete)
	app.router.HandleFunc("/api/v1/crates/{name}/{version}/unyank", app.wrap(app.handleUnyank, true)).Methods(http.MethodPut)

	return app
}

func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.router.ServeHTTP(w, r)
}

// handlerFunc is the signature every route handler implements: read from
// the request, call into Core, and report failure as an error that wrap
// renders through errcode.ServeJSON.
type handlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// wrap builds the per-request context, enforces the Authorizer when
// requiresAuth is set and the configured mode demands a token, and
// converts a handler's error return into the JSON error envelope.
func (app *App) wrap(h handlerFunc, requiresAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := dcontext.WithRequest(r.Context(), r)
		ctx = dcontext.WithLogger(ctx, app.logger.WithField("method", r.Method).WithField("path", r.URL.Path))

		if requiresAuth && app.core.Authorizer().Required() {
			switch app.core.Authorizer().Authorize(r.Header.Get("Authorization")) {
			case auth.Unauthorized:
				errcode.ServeJSON(w, errcode.ErrorCodeUnauthorized.WithDetail(nil))
				return
			case auth.Forbidden:
				errcode.ServeJSON(w, errcode.ErrorCodeForbidden.WithDetail(nil))
				return
			}
		}

		if err := h(ctx, w, r); err != nil {
			dcontext.GetLogger(ctx).WithError(err).Info("request failed")
			errcode.ServeJSON(w, err)
		}
	}
}

func (app *App) handleIndexConfig(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, app.core.FetchIndexConfig())
}

func (app *App) handleFetchIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	content, err := app.core.FetchIndex(ctx, mux.Vars(r)["path"])
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(content)
	return err
}

func (app *App) handleFetchArchive(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	reader, err := app.core.FetchArchive(ctx, vars["name"], vars["version"])
	if err != nil {
		return err
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, reader)
	return err
}

func (app *App) handlePublish(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	result, err := app.core.Publish(ctx, r.Body, r.ContentLength)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

func (app *App) handleYank(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	if err := app.core.Yank(ctx, vars["name"], vars["version"]); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, okResponse{Ok: true})
}

func (app *App) handleUnyank(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	if err := app.core.Unyank(ctx, vars["name"], vars["version"]); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, okResponse{Ok: true})
}

type okResponse struct {
	Ok bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
