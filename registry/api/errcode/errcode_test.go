package errcode

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := ErrorCodeBadRequest.WithDetail("Crate foo already has version 1.2.3")
	require.Equal(t, "Crate foo already has version 1.2.3", err.Error())
}

func TestErrorFormatFallsBackToMessageWithNoDetail(t *testing.T) {
	err := ErrorCodeBadRequest.WithDetail(nil)
	require.Equal(t, ErrorCodeBadRequest.Message(), err.Error())
}

func TestServeJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := ServeJSON(w, ErrorCodeNotFound.WithDetail("package unknown"))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, w.Code)

	var envelope struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Errors, 1)
	require.Equal(t, "package unknown", envelope.Errors[0].Detail)
}

func TestServeJSONPlainError(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, ServeJSON(w, errPlain("boom")))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
