package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atinyakov/FlightDesk/internal/identity"
)

// dummyHandler records the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte("short and stout"))
}

type sourceFunc func(ctx context.Context) (identity.Identity, error)

func (f sourceFunc) Whoami(ctx context.Context) (identity.Identity, error) { return f(ctx) }

func bufferLogger() (*zap.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core), buf
}

func TestWithRequestLogging(t *testing.T) {
	log, buf := bufferLogger()
	dummy := &dummyHandler{}
	h := WithRequestLogging(log)(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flights/2/", nil)
	h.ServeHTTP(rec, req)

	require.True(t, dummy.called)
	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, RequestIDFromContext(dummy.ctx))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/flights/2/", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, len("short and stout"), entry["bytes"])
}

func TestWithRequestLogging_KeepsIncomingID(t *testing.T) {
	dummy := &dummyHandler{}
	h := WithRequestLogging(nil)(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", RequestIDFromContext(dummy.ctx))
}

func TestIdentify_StoresViewer(t *testing.T) {
	id, name := int64(7), "El Al"
	airline := identity.Identity{LoggedIn: true, Type: identity.Airline, Username: "elal", EntityID: &id, EntityName: &name}

	var gotCookie string
	source := func(r *http.Request) identity.Source {
		if ck, err := r.Cookie("sessionid"); err == nil {
			gotCookie = ck.Value
		}
		return sourceFunc(func(context.Context) (identity.Identity, error) { return airline, nil })
	}

	dummy := &dummyHandler{}
	h := Identify(source, zap.NewNop())(dummy)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "s1"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, dummy.called)
	assert.Equal(t, "s1", gotCookie)
	assert.True(t, IdentityFromContext(dummy.ctx).Equal(airline))
	assert.False(t, IdentityStale(dummy.ctx))
	require.NotNil(t, ProviderFromContext(dummy.ctx))
}

func TestIdentify_FailureFallsBackToAnonymous(t *testing.T) {
	log, buf := bufferLogger()
	source := func(*http.Request) identity.Source {
		return sourceFunc(func(context.Context) (identity.Identity, error) {
			return identity.Identity{}, errors.New("backend down")
		})
	}

	dummy := &dummyHandler{}
	h := WithRequestLogging(zap.NewNop())(Identify(source, log)(dummy))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, dummy.called)
	assert.Equal(t, identity.Anon, IdentityFromContext(dummy.ctx).Type)
	assert.True(t, IdentityStale(dummy.ctx))
	assert.Contains(t, buf.String(), "backend down")
	assert.Contains(t, buf.String(), rec.Header().Get(RequestIDHeader))
}

func TestIdentityFromContext_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ProviderFromContext(ctx))
	assert.True(t, IdentityFromContext(ctx).Equal(identity.Anonymous()))
	assert.False(t, IdentityStale(ctx))
}
