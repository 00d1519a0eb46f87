package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findOp(t *testing.T, c Client, name string) Operation {
	t.Helper()
	for _, op := range c.Operations() {
		if op.Name == name {
			return op
		}
	}
	t.Fatalf("operation %s not found", name)
	return Operation{}
}

func TestHTTPClient_RoutesParameters(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotAuth  string
		gotBody  map[string]any
		gotMeth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMeth = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotBody = nil
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	def := ProviderDef{
		ID:      "github",
		BaseURL: srv.URL,
		Auth:    AuthDef{Type: AuthBearer},
		Operations: []OperationDef{
			{Name: "list_issues", Method: "GET", Path: "/repos/{owner}/issues", Params: []ParamDef{
				{Name: "owner", In: "path", Required: true},
				{Name: "state", In: "query"},
			}},
			{Name: "create_issue", Method: "POST", Path: "/repos/{owner}/issues", Params: []ParamDef{
				{Name: "owner", In: "path", Required: true},
				{Name: "title", In: "body", Required: true},
			}},
		},
	}

	client, err := NewHTTPClient(def, Credentials{Token: "secret"})
	require.NoError(t, err)

	out, err := findOp(t, client, "list_issues").Invoke(context.Background(), json.RawMessage(`{"owner":"acme","state":"open"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, out)
	assert.Equal(t, "GET", gotMeth)
	assert.Equal(t, "/repos/acme/issues", gotPath)
	assert.Equal(t, "state=open", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)

	_, err = findOp(t, client, "create_issue").Invoke(context.Background(), json.RawMessage(`{"owner":"acme","title":"bug"}`))
	require.NoError(t, err)
	assert.Equal(t, "POST", gotMeth)
	assert.Equal(t, map[string]any{"title": "bug"}, gotBody)
}

func TestHTTPClient_MissingRequiredParameter(t *testing.T) {
	def := ProviderDef{
		ID:      "p",
		BaseURL: "http://127.0.0.1:1",
		Operations: []OperationDef{
			{Name: "get", Method: "GET", Path: "/x/{id}", Params: []ParamDef{{Name: "id", In: "path", Required: true}}},
		},
	}
	client, err := NewHTTPClient(def, Credentials{})
	require.NoError(t, err)

	_, err = findOp(t, client, "get").Invoke(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required parameter "id"`)
}

func TestHTTPClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied"))
	}))
	defer srv.Close()

	def := ProviderDef{ID: "p", BaseURL: srv.URL, Operations: []OperationDef{{Name: "get", Method: "GET", Path: "/"}}}
	client, err := NewHTTPClient(def, Credentials{})
	require.NoError(t, err)

	_, err = findOp(t, client, "get").Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "denied")
}

func TestHTTPClient_HeaderAuth(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Custom-Key")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	def := ProviderDef{
		ID:         "p",
		BaseURL:    srv.URL,
		Auth:       AuthDef{Type: AuthHeader, Header: "X-API-Key"},
		Operations: []OperationDef{{Name: "get", Method: "GET", Path: "/"}},
	}
	client, err := NewHTTPClient(def, Credentials{Token: "k", Header: "X-Custom-Key"})
	require.NoError(t, err)

	_, err = findOp(t, client, "get").Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "k", got)
}

func TestNewHTTPClient_Errors(t *testing.T) {
	_, err := NewHTTPClient(ProviderDef{ID: "p"}, Credentials{})
	assert.Error(t, err)

	for _, typ := range []string{AuthBearer, AuthHeader, AuthBasic} {
		_, err := NewHTTPClient(ProviderDef{ID: "p", BaseURL: "http://x", Auth: AuthDef{Type: typ}}, Credentials{})
		assert.ErrorIs(t, err, ErrMissingCredentials, typ)
	}
}
