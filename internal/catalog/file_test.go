package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
providers:
  - id: github
    name: GitHub
    description: Issues and pull requests
    category: developer
    base_url: https://api.github.com
    auth:
      type: bearer
    operations:
      - name: list_issues
        description: List issues in a repository
        path: /repos/{owner}/{repo}/issues
        params:
          - name: owner
            in: path
            required: true
          - name: repo
            in: path
            required: true
          - name: state
      - name: create_issue
        method: post
        path: /repos/{owner}/{repo}/issues
        params:
          - name: title
            required: true
  - id: weather
    description: Forecasts
    available: false
    base_url: https://weather.example.com
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, f.Providers, 2)

	gh := f.Providers[0]
	assert.Equal(t, AuthBearer, gh.Auth.Type)
	require.Len(t, gh.Operations, 2)
	assert.Equal(t, "GET", gh.Operations[0].Method)
	assert.Equal(t, "query", gh.Operations[0].Params[2].In)
	assert.Equal(t, "POST", gh.Operations[1].Method)
	assert.Equal(t, "body", gh.Operations[1].Params[0].In)

	weather := f.Providers[1]
	assert.Equal(t, "weather", weather.Name)
	assert.Equal(t, AuthNone, weather.Auth.Type)
	assert.False(t, weather.Descriptor().Available)
	assert.True(t, gh.Descriptor().Available)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":      "providers:\n  - name: x\n",
		"duplicate id":    "providers:\n  - id: a\n  - id: a\n",
		"bad auth":        "providers:\n  - id: a\n    auth:\n      type: oauth\n",
		"op without name": "providers:\n  - id: a\n    operations:\n      - path: /x\n",
		"duplicate op":    "providers:\n  - id: a\n    operations:\n      - name: x\n      - name: x\n",
		"not yaml":        "providers: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_HeaderAuthDefault(t *testing.T) {
	f, err := Parse([]byte("providers:\n  - id: a\n    auth:\n      type: header\n"))
	require.NoError(t, err)
	assert.Equal(t, "X-API-Key", f.Providers[0].Auth.Header)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.OperationCount(context.Background(), "github"))

	_, err = c.Instantiate(context.Background(), "github", Credentials{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	client, err := c.Instantiate(context.Background(), "github", Credentials{Token: "t"})
	require.NoError(t, err)
	assert.Len(t, client.Operations(), 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
