package tools

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/toolroute/internal/catalog"
)

func echoOp(name string) catalog.Operation {
	return catalog.Operation{
		Name:        name,
		Description: "echo " + name,
		Parameters:  []catalog.Parameter{{Name: "text", Required: true}},
		Invoke: func(ctx context.Context, input json.RawMessage) (string, error) {
			return name + ":" + string(input), nil
		},
	}
}

func TestToolName(t *testing.T) {
	tests := []struct {
		provider, op, want string
	}{
		{"github", "list_issues", "github__list_issues"},
		{"google.calendar", "events list", "google_calendar__events_list"},
		{"x", "a/b/c", "x__a_b_c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToolName(tt.provider, tt.op))
	}

	long := ToolName(strings.Repeat("p", 50), strings.Repeat("o", 50))
	assert.Len(t, long, maxToolName)
	assert.Equal(t, long, ToolName(strings.Repeat("p", 50), strings.Repeat("o", 50)))
}

func TestRegistry_CollidingNamesStayDistinct(t *testing.T) {
	tests := []struct {
		name  string
		first string
		other string
	}{
		{"sanitized", "get.item", "get_item"},
		{"truncated", "list." + strings.Repeat("x", 60) + "_a", "list_" + strings.Repeat("x", 60) + "_b"},
	}
	valid := regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			a, err := reg.Register("svc", echoOp(tt.first))
			require.NoError(t, err)
			b, err := reg.Register("svc", echoOp(tt.other))
			require.NoError(t, err)

			assert.NotEqual(t, a, b)
			assert.Regexp(t, valid, a)
			assert.Regexp(t, valid, b)
			assert.Equal(t, 2, reg.Len())

			out, err := reg.Invoke(context.Background(), b, json.RawMessage(`{}`))
			require.NoError(t, err)
			assert.Equal(t, tt.other+":{}", out)
		})
	}
}

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	reg := NewRegistry()

	name, err := reg.Register("github", echoOp("list_issues"))
	require.NoError(t, err)
	assert.Equal(t, "github__list_issues", name)

	_, err = reg.Register("github", echoOp("list_issues"))
	assert.ErrorIs(t, err, ErrDuplicateTool)

	_, err = reg.Register("github", catalog.Operation{Name: "broken"})
	assert.Error(t, err)

	out, err := reg.Invoke(context.Background(), "github__list_issues", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, `list_issues:{"text":"hi"}`, out)

	_, err = reg.Invoke(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	tool, ok := reg.Get("github__list_issues")
	require.True(t, ok)
	assert.Equal(t, "github", tool.ProviderID)
}

func TestRegistry_OrderAndSpecs(t *testing.T) {
	reg := NewRegistry()
	for _, p := range []struct{ provider, op string }{{"slack", "post"}, {"github", "list"}, {"slack", "read"}} {
		_, err := reg.Register(p.provider, echoOp(p.op))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"slack__post", "github__list", "slack__read"}, reg.Names())
	assert.Equal(t, []string{"slack", "github"}, reg.Providers())

	specs := reg.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "slack__post", specs[0].Name)
	assert.Equal(t, "echo post", specs[0].Description)
	assert.Equal(t, []string{"text"}, specs[0].Required)
	assert.Contains(t, specs[0].Properties, "text")
}
