package api

import (
	"encoding/json"
	"fmt"
	"github.com/aleph-zero/lifo/service/harness"
	"github.com/aleph-zero/lifo/service/reverse"
	"github.com/aleph-zero/lifo/stack"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestReverseHandler_Reverse(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(stack.DefaultAllocator))
	defer server.Close()

	res, err := server.Client().Get(fmt.Sprintf("%s/reverse?q=%s", server.URL, url.QueryEscape("hello")))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var result reverse.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	require.Equal(t, "olleh", result.Reversed)
	require.Equal(t, 5, result.Length)
	require.Equal(t, 30, result.Capacity)
}

func TestReverseHandler_Errors(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(stack.NewLimitAllocator(30 * 4)))
	defer server.Close()

	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusBadRequest},
		{strings.Repeat("x", 31), http.StatusInsufficientStorage},
		{strings.Repeat("x", 30), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("len=%d", len(tt.query)), func(t *testing.T) {
			res, err := server.Client().Get(fmt.Sprintf("%s/reverse?q=%s", server.URL, tt.query))
			require.NoError(t, err)
			res.Body.Close()
			require.Equal(t, tt.status, res.StatusCode)
		})
	}
}

func TestHarnessHandler_Run(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(stack.DefaultAllocator))
	defer server.Close()

	yamlBody := "name: a\nelement: int32\ninitialCapacity: 1\nsteps:\n  - op: fill\n    count: 3\n  - op: pop\n    expect: 2\n"
	jsonArray := `[{"name":"b","element":"rune","initialCapacity":2,"steps":[{"op":"push-text","text":"abc"},{"op":"drain-text","expectText":"cba"}]}]`
	jsonObjects := ` {"name":"c","element":"uint8","initialCapacity":1,"steps":[{"op":"pop","expectError":"underflow"}]}
{"name":"d","element":"int64","initialCapacity":1,"steps":[{"op":"peek","expect":1}]}`

	tests := []struct {
		name    string
		body    string
		status  int
		reports int
		passed  []bool
	}{
		{"yaml", yamlBody, http.StatusOK, 1, []bool{true}},
		{"json-array", jsonArray, http.StatusOK, 1, []bool{true}},
		{"json-objects", jsonObjects, http.StatusOK, 2, []bool{true, false}},
		{"empty", "", http.StatusBadRequest, 0, nil},
		{"invalid", "name: x\nelement: nope\ninitialCapacity: 1\n", http.StatusBadRequest, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := server.Client().Post(server.URL+"/harness", "application/yaml", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer res.Body.Close()
			require.Equal(t, tt.status, res.StatusCode)
			if tt.status != http.StatusOK {
				return
			}

			var reports []harness.Report
			require.NoError(t, json.NewDecoder(res.Body).Decode(&reports))
			require.Len(t, reports, tt.reports)
			for i, passed := range tt.passed {
				require.Equal(t, passed, reports[i].Passed)
			}
		})
	}
}

func TestHarnessHandler_RunBuiltins(t *testing.T) {
	server := httptest.NewServer(initializeTestRouter(stack.DefaultAllocator))
	defer server.Close()

	res, err := server.Client().Get(server.URL + "/harness/builtin")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var reports []harness.Report
	require.NoError(t, json.NewDecoder(res.Body).Decode(&reports))
	require.Len(t, reports, 3)
	for _, report := range reports {
		require.True(t, report.Passed, report.Scenario)
	}
}

func initializeTestRouter(allocator stack.Allocator) chi.Router {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))

	reverseHandler := NewReverseHandler(reverse.NewService(reverse.NewConfig(reverse.WithAllocator(allocator))))
	router.Get("/reverse", reverseHandler.Reverse)

	harnessHandler := NewHarnessHandler(harness.NewService(allocator))
	router.Post("/harness", harnessHandler.Run)
	router.Get("/harness/builtin", harnessHandler.RunBuiltins)

	return router
}
