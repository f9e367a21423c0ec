package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type operation struct{ path, method string }

var (
	routerLine   = regexp.MustCompile(`^// @Router (\S+) \[(\w+)\]`)
	responseLine = regexp.MustCompile(`^// @(?:Success|Failure) (\d{3})`)
)

// annotated reads the swag annotations of the handlers in this package and
// returns the status codes declared for every operation.
func annotated(t *testing.T) map[operation][]string {
	t.Helper()
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	ops := make(map[operation][]string)
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := os.Open(name)
		require.NoError(t, err)
		var codes []string
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if m := responseLine.FindStringSubmatch(line); m != nil {
				codes = append(codes, m[1])
			}
			if m := routerLine.FindStringSubmatch(line); m != nil {
				ops[operation{m[1], strings.ToLower(m[2])}] = codes
				codes = nil
			}
		}
		require.NoError(t, sc.Err())
		f.Close()
	}
	return ops
}

// documented returns the status codes of every operation in the served
// OpenAPI document.
func documented(t *testing.T) map[operation][]string {
	t.Helper()
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]struct {
			Responses map[string]json.RawMessage `json:"responses"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	ops := make(map[operation][]string)
	for path, methods := range doc.Paths {
		for method, op := range methods {
			var codes []string
			for code := range op.Responses {
				codes = append(codes, code)
			}
			ops[operation{path, method}] = codes
		}
	}
	return ops
}

func routed(t *testing.T) []operation {
	t.Helper()
	var ops []operation
	err := newRouter().Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			ops = append(ops, operation{path, strings.ToLower(m)})
		}
		return nil
	})
	require.NoError(t, err)
	return ops
}

func TestOpenAPIDocumentMatchesHandlers(t *testing.T) {
	notes, doc := annotated(t), documented(t)
	routes := routed(t)
	require.NotEmpty(t, routes)

	for _, op := range routes {
		assert.Contains(t, notes, op, "route without @Router annotation")
		assert.Contains(t, doc, op, "route missing from docs")
	}
	assert.Len(t, notes, len(routes))
	assert.Len(t, doc, len(routes))

	for op, codes := range notes {
		assert.ElementsMatch(t, codes, doc[op], "%s %s responses", op.method, op.path)
	}
}
