package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *memCache) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = body
	return nil
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestSearchCodeSendsHeadersAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/code", r.URL.Path)
		require.Equal(t, "useState repo:facebook/react", r.URL.Query().Get("q"))
		require.Equal(t, "5", r.URL.Query().Get("per_page"))
		require.Equal(t, mediaTextMatch, r.Header.Get("Accept"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))
		w.Write([]byte(`{"total_count":1,"items":[{"name":"a.js","path":"src/a.js",
			"repository":{"full_name":"facebook/react"},
			"text_matches":[{"fragment":"const [s] = useState()"}]}]}`))
	}, Options{Token: "secret"})

	require.True(t, c.Authenticated())
	res, err := c.SearchCode(context.Background(), "useState repo:facebook/react", SearchOptions{PerPage: 5})
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	require.Len(t, res.Items, 1)
	require.Equal(t, "facebook/react", res.Items[0].Repository.FullName)
	require.Equal(t, "const [s] = useState()", res.Items[0].TextMatches[0].Fragment)
}

func TestPerPageIsCapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"items":[]}`))
	}, Options{})
	_, err := c.SearchRepositories(context.Background(), "x", SearchOptions{PerPage: 500})
	require.NoError(t, err)
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		check   func(error) bool
		message string
	}{
		{"not found", 404, nil, `{"message":"Not Found"}`, IsNotFound, "not found on GitHub"},
		{"unauthorized", 401, nil, `{"message":"Bad credentials"}`, IsUnauthorized, "GitHub rejected the credentials; check the configured token"},
		{"primary rate limit", 403, map[string]string{"X-RateLimit-Remaining": "0"}, `{"message":"API rate limit exceeded"}`, IsRateLimited, "GitHub rate limit exceeded"},
		{"secondary rate limit", 429, map[string]string{"Retry-After": "30"}, `{}`, IsRateLimited, "GitHub rate limit exceeded"},
		{"validation", 422, nil, `{"message":"Validation Failed"}`, IsValidationFailed, "GitHub rejected the query: Validation Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, Options{})
			_, err := c.GetRepository(context.Background(), "o", "r")
			require.Error(t, err)
			require.True(t, tt.check(err))
			require.Equal(t, tt.message, Describe(err))
		})
	}
}

func TestSuccessfulResponsesAreCached(t *testing.T) {
	var hits atomic.Int32
	mc := &memCache{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"full_name":"o/r","default_branch":"main"}`))
	}, Options{Cache: mc})

	for range 3 {
		repo, err := c.GetRepository(context.Background(), "o", "r")
		require.NoError(t, err)
		require.Equal(t, "main", repo.DefaultBranch)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	mc := &memCache{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, Options{Cache: mc})

	for range 2 {
		_, err := c.GetRepository(context.Background(), "o", "r")
		require.True(t, IsNotFound(err))
	}
	require.Equal(t, int32(2), hits.Load())
	require.Empty(t, mc.data)
}

func TestGetContentsFileAndDirectory(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/contents/main.go":
			require.Equal(t, "dev", r.URL.Query().Get("ref"))
			w.Write([]byte(`{"type":"file","path":"main.go","encoding":"base64","content":"` +
				encoded[:4] + `\n` + encoded[4:] + `"}`))
		case "/repos/o/r/contents":
			w.Write([]byte(`[{"type":"dir","name":"cmd","path":"cmd"},{"type":"file","name":"go.mod","path":"go.mod"}]`))
		default:
			http.NotFound(w, r)
		}
	}, Options{})

	file, err := c.GetContents(context.Background(), "o", "r", "/main.go", "dev")
	require.NoError(t, err)
	require.NotNil(t, file.File)
	content, err := file.File.Decoded()
	require.NoError(t, err)
	require.Equal(t, "package main\n", content)

	dir, err := c.GetContents(context.Background(), "o", "r", "", "")
	require.NoError(t, err)
	require.Nil(t, dir.File)
	require.Len(t, dir.Dir, 2)
	require.Equal(t, "dir", dir.Dir[0].Type)
}

func TestDecodedRejectsDirectoriesAndLargeFiles(t *testing.T) {
	_, err := (&ContentEntry{Type: "dir", Path: "src"}).Decoded()
	require.Error(t, err)
	_, err = (&ContentEntry{Type: "file", Path: "big.bin", Encoding: "none", Size: 5 << 20}).Decoded()
	require.ErrorContains(t, err, "too large")
}

func TestGetTreeRecursive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/o/r/git/trees/main", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("recursive"))
		w.Write([]byte(`{"sha":"abc","truncated":false,"tree":[{"path":"a","type":"tree"},{"path":"a/b.go","type":"blob","size":10}]}`))
	}, Options{})
	tree, err := c.GetTree(context.Background(), "o", "r", "main", true)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 2)
	require.Equal(t, "blob", tree.Entries[1].Type)
}

func TestResolveToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "from-gh")
	require.Equal(t, "from-gh", ResolveToken("REPOLENS_TEST_TOKEN"))
	t.Setenv("REPOLENS_TEST_TOKEN", " custom ")
	require.Equal(t, "custom", ResolveToken("REPOLENS_TEST_TOKEN"))
}

func TestCacheIsScopedToCredential(t *testing.T) {
	var hits atomic.Int32
	var auths sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		auths.Store(r.Header.Get("Authorization"), true)
		w.Write([]byte(`{"full_name":"o/r","default_branch":"main"}`))
	}))
	t.Cleanup(srv.Close)

	mc := &memCache{}
	for _, token := range []string{"", "token-a", "token-b", "token-a", ""} {
		c, err := New(Options{BaseURL: srv.URL, Token: token, Cache: mc})
		require.NoError(t, err)
		_, err = c.GetRepository(context.Background(), "o", "r")
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), hits.Load())
	require.Len(t, mc.data, 3)
	for _, auth := range []string{"", "Bearer token-a", "Bearer token-b"} {
		_, ok := auths.Load(auth)
		require.True(t, ok, "no request with authorization %q", auth)
	}
	for key := range mc.data {
		require.NotContains(t, key, "token-a")
	}
}
