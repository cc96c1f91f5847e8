//go:build !integration

package store

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContentsAPI serves the repository contents endpoints for one repository.
type fakeContentsAPI struct {
	files    map[string]string
	shas     map[string]string
	requests []string
	puts     []putContentsRequest
}

func (f *fakeContentsAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req.Method+" "+req.URL.Path)
	const prefix = "/repos/octo/scan/contents/"
	if !strings.HasPrefix(req.URL.Path, prefix) {
		return f.respond(req, http.StatusNotFound, map[string]string{"message": "Not Found"}), nil
	}
	path := strings.TrimPrefix(req.URL.Path, prefix)

	switch req.Method {
	case http.MethodGet:
		content, ok := f.files[path]
		if !ok {
			return f.respond(req, http.StatusNotFound, map[string]string{"message": "Not Found"}), nil
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(content))
		// The API wraps base64 content at 60 characters.
		var wrapped strings.Builder
		for len(encoded) > 60 {
			wrapped.WriteString(encoded[:60] + "\n")
			encoded = encoded[60:]
		}
		wrapped.WriteString(encoded)
		return f.respond(req, http.StatusOK, contentsResponse{SHA: f.shas[path], Content: wrapped.String(), Encoding: "base64"}), nil
	case http.MethodPut:
		var body putContentsRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		f.puts = append(f.puts, body)
		if _, exists := f.files[path]; exists && body.SHA != f.shas[path] {
			return f.respond(req, http.StatusConflict, map[string]string{"message": "sha mismatch"}), nil
		}
		data, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			return nil, err
		}
		f.files[path] = string(data)
		f.shas[path] = "sha-" + string(rune('a'+len(f.puts)))
		var resp putContentsResponse
		resp.Content.SHA = f.shas[path]
		return f.respond(req, http.StatusOK, resp), nil
	}
	return f.respond(req, http.StatusMethodNotAllowed, map[string]string{"message": "no"}), nil
}

func (f *fakeContentsAPI) respond(req *http.Request, status int, body any) *http.Response {
	data, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
		Request:    req,
	}
}

func newTestGitHub(t *testing.T, fake *fakeContentsAPI) *GitHub {
	t.Helper()
	client, err := api.NewRESTClient(api.ClientOptions{Host: "github.com", AuthToken: "test-token", Transport: fake})
	require.NoError(t, err)
	g, err := NewGitHub(GitHubOptions{Repo: "octo/scan", Filename: "scan.yml", Client: client})
	require.NoError(t, err)
	return g
}

func TestGitHub_GetMissingFile(t *testing.T) {
	fake := &fakeContentsAPI{files: map[string]string{}, shas: map[string]string{}}
	g := newTestGitHub(t, fake)

	text, err := g.Get()
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGitHub_RoundTrip(t *testing.T) {
	long := "name: Security Scan\non:\n  push:\n    branches:\n      - main\njobs: {}\n"
	fake := &fakeContentsAPI{
		files: map[string]string{".github/workflows/scan.yml": long},
		shas:  map[string]string{".github/workflows/scan.yml": "sha-initial"},
	}
	g := newTestGitHub(t, fake)

	text, err := g.Get()
	require.NoError(t, err)
	assert.Equal(t, long, text)

	require.NoError(t, g.Set("on: push\njobs: {}\n"))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "sha-initial", fake.puts[0].SHA, "updates must carry the current blob sha")
	assert.Equal(t, "on: push\njobs: {}\n", fake.files[".github/workflows/scan.yml"])

	require.NoError(t, g.Set("on: pull_request\njobs: {}\n"), "the sha from the previous write should be reused")
	assert.Equal(t, "on: pull_request\njobs: {}\n", fake.files[".github/workflows/scan.yml"])
}

func TestGitHub_SetWithoutPriorGet(t *testing.T) {
	fake := &fakeContentsAPI{
		files: map[string]string{".github/workflows/scan.yml": "on: push\n"},
		shas:  map[string]string{".github/workflows/scan.yml": "sha-initial"},
	}
	g := newTestGitHub(t, fake)

	require.NoError(t, g.Set("on: workflow_dispatch\n"))
	assert.Equal(t, []string{
		"GET /repos/octo/scan/contents/.github/workflows/scan.yml",
		"PUT /repos/octo/scan/contents/.github/workflows/scan.yml",
	}, fake.requests)
}

func TestGitHub_SetFilenameCreatesNewFile(t *testing.T) {
	fake := &fakeContentsAPI{files: map[string]string{}, shas: map[string]string{}}
	g := newTestGitHub(t, fake)

	require.NoError(t, g.SetFilename("renamed.yml"))
	require.NoError(t, g.Set("on: push\n"))
	assert.Equal(t, "on: push\n", fake.files[".github/workflows/renamed.yml"])
	assert.Empty(t, fake.puts[0].SHA)
}

func TestNewGitHub_InvalidRepo(t *testing.T) {
	_, err := NewGitHub(GitHubOptions{Repo: "not-a-slug", Filename: "scan.yml"})
	assert.Error(t, err)
}
