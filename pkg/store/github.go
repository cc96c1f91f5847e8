package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/repoutil"
)

var githubLog = logger.New("store:github")

// GitHubOptions configures NewGitHub.
type GitHubOptions struct {
	// Repo is an owner/repo slug or a GitHub URL.
	Repo string
	// Branch to read from and commit to. Empty means the default branch.
	Branch string
	// Dir is the directory inside the repository. Empty means .github/workflows.
	Dir      string
	Filename string
	// Client overrides the REST client. When nil, the gh CLI's
	// configuration and GH_TOKEN are used.
	Client *api.RESTClient
}

// GitHub stores the workflow in a repository through the contents API. Every
// Set creates a commit.
type GitHub struct {
	client      *api.RESTClient
	owner, repo string
	branch      string
	dir         string
	name        string

	// sha of the blob last read or written, required to update a file.
	sha string
}

var _ Store = (*GitHub)(nil)

type contentsResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// NewGitHub returns a GitHub store.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	owner, repo, err := repoutil.ResolveRepo(opts.Repo)
	if err != nil {
		return nil, err
	}
	if opts.Filename == "" {
		return nil, ErrEmptyFilename
	}
	client := opts.Client
	if client == nil {
		client, err = api.DefaultRESTClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client (is %s set?): %w", constants.GitHubTokenEnvVar, err)
		}
	}
	dir := opts.Dir
	if dir == "" {
		dir = ".github/workflows"
	}
	return &GitHub{
		client: client,
		owner:  owner,
		repo:   repo,
		branch: opts.Branch,
		dir:    strings.Trim(dir, "/"),
		name:   opts.Filename,
	}, nil
}

func (g *GitHub) contentsPath() string {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", g.owner, g.repo, path.Join(g.dir, g.name))
	if g.branch != "" {
		p += "?ref=" + url.QueryEscape(g.branch)
	}
	return p
}

func (g *GitHub) Get() (string, error) {
	var resp contentsResponse
	err := g.client.Get(g.contentsPath(), &resp)
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		githubLog.Printf("No workflow %s in %s/%s yet", g.name, g.owner, g.repo)
		g.sha = ""
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s from %s/%s: %w", g.name, g.owner, g.repo, err)
	}
	if resp.Encoding != "" && resp.Encoding != "base64" {
		return "", fmt.Errorf("unsupported content encoding %q", resp.Encoding)
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", g.name, err)
	}
	g.sha = resp.SHA
	return string(data), nil
}

func (g *GitHub) Set(text string) error {
	if g.sha == "" {
		// Learn the current blob sha so an existing file is updated, not rejected.
		if _, err := g.Get(); err != nil {
			return err
		}
	}
	body, err := json.Marshal(putContentsRequest{
		Message: fmt.Sprintf("Update %s security scan workflow", g.name),
		Content: base64.StdEncoding.EncodeToString([]byte(text)),
		SHA:     g.sha,
		Branch:  g.branch,
	})
	if err != nil {
		return err
	}

	var resp putContentsResponse
	p := fmt.Sprintf("repos/%s/%s/contents/%s", g.owner, g.repo, path.Join(g.dir, g.name))
	if err := g.client.Put(p, bytes.NewReader(body), &resp); err != nil {
		return fmt.Errorf("failed to commit %s to %s/%s: %w", g.name, g.owner, g.repo, err)
	}
	g.sha = resp.Content.SHA
	githubLog.Printf("Committed %s (%d bytes), blob %s", g.name, len(text), g.sha)
	return nil
}

func (g *GitHub) Filename() string {
	return g.name
}

func (g *GitHub) SetFilename(name string) error {
	if name == "" {
		return ErrEmptyFilename
	}
	g.name = name
	g.sha = ""
	return nil
}
