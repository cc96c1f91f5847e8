// Package repoutil provides utility functions for working with GitHub repository slugs and URLs.
package repoutil

import (
	"fmt"
	"strings"

	"github.com/scanwf/scanwf/pkg/logger"
)

var log = logger.New("repoutil:repoutil")

// SplitRepoSlug splits a repository slug (owner/repo) into owner and repo parts.
func SplitRepoSlug(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		log.Printf("Invalid repo slug format: %s", slug)
		return "", "", fmt.Errorf("invalid repo format %q, expected owner/repo", slug)
	}
	return owner, repo, nil
}

// ParseGitHubURL extracts the owner and repo from a GitHub URL in SSH
// (git@github.com:owner/repo.git) or HTTPS (https://github.com/owner/repo) form.
func ParseGitHubURL(url string) (owner, repo string, err error) {
	var repoPath string
	if after, ok := strings.CutPrefix(url, "git@github.com:"); ok {
		repoPath = after
	} else if _, after, ok := strings.Cut(url, "github.com/"); ok {
		repoPath = after
	} else {
		return "", "", fmt.Errorf("URL does not appear to be a GitHub repository: %s", url)
	}
	repoPath = strings.TrimSuffix(strings.TrimSuffix(repoPath, "/"), ".git")
	log.Printf("Parsed GitHub URL %s as %s", url, repoPath)
	return SplitRepoSlug(repoPath)
}

// ResolveRepo accepts either an owner/repo slug or a GitHub URL.
func ResolveRepo(ref string) (owner, repo string, err error) {
	if strings.Contains(ref, "github.com") {
		return ParseGitHubURL(ref)
	}
	return SplitRepoSlug(ref)
}
