package cli

import (
	"fmt"
	"sync"

	"github.com/cli/go-gh/v2/pkg/repository"

	"github.com/scanwf/scanwf/pkg/logger"
)

var repoLog = logger.New("cli:repo")

// repoSlugCacheState holds the cached repository slug behind a mutex so the
// cache can be reset between tests.
type repoSlugCacheState struct {
	mu     sync.Mutex
	result string
	err    error
	done   bool
}

var currentRepoSlugCache repoSlugCacheState

// ClearCurrentRepoSlugCache clears the current repository slug cache.
func ClearCurrentRepoSlugCache() {
	currentRepoSlugCache.mu.Lock()
	defer currentRepoSlugCache.mu.Unlock()
	currentRepoSlugCache.result = ""
	currentRepoSlugCache.err = nil
	currentRepoSlugCache.done = false
}

// getCurrentRepoSlugUncached resolves the repository from GH_REPO or the git
// remotes of the working directory.
func getCurrentRepoSlugUncached() (string, error) {
	repoLog.Print("Resolving current repository")
	repo, err := repository.Current()
	if err != nil {
		return "", fmt.Errorf("failed to determine the current repository: %w", err)
	}
	if repo.Owner == "" || repo.Name == "" {
		return "", fmt.Errorf("invalid repository %q, expected owner/repo", repo.Owner+"/"+repo.Name)
	}
	slug := repo.Owner + "/" + repo.Name
	repoLog.Printf("Current repository: %s (host %s)", slug, repo.Host)
	return slug, nil
}

// GetCurrentRepoSlug returns the owner/repo slug of the current repository.
// The first lookup is cached.
func GetCurrentRepoSlug() (string, error) {
	currentRepoSlugCache.mu.Lock()
	defer currentRepoSlugCache.mu.Unlock()
	if !currentRepoSlugCache.done {
		currentRepoSlugCache.result, currentRepoSlugCache.err = getCurrentRepoSlugUncached()
		currentRepoSlugCache.done = true
	}
	return currentRepoSlugCache.result, currentRepoSlugCache.err
}

// resolveRepoFlag expands the special value "." to the current repository.
func resolveRepoFlag(repo string) (string, error) {
	if repo != "." {
		return repo, nil
	}
	return GetCurrentRepoSlug()
}
