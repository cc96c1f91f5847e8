package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/store"
)

var storeOptionsLog = logger.New("cli:store_options")

// StoreOptions selects where the workflow text lives: a local directory, or
// a GitHub repository when Repo is set.
type StoreOptions struct {
	Dir      string
	Filename string
	Repo     string
	Branch   string
}

// addStoreFlags registers the flags read by storeOptionsFromFlags.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("dir", "d", "", "Workflow directory (default: .github/workflows or $"+constants.WorkflowDirEnvVar+")")
	cmd.Flags().StringP("output", "o", constants.DefaultFilename, "Workflow filename")
	cmd.Flags().StringP("repo", "r", "", "Read and commit the workflow in a GitHub repository (owner/repo, or . for the current one) instead of the local checkout")
	cmd.Flags().String("branch", "", "Branch to commit to when --repo is set (default: repository default branch)")
}

func storeOptionsFromFlags(cmd *cobra.Command) StoreOptions {
	dir, _ := cmd.Flags().GetString("dir")
	name, _ := cmd.Flags().GetString("output")
	repo, _ := cmd.Flags().GetString("repo")
	branch, _ := cmd.Flags().GetString("branch")
	return StoreOptions{Dir: dir, Filename: name, Repo: repo, Branch: branch}
}

// OpenStore returns the content store described by opts.
func OpenStore(opts StoreOptions) (store.Store, error) {
	if opts.Filename == "" {
		opts.Filename = constants.DefaultFilename
	}
	if opts.Repo != "" {
		repo, err := resolveRepoFlag(opts.Repo)
		if err != nil {
			return nil, err
		}
		opts.Repo = repo
		storeOptionsLog.Printf("Using GitHub store: repo=%s branch=%s", opts.Repo, opts.Branch)
		return store.NewGitHub(store.GitHubOptions{
			Repo:     opts.Repo,
			Branch:   opts.Branch,
			Dir:      opts.Dir,
			Filename: opts.Filename,
		})
	}
	storeOptionsLog.Printf("Using file store: dir=%s name=%s", opts.Dir, opts.Filename)
	return store.NewFile(opts.Dir, opts.Filename)
}

// LoadDotEnv loads variables from path into the environment. Variables that
// are already set keep their value, and a missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	storeOptionsLog.Printf("Loaded environment from %s", path)
	return nil
}

// workflowText is a convenience for commands that only read.
func workflowText(s store.Store) (string, error) {
	text, err := s.Get()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", s.Filename(), err)
	}
	return text, nil
}
