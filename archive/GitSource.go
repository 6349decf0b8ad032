package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/utils"
	log "github.com/sirupsen/logrus"
)

// FromGitRepository shallow-clones repoURL under workDir and packs the worktree
// into a single archive named after the repository.
func FromGitRepository(ctx context.Context, repoURL string, workDir string) (core.SelectedFile, error) {
	repoName, err := utils.ExtractRepoName(repoURL)
	if err != nil {
		return core.SelectedFile{}, fmt.Errorf("invalid repository URL '%s': %w", repoURL, err)
	}

	cloneDir, err := os.MkdirTemp(workDir, "securecodeauditor-*")
	if err != nil {
		return core.SelectedFile{}, fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer os.RemoveAll(cloneDir)

	log.Printf("Cloning repository: %s", repoName)
	if err := utils.CloneRepository(ctx, repoURL, cloneDir); err != nil {
		return core.SelectedFile{}, err
	}

	content, err := PackDirectory(cloneDir)
	if err != nil {
		return core.SelectedFile{}, err
	}

	return core.SelectedFile{
		Name:        utils.SanitizeRepoName(repoName) + ".zip",
		Content:     content,
		ContentType: core.ZipContentType,
	}, nil
}
