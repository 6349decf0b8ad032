package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
)

func SanitizeRepoName(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "_")
}

func ExtractRepoName(repoURL string) (string, error) {
	var repoName string
	if strings.HasPrefix(repoURL, "git@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) != 2 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[1], ".git")
	} else if strings.HasPrefix(repoURL, "https://") || strings.HasPrefix(repoURL, "http://") {
		parts := strings.Split(strings.TrimRight(repoURL, "/"), "/")
		if len(parts) < 4 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[len(parts)-1], ".git")
	} else {
		return "", fmt.Errorf("unsupported repository URL format")
	}
	if repoName == "" {
		return "", fmt.Errorf("repository URL has no repository name")
	}
	return repoName, nil
}

// CloneRepository makes a shallow, single branch clone of cloneURL into destination.
func CloneRepository(ctx context.Context, cloneURL, destination string) error {
	_, err := git.PlainCloneContext(ctx, destination, false, &git.CloneOptions{
		URL:          cloneURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	return nil
}
