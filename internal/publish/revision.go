package publish

import (
	"errors"
	"fmt"

	ggit "github.com/go-git/go-git/v5"
)

// Revision returns the HEAD commit of the git work tree containing dir. It
// returns an empty string without error when dir is not inside a repository.
func Revision(dir string) (string, error) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// shortRevision trims a commit hash for display.
func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
