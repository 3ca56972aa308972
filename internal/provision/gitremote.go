package provision

import (
	stderrors "errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/rileyhilliard/appd/internal/errors"
)

// AddLocalRemote adds remote name -> url to the git repository containing
// dir (searching parent directories like git does).
func AddLocalRemote(dir, name, url string) error {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrGit,
			fmt.Sprintf("No git repository at %s", dir),
			fmt.Sprintf("Run from inside your project, or add the remote yourself:\n    git remote add %s %s", name, url))
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if stderrors.Is(err, git.ErrRemoteExists) {
		return errors.New(errors.ErrGit,
			fmt.Sprintf("Git remote '%s' already exists", name),
			fmt.Sprintf("Point it at the new server with:\n    git remote set-url %s %s", name, url))
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrGit,
			fmt.Sprintf("Couldn't add git remote '%s'", name), "")
	}
	return nil
}

// LocalRemoteURLs returns the URLs of remote name in the repository
// containing dir, or nil if there is no such remote.
func LocalRemoteURLs(dir, name string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrGit,
			fmt.Sprintf("No git repository at %s", dir), "")
	}
	r, err := repo.Remote(name)
	if stderrors.Is(err, git.ErrRemoteNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrGit,
			fmt.Sprintf("Couldn't read git remote '%s'", name), "")
	}
	return r.Config().URLs, nil
}
