// Package backend opens the file tree content and assets are read from:
// either a plain directory or the head of a branch in a git repository.
package backend

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gogits/git"
	"github.com/lemmi/ghfs"
	"github.com/pkg/errors"
)

type Backend interface {
	http.FileSystem
}

// CIDer is implemented by backends that know the revision they serve.
type CIDer interface {
	CID() string
}

type commitFS struct {
	http.FileSystem
	cid string
}

func (c commitFS) CID() string {
	return c.cid
}

// Dir serves the tree below prefix.
func Dir(prefix string) (Backend, error) {
	path, err := filepath.Abs(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "filepath.Abs(%q)", prefix)
	}
	return http.Dir(path), nil
}

// Git serves the tree of the newest commit of branch in the repository at
// prefix. The commit is looked up once; call Git again to pick up new
// commits.
func Git(prefix, branch string) (Backend, error) {
	path, err := filepath.Abs(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "filepath.Abs(%q)", prefix)
	}
	repo, err := git.OpenRepository(path)
	if err != nil {
		return nil, errors.Wrapf(err, "git.OpenRepository(%q)", path)
	}
	commit, err := repo.GetCommitOfBranch(branch)
	if err != nil {
		return nil, errors.Wrapf(err, "Can not open branch %q", branch)
	}
	return commitFS{
		FileSystem: ghfs.FromCommit(commit),
		cid:        strings.Trim(commit.Id.String(), "\""),
	}, nil
}

// Open picks Git or Dir.
func Open(prefix string, useGit bool, branch string) (Backend, error) {
	if useGit {
		return Git(prefix, branch)
	}
	return Dir(prefix)
}
