// Package clone materializes a remote repository's working tree onto local
// disk through the contents API, without any version-control machinery.
package clone

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reposnap/reposnap/internal/gitrepo"
)

// Cloner walks a remote tree and recreates it locally.
type Cloner struct {
	client gitrepo.Client
	log    *slog.Logger
}

// New creates a Cloner. The logger carries progress notices only; it is
// never consulted for control flow.
func New(client gitrepo.Client, log *slog.Logger) *Cloner {
	return &Cloner{client: client, log: log}
}

// Options control a single clone invocation.
type Options struct {
	// Dir is the destination directory. Empty means the repository name,
	// relative to the working directory.
	Dir string

	// Overwrite forces the walk against an existing destination. Existing
	// files are rewritten in place; local files absent from the remote tree
	// are left alone (additive overwrite, not a mirror).
	Overwrite bool
}

// Clone materializes the tree selected by ref under the destination
// directory. If the destination already exists and Overwrite is false the
// call is a no-op: no remote requests are made and no files are touched.
//
// The walk is depth-first over an explicit stack of pending directories,
// one outstanding remote request at a time. Entries are processed in the
// order the remote listing returns them. The first failure aborts the
// remaining walk and propagates; whatever was already written stays on
// disk.
func (c *Cloner) Clone(ctx context.Context, ref gitrepo.RepoRef, opts Options) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	dest := opts.Dir
	if dest == "" {
		dest = ref.Name
	}

	if _, err := os.Stat(dest); err == nil {
		if !opts.Overwrite {
			c.log.Info("destination exists, skipping clone",
				"repo", ref.FullName(), "dir", dest)
			return nil
		}
		c.log.Info("destination exists, overwriting objects",
			"repo", ref.FullName(), "dir", dest)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return gitrepo.LocalIOError{Path: dest, Err: err}
	}

	c.log.Info("cloning repository", "repo", ref.FullName(), "ref", ref.Ref, "dir", dest)

	// Pending remote directory paths, "" being the repository root. LIFO
	// order keeps the walk depth-first.
	stack := []string{""}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := c.client.ListTree(ctx, ref, dir)
		if err != nil {
			return err
		}

		// Subdirectories discovered in this listing. They are pushed in
		// reverse after the files are written, so they pop in listing order
		// and every directory exists before anything beneath it is fetched.
		var subdirs []string
		for _, entry := range entries {
			switch entry.Kind {
			case gitrepo.EntryDir:
				c.log.Debug("processing directory", "path", entry.Path)
				local := filepath.Join(dest, filepath.FromSlash(entry.Path))
				if err := os.MkdirAll(local, 0o755); err != nil {
					return gitrepo.LocalIOError{Path: local, Err: err}
				}
				subdirs = append(subdirs, entry.Path)
			case gitrepo.EntryFile:
				if err := c.writeFile(ctx, ref, dest, entry.Path); err != nil {
					return err
				}
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	c.log.Info("clone complete", "repo", ref.FullName(), "dir", dest)
	return nil
}

func (c *Cloner) writeFile(ctx context.Context, ref gitrepo.RepoRef, dest, path string) error {
	c.log.Debug("processing file", "path", path)

	blob, err := c.client.GetBlob(ctx, ref, path)
	if err != nil {
		return err
	}

	local := filepath.Join(dest, filepath.FromSlash(path))
	if err := os.WriteFile(local, blob.Bytes(), 0o644); err != nil {
		return gitrepo.LocalIOError{Path: local, Err: err}
	}
	return nil
}

// Handle binds a repository reference to a Cloner so the clone operation is
// always present on the value, with the overwrite flag explicit.
type Handle struct {
	Ref    gitrepo.RepoRef
	cloner *Cloner
}

// Handle returns a repository handle for ref.
func (c *Cloner) Handle(ref gitrepo.RepoRef) Handle {
	return Handle{Ref: ref, cloner: c}
}

// Clone materializes the handle's repository. See Cloner.Clone.
func (h Handle) Clone(ctx context.Context, opts Options) error {
	return h.cloner.Clone(ctx, h.Ref, opts)
}
