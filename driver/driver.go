// Package driver implements the merge pipeline's public entry points:
// MergeFiles runs the full semistructured pipeline for a single file;
// MergeDirectories and MergeRevisions fan that out across a tree of files.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alicezbo/jFSTMerge/config"
	"github.com/alicezbo/jFSTMerge/handlers"
	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/parse"
	"github.com/alicezbo/jFSTMerge/serialize"
	"github.com/alicezbo/jFSTMerge/similarity"
	"github.com/alicezbo/jFSTMerge/superimpose"
	"github.com/alicezbo/jFSTMerge/textualmerge"
	"github.com/alicezbo/jFSTMerge/tree"
)

// InputError reports a problem with the inputs to a merge, before any
// parsing or merging is attempted: a missing file, an unreadable revisions
// file, and the like.
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

// TextualMergeError reports an internal fault in the line-merge machinery
// itself, not the mere presence of conflict markers in its output.
type TextualMergeError struct {
	Path string
	Err  error
}

func (e *TextualMergeError) Error() string {
	return fmt.Sprintf("textual merge failed for %s: %v", e.Path, e.Err)
}

func (e *TextualMergeError) Unwrap() error { return e.Err }

var parser = parse.NewParser()

// MergeFiles runs the full pipeline for one file: fast-forward detection,
// parsing, superimposition, unstructured merge, and the handler chain. Any
// of left/base/right may be nil, treated as an empty file.
func MergeFiles(left, base, right []byte, path string, cfg config.Configuration) (*mergectx.Context, error) {
	left, base, right = orEmpty(left), orEmpty(base), orEmpty(right)

	unstructured, unstructuredConflict, err := textualmerge.Merge(string(left), string(base), string(right), cfg.IgnoreWhitespaceChange)
	if err != nil {
		return nil, &TextualMergeError{Path: path, Err: err}
	}

	if ff, ok := fastForward(left, base, right); ok {
		ctx := mergectx.New(path, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID)
		ctx.UnstructuredOutput = string(ff)
		return finish(ctx, ff), nil
	}

	leftTree, leftRoot, leftErr := parser.Parse(path, left, parse.EncodingUTF8)
	baseTree, baseRoot, baseErr := parser.Parse(path, base, parse.EncodingUTF8)
	rightTree, rightRoot, rightErr := parser.Parse(path, right, parse.EncodingUTF8)
	if leftErr != nil || baseErr != nil || rightErr != nil {
		// Semistructured path unavailable: fall back to the unstructured
		// result, preserving whatever conflict markers it emitted.
		ctx := mergectx.New(path, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID)
		ctx.UnstructuredOutput = unstructured
		out := []byte(unstructured)
		if unstructuredConflict {
			ctx.RecordConflict(mergectx.TextualConflict)
		}
		return finish(ctx, out), nil
	}

	res, err := superimpose.Run(leftTree, leftRoot, baseTree, baseRoot, rightTree, rightRoot, cfg.IgnoreWhitespaceChange)
	if err != nil {
		return nil, &TextualMergeError{Path: path, Err: err}
	}

	ctx := mergectx.New(path, leftTree, leftRoot, baseTree, baseRoot, rightTree, rightRoot)
	ctx.SuperImposedTree = res.Tree
	ctx.SuperImposedRoot = res.Root
	ctx.AddedLeftNodes = tree.AddedTerminals(leftTree, leftRoot, baseTree, baseRoot)
	ctx.AddedRightNodes = tree.AddedTerminals(rightTree, rightRoot, baseTree, baseRoot)
	ctx.UnstructuredOutput = unstructured
	ctx.UnstructuredHasConflicts = unstructuredConflict
	for _, id := range res.ConflictedNodes {
		ctx.MarkTerminalConflict(id)
	}

	if err := handlers.Run(handlers.Build(cfg), ctx); err != nil {
		return nil, &TextualMergeError{Path: path, Err: err}
	}

	out, err := serialize.Emit(ctx.SuperImposedTree, ctx.SuperImposedRoot)
	if err != nil {
		return nil, &TextualMergeError{Path: path, Err: err}
	}
	return finish(ctx, out), nil
}

func finish(ctx *mergectx.Context, out []byte) *mergectx.Context {
	ctx.Output = out
	return ctx
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// fastForward reports whether the merge is trivial and returns the result
// verbatim: when base equals one side, the other side; when left equals
// right, left. Equality is decided
// by comparing BLAKE3 content fingerprints rather than the raw bytes
// directly, the same content-addressed equivalence check the teacher's own
// composition fast-path uses ahead of a full structural compare.
func fastForward(left, base, right []byte) ([]byte, bool) {
	fpLeft, fpBase, fpRight := similarity.ContentFingerprint(left), similarity.ContentFingerprint(base), similarity.ContentFingerprint(right)
	if fpBase == fpRight {
		return left, true
	}
	if fpBase == fpLeft {
		return right, true
	}
	if fpLeft == fpRight {
		return left, true
	}
	return nil, false
}

// MergeDirectories pairs files by relative path across the three directory
// trees (a missing path on a side is an empty file), skips paths matched by
// cfg.ExcludeGlobs, and merges every pair concurrently.
func MergeDirectories(leftDir, baseDir, rightDir string, cfg config.Configuration) ([]*mergectx.Context, error) {
	paths, err := unionRelativePaths(leftDir, baseDir, rightDir, cfg.ExcludeGlobs)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []*mergectx.Context
		wg      sync.WaitGroup
		sem     = make(chan struct{}, runtime.GOMAXPROCS(0))
	)

	for _, rel := range paths {
		rel := rel
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			left, _ := os.ReadFile(filepath.Join(leftDir, rel))
			base, _ := os.ReadFile(filepath.Join(baseDir, rel))
			right, _ := os.ReadFile(filepath.Join(rightDir, rel))

			ctx, mergeErr := MergeFiles(left, base, right, rel, cfg)

			mu.Lock()
			defer mu.Unlock()
			if mergeErr != nil {
				ctx = mergectx.New(rel, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID, nil, tree.InvalidNodeID)
				ctx.Path = rel
			}
			results = append(results, ctx)
		}()
	}
	wg.Wait()

	return results, nil
}

// unionRelativePaths walks all three directories and returns the sorted
// union of relative file paths not excluded by globs.
func unionRelativePaths(leftDir, baseDir, rightDir string, excludeGlobs []string) ([]string, error) {
	seen := map[string]bool{}
	for _, dir := range []string{leftDir, baseDir, rightDir} {
		if dir == "" {
			continue
		}
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info == nil || info.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if excluded(rel, excludeGlobs) {
				return nil
			}
			seen[rel] = true
			return nil
		})
		if err != nil {
			return nil, &InputError{msg: fmt.Sprintf("walking %s: %v", dir, err)}
		}
	}

	out := make([]string, 0, len(seen))
	for rel := range seen {
		out = append(out, rel)
	}
	sort.Strings(out)
	return out, nil
}

func excluded(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// MergeRevisions reads a 3-line file listing the left, base, and right
// directory paths (in that order; blank lines and #-comments are ignored)
// and delegates to MergeDirectories.
func MergeRevisions(revisionsFilePath string, cfg config.Configuration) ([]*mergectx.Context, error) {
	data, err := os.ReadFile(revisionsFilePath)
	if err != nil {
		return nil, &InputError{msg: fmt.Sprintf("reading revisions file %s: %v", revisionsFilePath, err)}
	}

	var dirs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirs = append(dirs, line)
	}
	if len(dirs) != 3 {
		return nil, &InputError{msg: fmt.Sprintf("revisions file %s must list exactly 3 directories, found %d", revisionsFilePath, len(dirs))}
	}

	return MergeDirectories(dirs[0], dirs[1], dirs[2], cfg)
}
