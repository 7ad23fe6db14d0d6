// Package hash provides deterministic content fingerprinting for artifact
// files and directory trees.
//
// Digests are SHA-256 truncated to a fixed hex prefix. Truncation keeps
// sidecar files and manifests compact while remaining collision-resistant
// for change detection between two versions of the same skill bundle.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
)

// DigestLen is the length in hex characters of a truncated content digest.
// 16 hex chars = 64 bits of the SHA-256 output.
const DigestLen = 16

// Content returns the digest of a byte slice.
func Content(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:DigestLen]
}

// File returns the digest of a file's contents.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return Content(data), nil
}

// Manifest walks the directory tree rooted at root and returns a map of
// slash-separated relative path to content digest for every regular file.
//
// Names matching the exclude list are skipped; an excluded directory is
// not descended into. Exclude entries are matched against the base name,
// either exactly or as a filepath.Match pattern.
//
// Any unreadable file aborts the walk with an error so callers never act
// on a partial, misleading manifest.
func Manifest(root string, excludes []string) (map[string]string, error) {
	manifest := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if path == root {
			return nil
		}

		if Excluded(d.Name(), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		digest, err := File(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}
		manifest[filepath.ToSlash(rel)] = digest

		return nil
	})
	if err != nil {
		return nil, err
	}

	return manifest, nil
}

// HashContent returns the digest manifest of an in-memory content map,
// keyed by the same relative paths.
func HashContent(content map[string][]byte) map[string]string {
	manifest := make(map[string]string, len(content))
	for path, data := range content {
		manifest[path] = Content(data)
	}
	return manifest
}

// SortedPaths returns the manifest's paths in lexical order. Iterating in
// this order keeps combined-manifest hashing and plan output reproducible.
func SortedPaths(manifest map[string]string) []string {
	out := make([]string, 0, len(manifest))
	for path := range manifest {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Excluded reports whether a base name matches the exclude list.
func Excluded(name string, excludes []string) bool {
	for _, pattern := range excludes {
		if name == pattern {
			return true
		}
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
