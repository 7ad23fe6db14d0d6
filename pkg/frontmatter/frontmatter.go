// Package frontmatter provides utilities for parsing YAML frontmatter
// in markdown files.
package frontmatter

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrMissingFrontmatter is returned by MustParse when no frontmatter is found.
var ErrMissingFrontmatter = errors.New("missing frontmatter")

// ErrUnterminatedFrontmatter is returned when the opening delimiter has no
// matching closing delimiter.
var ErrUnterminatedFrontmatter = errors.New("missing closing frontmatter delimiter")

var delimiter = []byte("---")

// Parse extracts YAML frontmatter and body content from a reader.
// If no frontmatter is present, matter is left untouched and the full
// content is returned as body. Useful for files where frontmatter is
// optional.
func Parse[T any](r io.Reader, matter *T) (body []byte, err error) {
	return parse(r, matter, false)
}

// MustParse is like Parse but returns ErrMissingFrontmatter if no
// frontmatter is found. Useful for files where frontmatter is required,
// such as SKILL.md markers.
func MustParse[T any](r io.Reader, matter *T) (body []byte, err error) {
	return parse(r, matter, true)
}

func parse[T any](r io.Reader, matter *T, required bool) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading content")
	}

	head, rest, ok := splitLine(content)
	if !ok || !bytes.Equal(head, delimiter) {
		if required {
			return nil, ErrMissingFrontmatter
		}
		return content, nil
	}

	// Scan line by line for the closing delimiter so a "---" embedded in a
	// YAML string value on the same line does not terminate the block.
	var matterBuf bytes.Buffer
	for {
		var line []byte
		line, rest, ok = splitLine(rest)
		if !ok {
			if required {
				return nil, ErrUnterminatedFrontmatter
			}
			return content, nil
		}
		if bytes.Equal(line, delimiter) {
			break
		}
		matterBuf.Write(line)
		matterBuf.WriteByte('\n')
	}

	if err := yaml.Unmarshal(matterBuf.Bytes(), matter); err != nil {
		return nil, errors.Wrap(err, "parsing frontmatter")
	}

	return rest, nil
}

// splitLine cuts content at the first newline, trimming a trailing \r from
// the returned line. ok is false when content is empty.
func splitLine(content []byte) (line, rest []byte, ok bool) {
	if len(content) == 0 {
		return nil, nil, false
	}
	idx := bytes.IndexByte(content, '\n')
	if idx < 0 {
		return bytes.TrimSuffix(content, []byte("\r")), nil, true
	}
	return bytes.TrimSuffix(content[:idx], []byte("\r")), content[idx+1:], true
}
