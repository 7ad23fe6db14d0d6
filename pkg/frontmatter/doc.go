// Package frontmatter parses YAML frontmatter blocks delimited by "---"
// lines at the top of markdown files. The locator uses it to read the
// SKILL.md marker; it is generic over the frontmatter struct so callers
// keep typed metadata at the parsing boundary.
package frontmatter
