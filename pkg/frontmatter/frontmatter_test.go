package frontmatter

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

type testMatter struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func TestParse(t *testing.T) {
	input := "---\nname: my-skill\nversion: 1.2.0\n---\n\n# Body\n"

	var matter testMatter
	body, err := Parse(strings.NewReader(input), &matter)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if matter.Name != "my-skill" || matter.Version != "1.2.0" {
		t.Errorf("matter = %+v", matter)
	}
	if string(body) != "\n# Body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseCRLF(t *testing.T) {
	input := "---\r\nname: my-skill\r\n---\r\nbody\r\n"

	var matter testMatter
	_, err := Parse(strings.NewReader(input), &matter)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if matter.Name != "my-skill" {
		t.Errorf("matter = %+v", matter)
	}
}

func TestParseNoFrontmatter(t *testing.T) {
	input := "# Just markdown\n"

	var matter testMatter
	body, err := Parse(strings.NewReader(input), &matter)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if string(body) != input {
		t.Errorf("body = %q, want full content", body)
	}
	if matter.Name != "" {
		t.Errorf("matter modified: %+v", matter)
	}
}

func TestParseEmbeddedDelimiterInValue(t *testing.T) {
	input := "---\nname: \"a --- b\"\n---\nbody\n"

	var matter testMatter
	body, err := Parse(strings.NewReader(input), &matter)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if matter.Name != "a --- b" {
		t.Errorf("Name = %q", matter.Name)
	}
	if string(body) != "body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	input := "---\nname: [unclosed\n---\nbody\n"

	var matter testMatter
	if _, err := Parse(strings.NewReader(input), &matter); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestMustParse(t *testing.T) {
	var matter testMatter

	_, err := MustParse(strings.NewReader("# no frontmatter\n"), &matter)
	if !errors.Is(err, ErrMissingFrontmatter) {
		t.Errorf("MustParse() error = %v, want ErrMissingFrontmatter", err)
	}

	_, err = MustParse(strings.NewReader("---\nname: x\nno closing\n"), &matter)
	if !errors.Is(err, ErrUnterminatedFrontmatter) {
		t.Errorf("MustParse() error = %v, want ErrUnterminatedFrontmatter", err)
	}

	body, err := MustParse(strings.NewReader("---\nname: x\n---\nbody"), &matter)
	if err != nil {
		t.Fatalf("MustParse() error = %v", err)
	}
	if matter.Name != "x" || string(body) != "body" {
		t.Errorf("matter = %+v, body = %q", matter, body)
	}
}
