// Package descriptor implements the shared scanning logic behind the resource
// indexes: enumerating a directory of candidate entries, reading the
// descriptor files that make an entry valid, and extracting descriptions from
// markdown content. One malformed entry never aborts a scan; it is reported as
// a catalog.Diagnostic and skipped.
package descriptor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/hanjia/skilldex/pkg/catalog"
)

// Conventional file names within a skill directory.
const (
	SkillFileName  = "skill.json"
	ReadmeFileName = "README.md"
	PromptFileName = "prompt.md"
)

// Skill is one discovered skill directory. HasReadme and HasPrompt are
// computed once at scan time and are not re-verified on later reads.
type Skill struct {
	Name         string           `json:"name"`
	Location     catalog.Location `json:"location"`
	Path         string           `json:"path"`
	Description  string           `json:"description,omitempty"`
	SourcePlugin string           `json:"sourcePlugin,omitempty"`
	HasReadme    bool             `json:"hasReadme"`
	HasPrompt    bool             `json:"hasPrompt"`
}

// MarkdownEntry is one discovered markdown-backed resource (an agent or a
// command): a <name>.md file directly under a fixed root.
type MarkdownEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	HasReadme   bool   `json:"hasReadme"`
}

// skillDescriptor is the parsed shape of skill.json. Only the description is
// consumed; presence and well-formedness of the file is the actual contract.
type skillDescriptor struct {
	Description string `json:"description"`
}

// ScanSkills enumerates the immediate subdirectories of root and materializes
// a Skill for each one containing a parseable skill.json. Directories without
// the descriptor are skipped silently; directories with a malformed descriptor
// are skipped with a diagnostic. An absent root yields no entries and no
// diagnostics.
func ScanSkills(root string, location catalog.Location, sourcePlugin string) ([]Skill, []catalog.Diagnostic) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil
	}

	var skills []Skill
	var diags []catalog.Diagnostic

	for _, entry := range entries {
		entryPath := filepath.Join(root, entry.Name())

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		descriptorPath := filepath.Join(entryPath, SkillFileName)
		raw, err := os.ReadFile(descriptorPath)
		if err != nil {
			if !os.IsNotExist(err) {
				diags = append(diags, catalog.Diagnostic{Path: descriptorPath, Reason: "unreadable descriptor: " + err.Error()})
			}
			continue
		}

		var desc skillDescriptor
		if err := json.Unmarshal(raw, &desc); err != nil {
			diags = append(diags, catalog.Diagnostic{Path: descriptorPath, Reason: "malformed descriptor: " + err.Error()})
			continue
		}

		skills = append(skills, Skill{
			Name:         entry.Name(),
			Location:     location,
			Path:         absPath(entryPath),
			Description:  desc.Description,
			SourcePlugin: sourcePlugin,
			HasReadme:    fileExists(filepath.Join(entryPath, ReadmeFileName)),
			HasPrompt:    fileExists(filepath.Join(entryPath, PromptFileName)),
		})
	}

	return skills, diags
}

// ScanMarkdown enumerates the immediate .md files of root (non-recursive) and
// materializes a MarkdownEntry for each readable one. The companion README is
// looked up at the conventional <root>/<name>/README.md path. An absent root
// yields no entries and no diagnostics.
func ScanMarkdown(root string) ([]MarkdownEntry, []catalog.Diagnostic) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil
	}

	var entries []MarkdownEntry
	var diags []catalog.Diagnostic

	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		entryPath := filepath.Join(root, entry.Name())
		content, err := os.ReadFile(entryPath)
		if err != nil {
			diags = append(diags, catalog.Diagnostic{Path: entryPath, Reason: "unreadable file: " + err.Error()})
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".md")
		description, _ := ExtractDescription(content)

		entries = append(entries, MarkdownEntry{
			Name:        name,
			Path:        absPath(entryPath),
			Description: description,
			HasReadme:   fileExists(filepath.Join(root, name, ReadmeFileName)),
		})
	}

	return entries, diags
}

// ExtractDescription pulls a human-readable description out of markdown
// content. Frontmatter wins: a description key in a leading YAML block is
// returned as-is. Failing that, the remainder of the first top-level heading
// is used. The boolean reports whether either stage produced anything.
func ExtractDescription(content []byte) (string, bool) {
	if desc, ok := frontmatterDescription(content); ok {
		return desc, true
	}
	return headingDescription(content)
}

func frontmatterDescription(content []byte) (string, bool) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return "", false
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return "", false
	}

	desc, _ := metaData["description"].(string)
	desc = strings.TrimSpace(desc)
	return desc, desc != ""
}

func headingDescription(content []byte) (string, bool) {
	body := stripFrontmatter(string(content))
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "##") {
			continue
		}
		if rest := strings.TrimSpace(trimmed[1:]); rest != "" {
			return rest, true
		}
	}
	return "", false
}

// stripFrontmatter removes a leading YAML block so heading extraction never
// picks up YAML comments.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// ReadIfExists returns the file's contents and true, or "" and false when the
// file is absent or unreadable.
func ReadIfExists(path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
