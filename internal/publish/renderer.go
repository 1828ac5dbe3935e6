// Package publish renders blog posts as Blowfish page bundles and syncs
// them to object storage, where the static site build picks them up.
package publish

import (
	"fmt"
	"strings"

	"github.com/ovalline/pitwall/internal/blog"
)

const summaryRunes = 100

// RenderPost renders a post as a page bundle index.md: YAML frontmatter the
// theme understands, then the stored markdown body.
func RenderPost(p *blog.Post, authorEmail string) string {
	summary := []rune(p.Content)
	if len(summary) > summaryRunes {
		summary = summary[:summaryRunes]
	}
	// headings and line breaks read badly in list previews
	cleaned := strings.NewReplacer("#", "", "\n", " ").Replace(string(summary))

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", p.Title)
	fmt.Fprintf(&b, "date: %s\n", p.CreatedAt.Format("2006-01-02"))
	b.WriteString("draft: false\n")
	fmt.Fprintf(&b, "summary: %q\n", strings.TrimSpace(cleaned)+"...")
	b.WriteString("showAuthor: true\n")
	b.WriteString("authors:\n")
	fmt.Fprintf(&b, "  - %q\n", authorEmail)
	b.WriteString("---\n\n")
	b.WriteString(p.Content)
	b.WriteString("\n")
	return b.String()
}
