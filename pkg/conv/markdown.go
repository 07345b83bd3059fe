package conv

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
	tgPolicy   = bluemonday.NewPolicy()
)

func init() {
	// Allowed tags https://core.telegram.org/bots/api#html-style
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowAttrs("class").OnElements("code")
}

// MarkdownToTelegramHTML renders model output into the HTML subset Telegram
// accepts. Headings become bold lines and list items get textual markers,
// since Telegram has no tags for either.
func MarkdownToTelegramHTML(md []byte) string {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags:          htmlFlags,
		RenderNodeHook: telegramBlocks,
	})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(tgPolicy.SanitizeBytes(unsafeHTML))
}

func telegramBlocks(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.Heading:
		if entering {
			_, _ = io.WriteString(w, "<b>")
		} else {
			_, _ = io.WriteString(w, "</b>\n")
		}
		return ast.GoToNext, true

	case *ast.List:
		if entering && isListItem(n.Parent) {
			_, _ = io.WriteString(w, "\n")
		}
		return ast.GoToNext, true

	case *ast.ListItem:
		if entering {
			_, _ = io.WriteString(w, strings.Repeat("  ", listDepth(n))+listMarker(n))
		} else if !endsWithList(n) {
			_, _ = io.WriteString(w, "\n")
		}
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

func isListItem(n ast.Node) bool {
	_, ok := n.(*ast.ListItem)
	return ok
}

// listDepth is 0 for items of a top-level list.
func listDepth(item *ast.ListItem) int {
	depth := -1
	for p := item.GetParent(); p != nil; p = p.GetParent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	return max(depth, 0)
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.GetParent().(*ast.List)
	if !ok || list.ListFlags&ast.ListTypeOrdered == 0 {
		return "• "
	}

	start := max(list.Start, 1)
	for i, c := range list.GetChildren() {
		if c == ast.Node(item) {
			return fmt.Sprintf("%d. ", start+i)
		}
	}
	return "• "
}

func endsWithList(item *ast.ListItem) bool {
	children := item.GetChildren()
	if len(children) == 0 {
		return false
	}
	_, ok := children[len(children)-1].(*ast.List)
	return ok
}
