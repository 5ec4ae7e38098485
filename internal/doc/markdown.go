package doc

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	markdownParser = goldmark.DefaultParser()
	orderedRe      = regexp.MustCompile(`^\d+[.)]`)
)

// emptyParagraph is written for a paragraph with no text, which
// CommonMark has no other way to express.
const emptyParagraph = `\`

// ParseMarkdown reads CommonMark into a document. Headings, paragraphs,
// blockquotes and lists map to their node kinds; emphasis, strong
// emphasis and code spans become marks. Code blocks and HTML blocks are
// kept as paragraph text, links keep their label, and thematic breaks
// are dropped.
func ParseMarkdown(src string) *Node {
	source := []byte(src)
	root := markdownParser.Parse(text.NewReader(source))
	blocks := readBlocks(root, source)
	if len(blocks) == 0 {
		blocks = []*Node{Paragraph()}
	}
	return Doc(blocks...)
}

func readBlocks(parent ast.Node, src []byte) []*Node {
	var out []*Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Heading:
			out = append(out, Heading(n.Level, readInline(n, src)...))
		case *ast.Paragraph, *ast.TextBlock:
			if string(bytes.TrimSpace(blockLines(c, src, nil))) == emptyParagraph {
				out = append(out, Paragraph())
				continue
			}
			out = append(out, Paragraph(readInline(c, src)...))
		case *ast.Blockquote:
			children := readBlocks(n, src)
			if len(children) == 0 {
				children = []*Node{Paragraph()}
			}
			out = append(out, Blockquote(children...))
		case *ast.List:
			out = append(out, readList(n, src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			code := strings.TrimSpace(string(blockLines(c, src, []byte(" "))))
			out = append(out, Paragraph(Text(code, MarkCode)))
		case *ast.HTMLBlock:
			out = append(out, Paragraph(Text(strings.TrimSpace(string(blockLines(c, src, []byte(" ")))))))
		case *ast.ThematicBreak:
		default:
			out = append(out, readBlocks(c, src)...)
		}
	}
	return out
}

func readList(n *ast.List, src []byte) *Node {
	var items []*Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		children := readBlocks(c, src)
		if len(children) == 0 || children[0].kind != KindParagraph {
			children = append([]*Node{Paragraph()}, children...)
		}
		items = append(items, ListItem(children...))
	}
	if n.IsOrdered() {
		return NewContainer(KindOrderedList, Attrs{Order: max(n.Start, 1)}, items...)
	}
	return BulletList(items...)
}

// blockLines joins the raw source lines of a block, replacing each line
// ending with sep.
func blockLines(n ast.Node, src, sep []byte) []byte {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(bytes.TrimRight(seg.Value(src), "\r\n"))
		if i < lines.Len()-1 {
			b.Write(sep)
		}
	}
	return b.Bytes()
}

// inlineReader collects the spans of one textblock. Adjacent text nodes
// with equal marks are gathered raw before unescaping, so an escape is
// never split across node boundaries.
type inlineReader struct {
	src      []byte
	spans    []Span
	raw      []byte
	rawMarks MarkSet
}

func readInline(n ast.Node, src []byte) []Span {
	r := &inlineReader{src: src}
	r.walk(n, MarkSet(0))
	r.flush()
	return r.spans
}

func (r *inlineReader) walk(n ast.Node, marks MarkSet) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			if c.IsRaw() {
				r.literal(string(c.Segment.Value(r.src)), marks)
			} else {
				r.text(c.Segment.Value(r.src), marks)
			}
			switch {
			case c.HardLineBreak():
				r.literal("\n", marks)
			case c.SoftLineBreak():
				r.literal(" ", marks)
			}
		case *ast.String:
			if c.IsRaw() || c.IsCode() {
				r.literal(string(c.Value), marks)
			} else {
				r.text(c.Value, marks)
			}
		case *ast.CodeSpan:
			var b strings.Builder
			for t := c.FirstChild(); t != nil; t = t.NextSibling() {
				if t, ok := t.(*ast.Text); ok {
					v := t.Segment.Value(r.src)
					if bytes.HasSuffix(v, []byte("\n")) {
						b.Write(bytes.TrimRight(v, "\r\n"))
						b.WriteByte(' ')
						continue
					}
					b.Write(v)
				}
			}
			r.literal(b.String(), marks.With(MarkCode))
		case *ast.Emphasis:
			m := MarkEm
			if c.Level >= 2 {
				m = MarkStrong
			}
			r.walk(c, marks.With(m))
		case *ast.AutoLink:
			r.literal(string(c.Label(r.src)), marks)
		case *ast.RawHTML:
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				r.literal(string(seg.Value(r.src)), marks)
			}
		default:
			r.walk(c, marks)
		}
	}
}

func (r *inlineReader) text(raw []byte, marks MarkSet) {
	if len(r.raw) > 0 && r.rawMarks != marks {
		r.flush()
	}
	r.raw = append(r.raw, raw...)
	r.rawMarks = marks
}

func (r *inlineReader) literal(s string, marks MarkSet) {
	r.flush()
	r.spans = append(r.spans, Span{Text: s, Marks: marks})
}

func (r *inlineReader) flush() {
	if len(r.raw) == 0 {
		return
	}
	r.spans = append(r.spans, Span{Text: unescapeText(r.raw), Marks: r.rawMarks})
	r.raw = r.raw[:0]
}

// unescapeText resolves backslash escapes and character references in
// one pass, so an escaped '&' never starts a reference.
func unescapeText(raw []byte) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\\' && i+1 < len(raw) && util.IsPunct(raw[i+1]) {
			b.WriteByte(raw[i+1])
			i++
			continue
		}
		if c == '&' {
			if end := bytes.IndexByte(raw[i:], ';'); end > 1 && end <= 32 {
				ref := raw[i : i+end+1]
				var v []byte
				if ref[1] == '#' {
					v = util.ResolveNumericReferences(ref)
				} else {
					v = util.ResolveEntityNames(ref)
				}
				if !bytes.Equal(v, ref) {
					b.Write(v)
					i += end
					continue
				}
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Markdown renders root as CommonMark that ParseMarkdown reads back to
// an equal document.
func Markdown(root *Node) string {
	return renderBlocks(root.children) + "\n"
}

func renderBlocks(nodes []*Node) string {
	parts := make([]string, len(nodes))
	alt := false
	for i, n := range nodes {
		// Two lists of one kind in a row need different markers or they
		// would read back as one list.
		alt = i > 0 && n.kind.IsList() && nodes[i-1].kind == n.kind && !alt
		parts[i] = renderBlock(n, alt)
	}
	return strings.Join(parts, "\n\n")
}

func renderBlock(n *Node, alt bool) string {
	switch n.kind {
	case KindParagraph:
		if len(n.spans) == 0 {
			return emptyParagraph
		}
		return escapeLeading(renderInline(n.spans))
	case KindHeading:
		level := n.attrs.Level
		if level == 0 {
			level = 1
		}
		content := renderInline(n.spans)
		if content == "" {
			return strings.Repeat("#", level)
		}
		if strings.HasSuffix(content, "#") {
			content = content[:len(content)-1] + `\#`
		}
		return strings.Repeat("#", level) + " " + content
	case KindBlockquote:
		lines := strings.Split(renderBlocks(n.children), "\n")
		for i, l := range lines {
			if l == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + l
			}
		}
		return strings.Join(lines, "\n")
	case KindBulletList, KindOrderedList:
		order := n.attrs.Order
		if order == 0 {
			order = 1
		}
		items := make([]string, len(n.children))
		for i, item := range n.children {
			marker := "- "
			if alt {
				marker = "* "
			}
			if n.kind == KindOrderedList {
				delim := "."
				if alt {
					delim = ")"
				}
				marker = fmt.Sprintf("%d%s ", order+i, delim)
			}
			indent := strings.Repeat(" ", len(marker))
			lines := strings.Split(renderBlocks(item.children), "\n")
			for j, l := range lines {
				switch {
				case j == 0:
					lines[j] = marker + l
				case l != "":
					lines[j] = indent + l
				}
			}
			items[i] = strings.Join(lines, "\n")
		}
		return strings.Join(items, "\n")
	default:
		return renderBlocks(n.children)
	}
}

// inlineToken is either a span or one mark delimiter. A closing
// delimiter points at its opening token through pair.
type inlineToken struct {
	span    Span
	delim   bool
	opening bool
	mark    MarkKind
	pair    int
}

func inlineTokens(spans []Span) []inlineToken {
	var (
		toks []inlineToken
		open []int
	)
	isOpen := func(upto int, m MarkKind) bool {
		for _, at := range open[:upto] {
			if toks[at].mark == m {
				return true
			}
		}
		return false
	}
	for _, sp := range spans {
		cut := len(open)
		for i, at := range open {
			if !sp.Marks.Has(toks[at].mark) {
				cut = i
				break
			}
		}
		// Code must stay innermost, since nothing is parsed inside it.
		for i, at := range open[:cut] {
			if toks[at].mark != MarkCode {
				continue
			}
			for _, want := range sp.Marks.Kinds() {
				if want != MarkCode && !isOpen(cut, want) {
					cut = i
					break
				}
			}
		}
		for j := len(open) - 1; j >= cut; j-- {
			toks = append(toks, inlineToken{delim: true, mark: toks[open[j]].mark, pair: open[j]})
		}
		open = open[:cut]
		for _, m := range sp.Marks.Kinds() {
			if !isOpen(len(open), m) {
				open = append(open, len(toks))
				toks = append(toks, inlineToken{delim: true, opening: true, mark: m, pair: len(toks)})
			}
		}
		toks = append(toks, inlineToken{span: sp})
	}
	for j := len(open) - 1; j >= 0; j-- {
		toks = append(toks, inlineToken{delim: true, mark: toks[open[j]].mark, pair: open[j]})
	}
	return toks
}

func renderInline(spans []Span) string {
	toks := inlineTokens(spans)
	delims := make(map[int]string)
	for i, t := range toks {
		if !t.delim || !t.opening {
			continue
		}
		switch t.mark {
		case MarkStrong:
			delims[i] = "**"
		case MarkEm:
			delims[i] = "_"
		default:
			delims[i] = codeFence(toks[i+1].span.Text)
		}
	}
	// "_" cannot open or close inside a word.
	for i, t := range toks {
		if t.delim && !t.opening && t.mark == MarkEm &&
			(wordEdge(toks, t.pair-1, false) || wordEdge(toks, i+1, true)) {
			delims[t.pair] = "*"
		}
	}

	var b strings.Builder
	for i, t := range toks {
		switch {
		case t.delim:
			b.WriteString(delims[t.pair])
		case t.span.Marks.Has(MarkCode):
			b.WriteString(codeContent(t.span.Text))
		default:
			lead := i == 0 || toks[i-1].opening
			trail := i == len(toks)-1 || (toks[i+1].delim && !toks[i+1].opening)
			b.WriteString(escapeText(t.span.Text, lead, trail))
		}
	}
	return b.String()
}

// wordEdge reports whether the text token at i touches its neighbour
// with a letter or digit.
func wordEdge(toks []inlineToken, i int, first bool) bool {
	if i < 0 || i >= len(toks) || toks[i].delim || toks[i].span.Marks.Has(MarkCode) {
		return false
	}
	s := toks[i].span.Text
	var r rune
	if first {
		r, _ = utf8.DecodeRuneInString(s)
	} else {
		r, _ = utf8.DecodeLastRuneInString(s)
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func codeFence(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", longest+1)
}

// codeContent pads s when a reader would otherwise strip or misread its
// edges.
func codeContent(s string) string {
	switch {
	case strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`"):
		return " " + s + " "
	case len(s) >= 2 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.TrimLeft(s, " ") != "":
		return " " + s + " "
	}
	return s
}

const markdownPunct = "\\*_`&<[]"

// escapeText escapes inline syntax in s. A space or tab touching the
// block edge or an enclosing delimiter is written as a character
// reference, since a reader would trim it or refuse the delimiter.
func escapeText(s string, lead, trail bool) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == '\n':
			b.WriteString("&#10;")
		case (r == ' ' || r == '\t') && ((lead && i == 0) || (trail && i == len(rs)-1)):
			fmt.Fprintf(&b, "&#%d;", r)
		case strings.ContainsRune(markdownPunct, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeLeading keeps a paragraph from reading as another block.
func escapeLeading(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("#>-+~=", rune(s[0])) {
		return `\` + s
	}
	if loc := orderedRe.FindStringIndex(s); loc != nil {
		return s[:loc[1]-1] + `\` + s[loc[1]-1:]
	}
	return s
}
