package doc

import "strings"

// FromPlainText builds a document with one paragraph per line.
func FromPlainText(s string) *Node {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	paras := make([]*Node, len(lines))
	for i, line := range lines {
		paras[i] = Paragraph(Text(line))
	}
	return Doc(paras...)
}

// MarkCoverage counts the characters in [from, to) and how many of them
// carry m. Block separators are not characters.
func MarkCoverage(root *Node, from, to int, m MarkKind) (chars, marked int) {
	for _, b := range textblocksBetween(root, from, to) {
		lo := max(from, b.start) - b.start
		hi := min(to, b.end) - b.start
		if lo >= hi {
			continue
		}
		in := flatten(b.nodes[len(b.nodes)-1].spans)
		for i := lo; i < hi; i++ {
			chars++
			if in.marks[i].Has(m) {
				marked++
			}
		}
	}
	return chars, marked
}
