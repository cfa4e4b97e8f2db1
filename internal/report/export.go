package report

import (
	"regexp"
	"strings"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockBullet
	blockNumbered
	blockParagraph
)

// block is one exportable unit of the raw markdown answer. Level is set for
// headings only (1..3).
type block struct {
	kind  blockKind
	level int
	text  string
}

var numberedItem = regexp.MustCompile(`^\d+\.\s+`)

// splitBlocks walks the raw markdown line by line the way the report body is
// laid out on the page: headings and list items stand alone, consecutive text
// lines merge into one paragraph, a blank line ends the open paragraph.
func splitBlocks(raw string) []block {
	var blocks []block
	var para []string

	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, block{kind: blockParagraph, text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "#") {
			flush()
			level := 0
			for level < 3 && level < len(stripped) && stripped[level] == '#' {
				level++
			}
			text := strings.TrimSpace(strings.TrimLeft(stripped, "# "))
			if text != "" {
				blocks = append(blocks, block{kind: blockHeading, level: level, text: text})
			}
			continue
		}

		if strings.HasPrefix(stripped, "* ") || strings.HasPrefix(stripped, "- ") {
			flush()
			if item := strings.TrimSpace(stripped[2:]); item != "" {
				blocks = append(blocks, block{kind: blockBullet, text: item})
			}
			continue
		}
		if numberedItem.MatchString(stripped) {
			flush()
			if item := numberedItem.ReplaceAllString(stripped, ""); item != "" {
				blocks = append(blocks, block{kind: blockNumbered, text: item})
			}
			continue
		}

		if stripped == "" {
			flush()
			continue
		}
		para = append(para, stripped)
	}
	flush()
	return blocks
}

// sourcesHeading forks the section title by depth.
func sourcesHeading(deep bool) string {
	if deep {
		return "References"
	}
	return "Sources Cited"
}

// stripInlineMarkup drops the inline markdown the exporters do not render,
// keeping the plain text readable on the page.
var (
	boldMarkup   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarkup = regexp.MustCompile(`\*([^*]+)\*`)
)

func stripInlineMarkup(s string) string {
	s = boldMarkup.ReplaceAllString(s, "$1")
	s = italicMarkup.ReplaceAllString(s, "$1")
	return s
}
