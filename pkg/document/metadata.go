package document

import (
	"regexp"
	"strings"
)

// headingPattern matches a markdown ATX heading (#{1,6}) at the start of a
// line.
var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.*)$`)

// heading is a markdown heading occurrence with its byte offset in the
// source text.
type heading struct {
	offset int
	text   string
}

func headings(text string) []heading {
	locs := headingPattern.FindAllStringSubmatchIndex(text, -1)
	out := make([]heading, 0, len(locs))
	for _, loc := range locs {
		out = append(out, heading{offset: loc[0], text: strings.TrimSpace(text[loc[4]:loc[5]])})
	}
	return out
}

// ComputePositions fills PositionFrom/PositionTo on each chunk via a
// sequential indexOf(chunk, cursor) scan, advancing cursor to the end of
// each match. A chunk whose content cannot be found from the current
// cursor maps to position 0 silently — a known robustness compromise
// carried over from spec §4.2.
func ComputePositions(fullText string, chunks []Chunk) []Chunk {
	cursor := 0
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		idx := strings.Index(fullText[cursor:], c.Content)
		if idx < 0 {
			c.PositionFrom, c.PositionTo = 0, 0
		} else {
			from := cursor + idx
			to := from + len(c.Content)
			c.PositionFrom, c.PositionTo = from, to
			cursor = to
		}
		out[i] = c
	}
	return out
}

// Section returns the most recent heading whose offset is <= pos, or "" if
// none precedes pos (§4.2).
func Section(text string, pos int) string {
	hs := headings(text)
	best := ""
	for _, h := range hs {
		if h.offset <= pos {
			best = h.text
		} else {
			break
		}
	}
	return best
}

// PageRange finds the 1-based page numbers a chunk spans, given the ordered
// page texts of a paged document and the chunk's byte offsets. Both bounds
// are clamped to >= 1 (§4.2).
func PageRange(pages []string, from, to int) (pageFrom, pageTo int) {
	if len(pages) == 0 {
		return 0, 0
	}
	cumulative := make([]int, len(pages)+1)
	for i, p := range pages {
		cumulative[i+1] = cumulative[i] + len(p)
	}

	locate := func(offset int) int {
		for i := 0; i < len(pages); i++ {
			if offset >= cumulative[i] && offset < cumulative[i+1] {
				return i + 1
			}
		}
		return len(pages)
	}

	pageFrom = locate(from)
	pageTo = locate(to)
	if pageFrom < 1 {
		pageFrom = 1
	}
	if pageTo < 1 {
		pageTo = 1
	}
	return pageFrom, pageTo
}

// BuildChunkMetadata computes the full ChunkMetadata for a chunk, given the
// source file's full text, optional paged text, file type, and title.
func BuildChunkMetadata(fullText string, pages []string, fileType, docTitle string, c Chunk) ChunkMetadata {
	meta := ChunkMetadata{
		FileType: fileType,
		DocTitle: docTitle,
	}

	if len(pages) > 0 {
		meta.PageFrom, meta.PageTo = PageRange(pages, c.PositionFrom, c.PositionTo)
	}

	if fileType == ".md" || fileType == ".markdown" || fileType == ".txt" || fileType == "" {
		meta.Section = Section(fullText, c.PositionFrom)
	}

	return meta
}
