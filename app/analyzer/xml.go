package analyzer

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/zbozihub/zbozihub/app/mapping"
)

// ProductElementCandidates are the repeating-element names recognized as
// product containers, in priority order. The first name present in the feed
// is taken as the product element for the whole feed.
var ProductElementCandidates = []string{"item", "product", "offer", "SHOPITEM", "entry", "listing"}

type structure struct {
	root       string
	namespaces map[string]string
	counts     map[string]int    // lowercased element name -> occurrences
	spellings  map[string]string // lowercased element name -> first actual spelling
}

func scanStructure(raw []byte) structure {
	s := structure{
		namespaces: make(map[string]string),
		counts:     make(map[string]int),
		spellings:  make(map[string]string),
	}

	d := xml.NewDecoder(bytes.NewReader(raw))
	d.Strict = false

	for {
		tok, err := d.Token()
		if err != nil {
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		lower := strings.ToLower(start.Name.Local)
		if s.counts[lower] == 0 {
			s.spellings[lower] = start.Name.Local
		}
		s.counts[lower]++

		if s.root == "" {
			s.root = start.Name.Local
			for _, attr := range start.Attr {
				if attr.Name.Space == "xmlns" {
					s.namespaces[attr.Name.Local] = attr.Value
				}
			}
		}
	}

	return s
}

// DetectProductElement returns the product element name as spelled in the
// feed and its occurrence count, or "" when no candidate matches
func DetectProductElement(raw []byte) (string, int) {
	s := scanStructure(raw)
	return s.productElement()
}

func (s structure) productElement() (string, int) {
	for _, candidate := range ProductElementCandidates {
		lower := strings.ToLower(candidate)
		if s.counts[lower] > 0 {
			return s.spellings[lower], s.counts[lower]
		}
	}
	return "", 0
}

// CollectBlocks extracts up to limit product blocks from the raw feed. A
// limit of 0 collects all blocks. Child values are keyed by lowercased,
// namespace-stripped tag name; the first value per tag wins.
func CollectBlocks(raw []byte, element string, limit int) []Block {
	d := xml.NewDecoder(bytes.NewReader(raw))
	d.Strict = false

	var blocks []Block

	var (
		inBlock    bool
		depth      int
		blockDepth int
		blockStart int64
		block      Block
		childTag   string
		childText  strings.Builder
		seenTags   map[string]bool
	)

	offset := d.InputOffset()
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if !inBlock && strings.EqualFold(t.Name.Local, element) {
				inBlock = true
				blockDepth = depth
				blockStart = offset
				block = Block{Values: make(map[string]string)}
				seenTags = make(map[string]bool)
			} else if inBlock && depth == blockDepth+1 {
				childTag = strings.ToLower(t.Name.Local)
				childText.Reset()
				if !seenTags[childTag] {
					seenTags[childTag] = true
					block.Tags = append(block.Tags, t.Name.Local)
				}
			}
		case xml.CharData:
			if inBlock && childTag != "" {
				childText.Write(t)
			}
		case xml.EndElement:
			if inBlock && depth == blockDepth+1 && childTag != "" {
				key := mapping.StripNamespace(childTag)
				if _, exists := block.Values[key]; !exists {
					value := strings.TrimSpace(childText.String())
					if value != "" {
						block.Values[key] = value
					}
				}
				childTag = ""
			}
			if inBlock && depth == blockDepth {
				block.Raw = string(raw[blockStart:d.InputOffset()])
				blocks = append(blocks, block)
				inBlock = false
				if limit > 0 && len(blocks) >= limit {
					return blocks
				}
			}
			depth--
		}

		offset = d.InputOffset()
	}

	return blocks
}
