package digest

import "strings"

// Document is the parsed destination body: verbatim preamble lines
// followed by dated sections of entry blocks, all in document order.
type Document struct {
	Preamble []string
	Sections []Section
}

// Section groups the entries under one dated heading. A section with
// an empty heading holds entries that appeared before any heading.
type Section struct {
	Heading string
	Entries []Entry
}

// ParseDocument splits a reading-list body into preamble lines,
// section headings and entry blocks. Entry blocks are kept verbatim;
// blank separator lines are structural and re-emitted on render.
func ParseDocument(body string) Document {
	var doc Document
	lines := strings.Split(body, "\n")

	inPreamble := true
	var current *Section
	i := 0
	for i < len(lines) {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, "## "):
			inPreamble = false
			doc.Sections = append(doc.Sections, Section{Heading: strings.TrimRight(line, " ")})
			current = &doc.Sections[len(doc.Sections)-1]
			i++

		case strings.HasPrefix(line, "- ["):
			inPreamble = false
			if current == nil {
				doc.Sections = append(doc.Sections, Section{})
				current = &doc.Sections[len(doc.Sections)-1]
			}
			// entry continues until a blank line, the next entry or
			// the next heading
			var block []string
			for i < len(lines) {
				l := lines[i]
				if l == "" || strings.HasPrefix(l, "## ") {
					break
				}
				if len(block) > 0 && strings.HasPrefix(l, "- [") {
					break
				}
				block = append(block, l)
				i++
			}
			raw := strings.Join(block, "\n")
			current.Entries = append(current.Entries, Entry{Identity: extractIdentity(raw), Raw: raw})

		case inPreamble:
			doc.Preamble = append(doc.Preamble, line)
			i++

		default:
			// blank or stray line between entries, structural only
			i++
		}
	}

	// trailing blank preamble lines are render artifacts
	for len(doc.Preamble) > 0 && doc.Preamble[len(doc.Preamble)-1] == "" {
		doc.Preamble = doc.Preamble[:len(doc.Preamble)-1]
	}

	return doc
}

// Render produces the canonical body for the document
func (d Document) Render() string {
	var sb strings.Builder

	for _, line := range d.Preamble {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	for _, section := range d.Sections {
		if section.Heading != "" {
			sb.WriteString("\n")
			sb.WriteString(section.Heading)
			sb.WriteString("\n")
		}
		for _, entry := range section.Entries {
			sb.WriteString("\n")
			sb.WriteString(entry.Raw)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Identities returns the set of article identities present in the
// document, excluding blocks without a recognizable link.
func (d Document) Identities() map[string]bool {
	ids := make(map[string]bool)
	for _, section := range d.Sections {
		for _, entry := range section.Entries {
			if entry.Identity != "" {
				ids[entry.Identity] = true
			}
		}
	}
	return ids
}

// Entries returns all entry blocks in document order
func (d Document) Entries() []Entry {
	var all []Entry
	for _, section := range d.Sections {
		all = append(all, section.Entries...)
	}
	return all
}
