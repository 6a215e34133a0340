package digest

// Merge combines new candidate entries into the document under the
// given dated heading. It is a pure function of its inputs:
//
//   - every old entry whose identity is absent from the candidates
//     keeps its original position and verbatim text
//   - candidates whose identity already exists in the document are
//     dropped, first write wins and pre-existing summaries are never
//     updated
//   - surviving candidates are appended in candidate order, under the
//     existing section with the matching heading or a fresh section
//     inserted right after the preamble
//
// Running the same merge twice yields the same body, the second run's
// candidates are all duplicates of the first run's appends.
func Merge(doc Document, candidates []Entry, heading string) Document {
	existing := doc.Identities()

	var fresh []Entry
	for _, c := range candidates {
		if c.Identity != "" && existing[c.Identity] {
			continue
		}
		fresh = append(fresh, c)
		if c.Identity != "" {
			existing[c.Identity] = true
		}
	}

	result := clone(doc)
	if len(fresh) == 0 {
		return result
	}

	for i := range result.Sections {
		if result.Sections[i].Heading == heading {
			result.Sections[i].Entries = append(result.Sections[i].Entries, fresh...)
			return result
		}
	}

	// no section for this date yet, newest section goes first
	section := Section{Heading: heading, Entries: fresh}
	result.Sections = append([]Section{section}, result.Sections...)
	return result
}

// clone deep-copies a document so merge never aliases its input
func clone(doc Document) Document {
	out := Document{
		Preamble: append([]string(nil), doc.Preamble...),
		Sections: make([]Section, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		out.Sections[i] = Section{
			Heading: s.Heading,
			Entries: append([]Entry(nil), s.Entries...),
		}
	}
	return out
}
