// Package frontmatter synthesizes, parses, and merges the structured
// metadata block raido attaches to every migrated note.
package frontmatter

// Record is the typed metadata attached to a note. String fields use "" and
// pointer fields use nil for "absent", which keeps an explicitly cleared
// value distinguishable from a missing one during merges. Keys that raido
// does not own are preserved verbatim in Extra.
type Record struct {
	Title      string
	Tags       []string
	Aliases    []string
	NotionID   string
	Folder     string
	Banner     string
	Status     string
	Owner      string
	Dates      string
	Priority   string
	Completion *float64
	Summary    string
	PublicURL  string
	Published  *bool
	Extra      map[string]any
}

// Merge combines an existing record with incoming metadata. Absent incoming
// fields are dropped, every other incoming field overwrites its existing
// counterpart, and keys present only in existing survive. Published is owned
// by the merge itself: a non-empty incoming public URL forces it to true,
// and nothing ever flips it back.
func Merge(existing, incoming Record) Record {
	out := existing
	out.Tags = append([]string(nil), existing.Tags...)
	out.Aliases = append([]string(nil), existing.Aliases...)
	if len(existing.Extra) > 0 {
		out.Extra = make(map[string]any, len(existing.Extra))
		for k, v := range existing.Extra {
			out.Extra[k] = v
		}
	}

	if incoming.Title != "" {
		out.Title = incoming.Title
	}
	if len(incoming.Tags) > 0 {
		out.Tags = append([]string(nil), incoming.Tags...)
	}
	if len(incoming.Aliases) > 0 {
		out.Aliases = append([]string(nil), incoming.Aliases...)
	}
	if incoming.NotionID != "" {
		out.NotionID = incoming.NotionID
	}
	if incoming.Folder != "" {
		out.Folder = incoming.Folder
	}
	if incoming.Banner != "" {
		out.Banner = incoming.Banner
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.Owner != "" {
		out.Owner = incoming.Owner
	}
	if incoming.Dates != "" {
		out.Dates = incoming.Dates
	}
	if incoming.Priority != "" {
		out.Priority = incoming.Priority
	}
	if incoming.Completion != nil {
		v := *incoming.Completion
		out.Completion = &v
	}
	if incoming.Summary != "" {
		out.Summary = incoming.Summary
	}
	if incoming.PublicURL != "" {
		out.PublicURL = incoming.PublicURL
	}
	for k, v := range incoming.Extra {
		if v == nil {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = v
	}

	// published moves one way: it can be introduced or raised to true,
	// never lowered once set.
	if incoming.Published != nil && (out.Published == nil || *incoming.Published) {
		v := *incoming.Published
		out.Published = &v
	}
	if incoming.PublicURL != "" {
		published := true
		out.Published = &published
	}
	return out
}
