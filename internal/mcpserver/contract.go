package mcpserver

// VaultFormatContract describes the note format a migration produces, so
// LLM consumers can interpret migrated notes and keep any edits
// consistent with them.
const VaultFormatContract = `# Raido Vault Note Format

Every Markdown note in a migrated vault follows this structure.

## Structure

` + "```" + `markdown
---
title: "Human-readable title"       # REQUIRED - the wikilink target name
tags: [projects, roadmap]           # folder-derived, lowercase kebab-case
notion-id: "a1b2c3..."              # 32-hex id of the source page
folder: "Projects"                  # vault-relative parent directory
status: "In progress"               # inline properties scraped from the body
owner: "Dana"
published: false                    # always present, defaults to false
---

Body text in standard Markdown.
` + "```" + `

Front matter keys always render in a fixed order: title, tags, aliases,
notion-id, folder, banner, status, owner, dates, priority, completion,
summary, public-url, published, then any foreign keys alphabetically.
Re-running the migration preserves keys it does not own.

## Links

1. **Wikilinks target titles, not paths:** ` + "`" + `[[Other Note]]` + "`" + ` refers to the
   note whose title (file name stem) is ` + "`" + `Other Note` + "`" + `, wherever it lives.
2. **Aliases** carry display text: ` + "`" + `[[Other Note|what the reader sees]]` + "`" + `.
3. **Heading anchors** address a section: ` + "`" + `[[Other Note#Some Heading]]` + "`" + `.
4. **Embeds** transclude a note or image: ` + "`" + `![[Other Note]]` + "`" + `.
5. Because links resolve by title, duplicate titles are ambiguous. The
   migration demotes colliding files to numbered names (` + "`" + `Note 2.md` + "`" + `) inside
   one directory and reports cross-directory duplicates for review (see the
   ` + "`" + `list_duplicates` + "`" + ` tool).

## Assets

- Images and documents keep standard Markdown syntax with vault-relative
  paths: ` + "`" + `![diagram](diagram.png)` + "`" + `. Assets live next to the notes that
  reference them, under their cleaned names.
- Supported types: png, jpg, jpeg, gif, webp, svg, pdf.

## Callouts

Source-page asides become callout blocks:

` + "```" + `markdown
> [!tip]
> Remember to water the plants.
` + "```" + `

## Example

` + "```" + `markdown
---
title: "Weekly standup"
tags: [meetings]
notion-id: "0f3c9a1d8e424b55a7c2d931f06b8a44"
folder: "Meetings"
status: "Done"
published: false
---

# Weekly standup

Attendees: Alice, Bob.

![Whiteboard photo](whiteboard.jpg)

## Action items

- [[Alice]] to review the [[Design Doc]]
- Bob to update [[Roadmap|the roadmap]]
` + "```" + `
`
