package mcpserver

// InboxFormatContract describes the Markdown capture files the inbox
// importer accepts.
const InboxFormatContract = `# Zettel Inbox Format

Drop UTF-8 Markdown files with a ` + "`" + `.md` + "`" + ` extension into the inbox directory.
Each file becomes one note and is deleted once imported. Files that fail to
import stay in place.

## Structure

` + "```" + `markdown
---
parents: [12, 40]     # OPTIONAL – ids of the notes this note cites
tags:                 # OPTIONAL – YAML list
  - reading
  - systems
---

Body text in standard Markdown. It becomes the note content.

Cite notes inline with [[12]] or [[12|alias]]; inline #tags are collected too.
` + "```" + `

## Rules

1. **Notes are immutable.** To refine an idea, capture a new note that cites it.
2. **Parents** are positive note ids from front matter or ` + "`" + `[[id]]` + "`" + ` citations.
   Every cited id must exist, otherwise the file is not imported.
3. **Empty bodies are skipped**, as is a single-parent note whose body equals
   the parent's content. Skipped files stay in the inbox and are retried
   only after they are written again.
4. **Tags** start with a letter; case is preserved, search ignores case.
5. Front matter is optional; without it the whole file is the body.
6. Each file becomes at most one note. It is removed once its note exists,
   even if tagging fails.
`
