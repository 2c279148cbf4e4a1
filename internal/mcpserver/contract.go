package mcpserver

// NoteFormatContract describes how mnemo interprets note titles, bodies and
// tags, for LLM consumers creating notes.
const NoteFormatContract = `# mnemo Note Format Contract

A note is a **title** and a free-text **body**. Tags are not a separate field:
they are derived from the body every time it is saved.

## Title

- Required and non-empty. Leading and trailing whitespace is removed.

## Tags

- A tag is any whitespace-separated word that starts with ` + "`#`" + ` and has at
  least one more character: ` + "`#python`" + `, ` + "`#SQL`" + `, ` + "`#web-dev`" + `.
- Surrounding punctuation ` + "`.,;:!?-()[]{}`" + ` is stripped from both ends:
  ` + "`(#draft)`" + ` is not a tag (it does not start with #), but ` + "`#draft.`" + ` is ` + "`draft`" + `.
- Tags are **case-sensitive**: ` + "`#Python`" + ` and ` + "`#python`" + ` are different tags.
- A lone ` + "`#`" + ` and Markdown headings such as ` + "`# Title`" + ` produce no tag.
- Duplicates are ignored; the first occurrence fixes the order.
- Editing the body replaces the note's tags. Tags that are no longer used stay
  in the catalogue (see ` + "`list_tags`" + `).

## Search

- ` + "`query`" + ` matches a case-sensitive substring of the title or body.
- ` + "`tag`" + ` matches a tag name exactly, without the leading ` + "`#`" + `.
- Results are ordered by last update, newest first.

## Reviews

- ` + "`set_review`" + ` schedules the next review N days from now (N >= 1).
- ` + "`mark_reviewed`" + ` increments the review count and schedules the next
  review 1, 2, 4, 8, 16, then 30 days out.

## Example

` + "```" + `markdown
title: Flask routing

Routes are registered with @app.route(). See also the blueprint docs.

#Flask #web #Python
` + "```" + `
`
