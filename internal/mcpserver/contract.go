package mcpserver

// FormatContract describes the Kornell file format for LLM clients that
// create or edit notes.
const FormatContract = `# Kornell Note Format

A Kornell note is a Cornell-method study note stored as a UTF-8 JSON file
with the ` + "`.kornell`" + ` extension.

## Fields

| Key | Type | Meaning |
|---|---|---|
| ` + "`metadata.hideSource`" + ` | bool | show rendered Markdown instead of the editors |
| ` + "`metadata.hideNotes`" + ` | bool | hide the notes column |
| ` + "`metadata.kornellFormatVersion`" + ` | int | format version, currently 1 |
| ` + "`title`" + ` | string | Markdown; the first non-blank line is the display title |
| ` + "`cues`" + ` | string | Markdown; questions and keywords for the left column |
| ` + "`notes`" + ` | string | Markdown; the main lecture or reading notes |
| ` + "`summary`" + ` | string | Markdown; a few sentences condensing the page |

## Rules

1. Files are tab-indented JSON with the keys in the order above and no
   trailing newline. Missing text fields read as empty strings and missing
   flags as false; unknown keys are ignored.
2. Use ` + "`#tag`" + ` anywhere in a text field to tag the note.
3. Use ` + "`[[other-note]]`" + ` to link to ` + "`other-note.kornell`" + `.
   ` + "`[[target|alias]]`" + ` shows the alias.
4. Paths are relative to the workspace, use forward slashes and end with
   ` + "`.kornell`" + `.
5. Images live in the flat ` + "`attachments/`" + ` directory. Add them with the
   ` + "`attach_image`" + ` tool and paste the returned Markdown.
6. Raw HTML is not rendered; use Markdown.

## Example

` + "```" + `json
{
	"metadata": {
		"hideSource": false,
		"hideNotes": false,
		"kornellFormatVersion": 1
	},
	"title": "# Cell respiration",
	"cues": "- Where does glycolysis happen?\n- Net ATP?",
	"notes": "Glycolysis runs in the cytoplasm #biology\n\nSee [[mitochondria]].",
	"summary": "Glucose is oxidised in three stages."
}
` + "```" + `
`
