package mcpserver

// MetadataFormatContract describes the canonical article metadata format
// that LLM consumers should follow when reading or editing records.
const MetadataFormatContract = `# Figshare Desktop Metadata Contract

Every article record tracked by Figshare Desktop follows this structure.

## Record shape

` + "```" + `json
{
  "id": "uuid",
  "kind": "article | stm_topo | stm_spec",
  "meta": {
    "title": "Human-readable title",
    "description": "Free-text abstract",
    "tags": ["keyword-one", "keyword-two"],
    "references": ["http://doi.org/..."],
    "categories": [174],
    "authors": [{"id": 12345}],
    "defined_type": "dataset",
    "funding": ["EPSRC EP/X000000/1"],
    "license": "1",
    "status": "local | draft | public",
    "up_to_date": false
  },
  "custom": { "vgap": "-1.2", "sample": "Au(111)" },
  "desktop": {
    "location": "stm/scan_001.Z_flat",
    "thumb": "scan_001.png",
    "public_modified_date": "2018-03-01T09:00:00Z"
  }
}
` + "```" + `

## Rules

1. **` + "`" + `meta.title` + "`" + ` is required.** Titles shorter than 3 characters are padded
   with zeros; titles longer than 500 characters are truncated.
2. **References** must be ` + "`" + `http://` + "`" + ` URLs. Anything else is dropped with a
   warning during validation.
3. **Categories and licenses** must come from the server allow-lists
   (the ` + "`" + `/vocab/categories` + "`" + ` and ` + "`" + `/vocab/licenses` + "`" + ` endpoints). Names are
   resolved to their numeric ids; unknown values are dropped.
4. **Custom fields** are constrained by the record's kind: only the fields
   of that kind's instrument schema are kept, everything else is ignored.
   Plain ` + "`" + `article` + "`" + ` records carry no custom fields.
5. **` + "`" + `meta.status` + "`" + ` is desktop-local state** and is never sent to the
   server; uploads strip it from the payload.
6. **` + "`" + `meta.up_to_date` + "`" + ` is maintained by the app** — do not set it by
   hand. It is true when the local record is no newer than the published
   server copy, false when local edits are pending, and "Unpublished"
   when the article has never been published.
7. **` + "`" + `desktop` + "`" + ` is the app's sidecar** (data-file location, thumbnail
   filename, last seen public modified date). It is never uploaded and
   never edited directly; the thumbnail is set through the thumbnail
   upload endpoint.

## Kinds

- ` + "`" + `article` + "`" + ` — generic file, base Figshare metadata only.
- ` + "`" + `stm_topo` + "`" + ` — .Z_flat / .zad scans; custom fields include vgap,
  current, xres, yres, xinc, yinc, direction, sample, users, substrate,
  adsorbate, prep.
- ` + "`" + `stm_spec` + "`" + ` — .I(V)_flat / .Aux1(V)_flat / .Aux2(V)_flat curves;
  adds sweep fields such as vstart, vinc, vreal, vres.
`
