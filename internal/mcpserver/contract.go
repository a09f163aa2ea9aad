package mcpserver

// ResourceFormatContract describes the canonical catalog resource document
// format that LLM consumers should follow when creating or updating
// resources.
const ResourceFormatContract = `# Othala Resource Format Contract

Every resource stored in the Othala catalog MUST follow this structure.

## Structure

` + "```" + `markdown
---
id: OrderService                    # REQUIRED – stable across versions
version: 1.0.0                      # REQUIRED – semantic version
name: Order Service                 # OPTIONAL – display name
summary: Handles order lifecycle.   # OPTIONAL – one-line summary
owners:                             # OPTIONAL – owning teams/people
  - orders-team
sends:                              # OPTIONAL – messages a service produces
  - id: OrderPlaced
    version: 1.0.0
receives:                           # OPTIONAL – messages a service consumes
  - id: PaymentConfirmed
    version: 2.0.0
---

Body text in standard Markdown describing the resource.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The opening ` + "```" + `---` + "```" + ` fence must be the
   first non-blank line of the document (leading blank lines are tolerated).
2. **` + "`" + `id` + "`" + ` and ` + "`" + `version` + "`" + ` are required.** The id is the lookup key and stays
   stable across versions; the version is a semantic version string.
3. **Reference lists** (` + "`" + `services` + "`" + ` on domains, ` + "`" + `sends` + "`" + `/` + "`" + `receives` + "`" + ` on
   services) contain ` + "`" + `{id, version}` + "`" + ` pairs. Duplicate pairs are dropped on
   write; the first occurrence wins.
4. **Types** are one of: domain, service, event, command, query, channel.
   The type selects the catalog directory (` + "`" + `domains/` + "`" + `, ` + "`" + `services/` + "`" + `, ...).
5. **Version history** lives under ` + "`" + `versioned/<version>/` + "`" + ` inside the
   resource directory. Never write there directly; use the version_resource
   tool to archive the current version before writing a new one.
6. **Attached files** (schemas, diagrams, payload examples) sit next to the
   resource document. Use the attach_file tool; do not inline large payloads
   into the Markdown body.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
id: Orders
version: 2.0.0
name: Orders Domain
summary: Everything related to taking and fulfilling orders.
services:
  - id: OrderService
    version: 2.0.0
  - id: FulfilmentService
    version: 1.1.0
---

# Orders Domain

The Orders domain owns the full order lifecycle from checkout to delivery.
` + "```" + `
`
