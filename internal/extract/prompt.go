// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/invoice-dataset/pkg/types"
)

// SystemPrompt is sent as the system message for every invoice. It fixes the
// five output fields and asks for null instead of a guess.
const SystemPrompt = `
You are a helpful assistant that can extract informations from invoices that have been converted to markdown.

The user will provide you with a markdown file.

Please extract the following informations:

- datetime
- total amount
- currency
- name of the business
- location of the business (city, state, country)


return the informations in a json format like this:

{
    "datetime": "2021-01-01 12:00:00",
    "total_amount": 132.56,
    "currency": "USD",
    "business_name": "Business Name",
    "business_location": "City, State, Country"
}

If you don't find the informations, return null for the corresponding field, better to return null than to return a wrong value.

examples of good responses:

{
    "datetime": "2021-01-01 12:00:00",
    "total_amount": 132.56,
    "currency": "USD",
    "business_name": "Business Name",
    "business_location": "City, State, Country"
}

{
    "datetime": null,
    "total_amount": 43.56,
    "currency": "EUR",
    "business_name": null,
    "business_location": null
}

{
    "datetime": null,
    "total_amount": null,
    "currency": null,
    "business_name": null,
    "business_location": null
}

Your response should be only the json object, no other text or comments.
`

// userPromptTmpl prefixes the markdown with the source file names so each
// dataset line can be traced back to its PDF. The body is passed through
// unescaped and uncapped.
var userPromptTmpl = template.Must(template.New("user").Parse(
	`(original: {{.FileName}}.pdf markdown: {{.Title}}.md) {{.Markdown}}`))

// BuildUserPrompt renders the user message for one document.
func BuildUserPrompt(doc types.InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildMessages returns the ordered system and user messages for one document.
func BuildMessages(doc types.InvoiceDocument) ([]types.ChatMessage, error) {
	user, err := BuildUserPrompt(doc)
	if err != nil {
		return nil, err
	}
	return []types.ChatMessage{
		{Role: types.RoleSystem, Content: SystemPrompt},
		{Role: types.RoleUser, Content: user},
	}, nil
}
