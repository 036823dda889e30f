package extract

import (
	"fmt"
	"strings"
)

const extractionPrompt = `Extract the information described by the JSON schema inside the <schema></schema> XML tags from the documents inside <documents></documents> XML tags.
Follow the rules inside the <rules></rules> XML tags during extraction:
<rules>
1. You must output a valid JSON.
2. You must extract the value for each field from the text inside <documents></documents>, and the value must match the description and type in the JSON schema.
3. Expand numbers into full digits format: example 1: 212,765,000,000 becomes 212765000000, example 2: $469.822 million becomes 469822000, example 3: 132,452 people becomes 132452.
4. Don't use commas as thousands separators in the numbers you extract. For example, 212,765 must be written as 212765.
5. Consider the context inside <context></context> XML tags.
6. If the document does not contain the value, put null.
</rules>

The JSON schema inside the <schema></schema> XML tags contains the information to extract:
<schema>
%s
</schema>

Extract information from the documents inside <documents></documents> XML tags below:
<documents>
%s
</documents>

Use the metadata inside the <context></context> XML tags when relevant to assist you during extraction:
<context>
The company is %s.
The year of the financial report is %s.
</context>

Follow the extraction examples inside the <examples></examples> XML tags below:
<examples>
%s
</examples>

Only write the JSON output inside <json></json> XML tags without further explanation.`

const exampleFormat = `Example %d: Given the information inside <schema> and <documents>, the correct output is inside <json> below:

<schema>
%s
</schema>

<documents>
%s
</documents>

Correct output:
<json>
%s
</json>`

// buildFewShotExamples renders the entity's few-shot examples block.
func buildFewShotExamples(spec entitySpec) string {
	rendered := make([]string, len(spec.Examples))
	for i, ex := range spec.Examples {
		rendered[i] = fmt.Sprintf(exampleFormat, i+1, spec.Schema, ex.DocumentExcerpts, ex.JSONOutput)
	}
	return strings.Join(rendered, "\n")
}

// buildExtractionPrompt renders the full extraction prompt for one
// (document, entity type) pair.
func buildExtractionPrompt(spec entitySpec, excerpts []string, company, year string) string {
	return fmt.Sprintf(extractionPrompt,
		spec.Schema,
		strings.Join(excerpts, "\n"),
		company,
		year,
		buildFewShotExamples(spec),
	)
}

// parseJSONPayload extracts the JSON object from a model response,
// tolerating the surrounding <json></json> tags the prompt asks for.
func parseJSONPayload(text string) string {
	out := strings.TrimSpace(text)
	if i := strings.Index(out, "<json>"); i >= 0 {
		out = out[i+len("<json>"):]
	}
	if i := strings.Index(out, "</json>"); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}
