package classifier

import "fmt"

const ideologyTemplate = `Your task is to analyze this text and identify three distinct ideologies from the list:

Text to analyze: '%s'.
Ideologies list: %s.

Instructions:
1. Carefully read and understand the text and the list of ideologies.
2. Select exactly 3 different ideologies from the provided list that best describe the text.
3. Return only these 3 different ideologies in uppercase format.
4. If the text lacks clear ideological markers, select from: NON-IDEOLOGICAL, NON-POLITICAL, NON-PARTISAN, or UNBIASED.
5. Ensure each different ideology exists in the provided list.`

const sentimentTemplate = `Your task is to analyze this text and identify three distinct sentiments from the list:

Text to analyze: '%s'.
Sentiments list: %s.

Instructions:
1. Carefully read and understand the text and the list of sentiments.
2. Select exactly 3 different sentiments from the provided list that best describe the text.
3. Return only these 3 different sentiments in uppercase format.
4. Ensure each different sentiment exists in the provided list.`

const summarySystem = "You are a news editor. Summarise the given passage in a few neutral sentences, keeping names, places and claims. Reply with the summary only."

const summaryTemplate = "Passage:\n\n%s"

// systemPrompt asks for a single JSON object holding a three-item array
// under key.
func systemPrompt(key string) string {
	return fmt.Sprintf(`You are an expert analyst specialized in identifying %[1]s in text. Provide concise, accurate responses following the specified schema exactly.

Respond with exactly one JSON object matching this schema:
{"type": "object", "properties": {"%[1]s": {"type": "array", "items": {"type": "string"}, "minItems": 3, "maxItems": 3, "uniqueItems": true}}, "required": ["%[1]s"]}`, key)
}
