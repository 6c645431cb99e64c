package llm

import "encoding/json"

// SchemaName names the structured output schema
const SchemaName = "concept_extraction"

// extractionSchema is the JSON schema for strict structured output
// strict mode needs every property listed as required, optional ones are nullable instead
var extractionSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "concepts": {
      "type": "array",
      "minItems": 4,
      "maxItems": 8,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "rationale": {"type": "string"},
          "score": {"type": "number"},
          "description": {"type": ["string", "null"]},
          "category": {"type": "string"}
        },
        "required": ["name", "rationale", "score", "description", "category"]
      }
    },
    "authorHandle": {"type": ["string", "null"]}
  },
  "required": ["concepts", "authorHandle"]
}`)
