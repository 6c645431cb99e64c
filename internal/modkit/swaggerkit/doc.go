package swaggerkit

import (
	"encoding/json"

	"postlens/internal/core/version"

	"github.com/swaggo/swag/v2"
)

// Instance is the swag instance the generated docs register under
const Instance = "api"

// Tag is one module's entry in the skeleton document
type Tag struct {
	Name     string
	Prefixes []string
}

// Document returns the OpenAPI JSON served at /api/docs/doc.json. Generated
// docs are used when registered; otherwise a skeleton listing tags is served.
// Either way the error envelope schema and default error responses are added
func Document(server string, tags []Tag) ([]byte, error) {
	return document(Instance, server, tags)
}

func document(instance, server string, tags []Tag) ([]byte, error) {
	spec := map[string]any{}
	if raw, err := swag.ReadDoc(instance); err == nil {
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			return nil, err
		}
	} else {
		spec = skeleton(tags)
	}
	normalize(spec, server)
	return json.Marshal(spec)
}

func skeleton(tags []Tag) map[string]any {
	list := make([]any, 0, len(tags))
	for _, t := range tags {
		desc := ""
		for i, p := range t.Prefixes {
			if i > 0 {
				desc += ", "
			}
			desc += p
		}
		list = append(list, map[string]any{"name": t.Name, "description": desc})
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "postlens API",
			"version": version.Info().Version,
		},
		"tags":  list,
		"paths": map[string]any{},
	}
}

// normalize pins the document to OAS 3.0.3, since the UI cannot render 3.1,
// and sets the server url
func normalize(spec map[string]any, server string) {
	delete(spec, "swagger")
	spec["openapi"] = "3.0.3"
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": server}}
	}

	comps := child(spec, "components")
	schemas := child(comps, "schemas")
	if _, ok := schemas["Envelope"]; !ok {
		schemas["Envelope"] = envelopeSchema
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, node := range paths {
		ops, ok := node.(map[string]any)
		if !ok {
			continue
		}
		for _, op := range ops {
			o, ok := op.(map[string]any)
			if !ok {
				continue
			}
			resps := child(o, "responses")
			for code, desc := range defaultErrors {
				if _, ok := resps[code]; !ok {
					resps[code] = errorResponse(desc)
				}
			}
		}
	}
}

func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

var defaultErrors = map[string]string{
	"400": "Malformed body or failed validation",
	"401": "Missing or invalid bearer token",
	"429": "Primary API window exhausted; see reset_at",
	"500": "Internal error",
}

func errorResponse(desc string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Envelope"},
			},
		},
	}
}

var envelopeSchema = map[string]any{
	"type":     "object",
	"required": []any{"status_code", "status"},
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer"},
		"error":       map[string]any{"type": "string"},
		"field":       map[string]any{"type": "string"},
		"reset_at":    map[string]any{"type": "string", "format": "date-time"},
		"request_id":  map[string]any{"type": "string"},
		"data":        map[string]any{},
	},
}
