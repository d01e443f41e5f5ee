package api

import (
	"github.com/xeipuuv/gojsonschema"
)

// Request schemas only constrain types. Every field is optional because the
// simulator fills absent fields with defaults.
const (
	vaultInitSchemaJSON = `{
  "type": "object",
  "properties": {
    "vault_name":      {"type": "string"},
    "owner_id":        {"type": "string"},
    "access_tier":     {"type": "string"},
    "rpc_endpoint":    {"type": "string"},
    "api_key":         {"type": "string"},
    "network":         {"type": "string"},
    "encryption_key":  {"type": "string"},
    "recovery_phrase": {"type": "string"},
    "backup_email":    {"type": "string"},
    "permissions": {
      "type": "object",
      "properties": {
        "agent_signing": {"type": "boolean"},
        "audit_trail":   {"type": "boolean"}
      }
    }
  }
}`

	addAssetSchemaJSON = `{
  "type": "object",
  "properties": {
    "vault_id": {"type": "string"},
    "asset": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "kind": {"type": "string"}
      }
    }
  }
}`

	vaultRefSchemaJSON = `{
  "type": "object",
  "properties": {
    "vault_id": {"type": "string"}
  }
}`
)

var (
	vaultInitSchema = mustSchema(vaultInitSchemaJSON)
	addAssetSchema  = mustSchema(addAssetSchemaJSON)
	vaultRefSchema  = mustSchema(vaultRefSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("api: invalid request schema: " + err.Error())
	}
	return s
}

// validateBody checks body against schema and returns one message per
// violation. body must already be valid JSON.
func validateBody(schema *gojsonschema.Schema, body []byte) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return details, nil
}
