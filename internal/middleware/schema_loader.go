package middleware

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	contextutils "jupyterchat/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

//go:embed api.yaml
var defaultAPIDocument []byte

const schemaRefPrefix = "#/components/schemas/"

// operation holds the schema names used by one documented path and method
type operation struct {
	requestSchema   string
	responseSchemas map[string]string
}

// SchemaLoader loads JSON schemas and the documented operations from an OpenAPI document
type SchemaLoader struct {
	schemas    map[string]*gojsonschema.Schema
	operations map[string]map[string]operation
}

// NewSchemaLoader creates a new schema loader
func NewSchemaLoader() *SchemaLoader {
	return &SchemaLoader{
		schemas:    make(map[string]*gojsonschema.Schema),
		operations: make(map[string]map[string]operation),
	}
}

// LoadDefaultSchemas returns a loader for the API document compiled into the binary
func LoadDefaultSchemas() (*SchemaLoader, error) {
	loader := NewSchemaLoader()
	if err := loader.LoadSchemas(defaultAPIDocument); err != nil {
		return nil, err
	}
	return loader, nil
}

// LoadSchemas parses an OpenAPI YAML document, compiling components/schemas and indexing paths
func (sl *SchemaLoader) LoadSchemas(data []byte) error {
	var document map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return contextutils.WrapError(contextutils.ErrInvalidFormat, "failed to parse API document as YAML: "+err.Error())
	}

	components, ok := document["components"].(map[interface{}]interface{})
	if !ok {
		return contextutils.WrapError(contextutils.ErrInvalidFormat, "no components section found in API document")
	}
	schemas, ok := components["schemas"].(map[interface{}]interface{})
	if !ok {
		return contextutils.WrapError(contextutils.ErrInvalidFormat, "no schemas section found in API document")
	}

	converted, err := convertToJSONCompatible(schemas)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrInvalidFormat, "failed to convert schemas: "+err.Error())
	}
	jsonCompatibleSchemas := converted.(map[string]interface{})

	for schemaName := range jsonCompatibleSchemas {
		// Each schema is compiled inside the full components tree so $ref resolves
		completeSchemaDoc := map[string]interface{}{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"components": map[string]interface{}{
				"schemas": jsonCompatibleSchemas,
			},
			"$ref": schemaRefPrefix + schemaName,
		}

		schemaBytes, err := json.Marshal(completeSchemaDoc)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to marshal schema %s: %v", schemaName, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "failed to compile schema %s: %v", schemaName, err)
		}
		sl.schemas[schemaName] = schema
	}

	paths, _ := document["paths"].(map[interface{}]interface{})
	for rawPath, rawMethods := range paths {
		path, ok := rawPath.(string)
		if !ok {
			continue
		}
		methods, ok := rawMethods.(map[interface{}]interface{})
		if !ok {
			continue
		}
		sl.operations[path] = make(map[string]operation)
		for rawMethod, rawOperation := range methods {
			method, ok := rawMethod.(string)
			if !ok {
				continue
			}
			sl.operations[path][strings.ToLower(method)] = parseOperation(rawOperation)
		}
	}

	return nil
}

// parseOperation pulls the application/json schema references out of one operation
func parseOperation(raw interface{}) operation {
	op := operation{responseSchemas: make(map[string]string)}
	opMap, ok := raw.(map[interface{}]interface{})
	if !ok {
		return op
	}

	if body, ok := opMap["requestBody"].(map[interface{}]interface{}); ok {
		op.requestSchema = jsonSchemaRef(body)
	}

	responses, _ := opMap["responses"].(map[interface{}]interface{})
	for rawStatus, rawResponse := range responses {
		// yaml.v2 decodes unquoted status codes as ints
		status := fmt.Sprint(rawStatus)
		if response, ok := rawResponse.(map[interface{}]interface{}); ok {
			if ref := jsonSchemaRef(response); ref != "" {
				op.responseSchemas[status] = ref
			}
		}
	}
	return op
}

// jsonSchemaRef returns the component name referenced by content/application/json/schema
func jsonSchemaRef(node map[interface{}]interface{}) string {
	content, ok := node["content"].(map[interface{}]interface{})
	if !ok {
		return ""
	}
	media, ok := content["application/json"].(map[interface{}]interface{})
	if !ok {
		return ""
	}
	schema, ok := media["schema"].(map[interface{}]interface{})
	if !ok {
		return ""
	}
	ref, _ := schema["$ref"].(string)
	return strings.TrimPrefix(ref, schemaRefPrefix)
}

// convertToJSONCompatible converts yaml.v2 maps to map[string]interface{}, turning
// OpenAPI's nullable into a JSON-schema union with null
func convertToJSONCompatible(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{})
		hasNullable := false

		for k, val := range v {
			keyStr, ok := k.(string)
			if !ok {
				return nil, contextutils.ErrorWithContextf("key is not a string: %v", k)
			}

			if keyStr == "nullable" {
				if nullable, ok := val.(bool); ok && nullable {
					hasNullable = true
				}
				continue
			}

			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[keyStr] = convertedVal
		}

		if hasNullable {
			if ref, hasRef := result["$ref"].(string); hasRef {
				result["oneOf"] = []interface{}{
					map[string]interface{}{"$ref": ref},
					map[string]interface{}{"enum": []interface{}{nil}},
				}
				delete(result, "$ref")
			} else if typeVal, hasType := result["type"].(string); hasType {
				result["type"] = []interface{}{typeVal, "null"}
			}
		}

		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[i] = convertedVal
		}
		return result, nil
	default:
		return data, nil
	}
}

// SchemaNames returns the names of all compiled schemas, sorted
func (sl *SchemaLoader) SchemaNames() []string {
	names := make([]string, 0, len(sl.schemas))
	for name := range sl.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateData validates data against a named schema
func (sl *SchemaLoader) ValidateData(data interface{}, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal data")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return contextutils.WrapError(err, "validation error")
	}

	if !result.Valid() {
		validationErrors := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.WrapError(contextutils.ErrValidationFailed, strings.Join(validationErrors, "; "))
	}

	return nil
}

// IsEndpointDocumented checks if a path and method appear in the API document
func (sl *SchemaLoader) IsEndpointDocumented(path, method string) bool {
	_, ok := sl.lookup(path, method)
	return ok
}

// RequestSchema returns the request body schema name for a path and method, or ""
func (sl *SchemaLoader) RequestSchema(path, method string) string {
	op, _ := sl.lookup(path, method)
	return op.requestSchema
}

// ResponseSchema returns the schema name documented for a response status, or ""
func (sl *SchemaLoader) ResponseSchema(path, method string, status int) string {
	op, _ := sl.lookup(path, method)
	return op.responseSchemas[strconv.Itoa(status)]
}

func (sl *SchemaLoader) lookup(path, method string) (operation, bool) {
	method = strings.ToLower(method)
	if methods, ok := sl.operations[path]; ok {
		if op, ok := methods[method]; ok {
			return op, true
		}
	}
	for documented, methods := range sl.operations {
		if !pathMatchesPattern(path, documented) {
			continue
		}
		if op, ok := methods[method]; ok {
			return op, true
		}
	}
	return operation{}, false
}

// pathMatchesPattern checks if a request path matches a documented path with {param} segments
func pathMatchesPattern(requestPath, documentedPath string) bool {
	requestSegments := strings.Split(requestPath, "/")
	documentedSegments := strings.Split(documentedPath, "/")

	if len(requestSegments) != len(documentedSegments) {
		return false
	}

	for i, segment := range documentedSegments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			continue
		}
		if segment != requestSegments[i] {
			return false
		}
	}

	return true
}
