package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxStructuredRepairAttempts limits self-repair round trips when a batch
// reply fails parsing or validation.
const maxStructuredRepairAttempts = 2

// batchOutputSchema is the shape every batch reply must take.
var batchOutputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"outputs": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"required": ["outputs"],
	"additionalProperties": false
}`)

type batchOutput struct {
	Outputs []string `json:"outputs"`
}

// compileSchema compiles a raw JSON schema document.
func compileSchema(schemaRaw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaRaw)); err != nil {
		return nil, fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile structured schema: %w", err)
	}
	return schema, nil
}

// decodeBatchOutput parses, validates and counts a batch reply.
func decodeBatchOutput(schema *jsonschema.Schema, content string, want int) ([]string, error) {
	parsed, err := parseStructuredJSON(content)
	if err != nil {
		return nil, err
	}
	if err := validateStructuredJSON(schema, parsed); err != nil {
		return nil, err
	}
	var out batchOutput
	if err := json.Unmarshal(parsed, &out); err != nil {
		return nil, fmt.Errorf("failed to decode batch output: %w", err)
	}
	if len(out.Outputs) != want {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d", ErrCountMismatch, want, len(out.Outputs))
	}
	return out.Outputs, nil
}

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONObject(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize structured output: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONObject returns the text between the first "{" and the last "}".
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// validateStructuredJSON validates parsed JSON against schema.
func validateStructuredJSON(schema *jsonschema.Schema, parsed json.RawMessage) error {
	if schema == nil || len(parsed) == 0 {
		return nil
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func structuredRepairPrompt(schemaRaw json.RawMessage, want int, lastOutput string, issue error) string {
	lastOutput = strings.TrimSpace(lastOutput)
	if len(lastOutput) > 12000 {
		lastOutput = lastOutput[:12000] + "\n...[truncated]"
	}

	return fmt.Sprintf(`Return ONLY valid JSON (no markdown, no commentary) that strictly conforms to this schema, with exactly %d strings in "outputs".

Schema:
%s

Your previous output:
%s

Validation issue:
%v`, want, string(schemaRaw), lastOutput, issue)
}
