package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// jsonFormatInstructions is appended to every structured-JSON prompt.
const jsonFormatInstructions = "\n\nReturn ONLY a valid JSON object. No markdown, no explanation, no code blocks."

// GenerateJSON produces structured output unmarshaled into out. On parse
// failure it re-prompts up to MaxParseRetries times, embedding the broken
// output and the exact parser error so the model can self-correct.
// Exhausting retries fails with JSONParseError.
func (d *Dispatcher) GenerateJSON(ctx context.Context, prompt string, out any, opts JSONOptions) (*Result, error) {
	callOpts := opts.Options
	if callOpts.Temperature == nil {
		// Low temperature for consistent structured output.
		temp := float32(0.1)
		callOpts.Temperature = &temp
	}
	if callOpts.Tier == "" && callOpts.Model == "" {
		callOpts.Tier = TierLite
	}

	basePrompt := prompt + jsonFormatInstructions
	if opts.Schema != "" {
		basePrompt = fmt.Sprintf("%s\n\nThe JSON must match this schema:\n%s%s", prompt, opts.Schema, jsonFormatInstructions)
	}

	maxAttempts := d.config.MaxParseRetries + 1
	currentPrompt := basePrompt

	var lastErr error
	var lastRaw string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := d.Generate(ctx, currentPrompt, callOpts)
		if err != nil {
			return nil, err
		}

		cleaned := CleanJSONBlock(result.Text)
		lastRaw = cleaned

		if parseErr := d.parseAndValidate(cleaned, out, opts.Schema); parseErr != nil {
			lastErr = parseErr
			currentPrompt = buildCorrectionPrompt(basePrompt, cleaned, parseErr)
			continue
		}

		return result, nil
	}

	return nil, &JSONParseError{Attempts: maxAttempts, Raw: Truncate(lastRaw, 500), Cause: lastErr}
}

// parseAndValidate unmarshals cleaned JSON into out, optionally validating
// against a JSON schema first. Schema violations count as parse failures so
// the self-correction loop can fix them.
func (d *Dispatcher) parseAndValidate(cleaned string, out any, schema string) error {
	if schema != "" {
		validation, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(schema),
			gojsonschema.NewStringLoader(cleaned),
		)
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		if !validation.Valid() {
			var problems []string
			for _, desc := range validation.Errors() {
				problems = append(problems, desc.String())
			}
			return fmt.Errorf("schema violations: %s", strings.Join(problems, "; "))
		}
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// buildCorrectionPrompt embeds the broken output and parser error so the
// model can repair its own reply.
func buildCorrectionPrompt(basePrompt, brokenOutput string, parseErr error) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\nYour previous reply could not be parsed.\n")
	sb.WriteString("Previous reply:\n\"\"\"\n")
	sb.WriteString(Truncate(brokenOutput, 2000))
	sb.WriteString("\n\"\"\"\n")
	sb.WriteString(fmt.Sprintf("Parser error: %v\n", parseErr))
	sb.WriteString("Fix the problem and return ONLY the corrected JSON object.")
	return sb.String()
}
