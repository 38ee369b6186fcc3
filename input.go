package sheetsign

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// InputKey is the store key holding the run input record.
const InputKey = "INPUT"

// Default image keys.
const (
	DefaultSignatureKey  = "signature.png"
	DefaultBlankImageKey = "line.png"
)

// Input names the store keys of one run.
type Input struct {
	XLSXKey       string `json:"xlsx_key"`
	SignatureKey  string `json:"signature_key"`
	BlankImageKey string `json:"blank_image_key"`
}

//go:embed schema/input.schema.json
var inputSchemaJSON []byte

var (
	inputSchemaOnce sync.Once
	inputSchema     *jsonschema.Schema
	inputSchemaErr  error
)

func compiledInputSchema() (*jsonschema.Schema, error) {
	inputSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("input.schema.json", bytes.NewReader(inputSchemaJSON)); err != nil {
			inputSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		inputSchema, inputSchemaErr = compiler.Compile("input.schema.json")
	})
	return inputSchema, inputSchemaErr
}

// ParseInput decodes and validates a JSON run input, then applies defaults.
// A missing or empty xlsx_key is ErrMissingXLSXKey; any other violation is
// ErrInvalidInput.
func ParseInput(data []byte) (Input, error) {
	schema, err := compiledInputSchema()
	if err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := schema.Validate(raw); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// WithDefaults fills empty image keys.
func (in Input) WithDefaults() Input {
	if in.SignatureKey == "" {
		in.SignatureKey = DefaultSignatureKey
	}
	if in.BlankImageKey == "" {
		in.BlankImageKey = DefaultBlankImageKey
	}
	return in
}

// Validate checks that every key is set and usable.
func (in Input) Validate() error {
	if in.XLSXKey == "" {
		return ErrMissingXLSXKey
	}
	for _, key := range []string{in.XLSXKey, in.SignatureKey, in.BlankImageKey} {
		if err := ValidateKey(key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// OutputKey is the store key of the signed document.
func (in Input) OutputKey() string {
	return "signed_" + in.XLSXKey + ".pdf"
}
