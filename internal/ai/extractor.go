// Package ai implements document extraction through the OpenAI Responses API
// with a strict JSON schema, so the payload shape is enforced at the model
// boundary rather than reverse-engineered from free text.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// extraction is the schema the model must fill. It mirrors the raw analysis
// payload but with concrete types so schema reflection produces a strict
// object.
type extraction struct {
	Metadata struct {
		DocumentTotal string `json:"documentTotal"`
		Currency      string `json:"currency"`
	} `json:"metadata"`
	Items struct {
		ExistingProducts []extractedLine `json:"existingProducts"`
		NewProducts      []extractedLine `json:"newProducts"`
	} `json:"items"`
	Financials struct {
		Subtotal string `json:"subtotal"`
	} `json:"financials"`
	Status struct {
		Completed bool `json:"completed"`
		HasErrors bool `json:"hasErrors"`
	} `json:"status"`
}

type extractedLine struct {
	ProductName string `json:"productName"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

// Extractor turns purchase-document text into the raw analysis payload.
type Extractor struct {
	client *openai.Client
	model  shared.ResponsesModel
}

var _ workflow.ExtractionGateway = (*Extractor)(nil)

func NewExtractor(apiKey, model string) *Extractor {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	m := shared.ResponsesModel(model)
	if model == "" {
		m = shared.ResponsesModel(shared.ChatModelGPT4o)
	}
	return &Extractor{client: &client, model: m}
}

func (e *Extractor) AnalyzeDocument(ctx context.Context, fileName, content string) (*core.RawAnalysis, error) {
	prompt := fmt.Sprintf(`You are a purchase-order intake assistant.
Extract every line item from the document below.
Rules:
1. Put lines that carry a SKU into existingProducts; lines without one into newProducts.
2. Prices and totals must be exact decimal strings (e.g. "100.00"), never numbers.
3. Quantities must be whole numbers.
4. Set status.hasErrors when any line could not be read cleanly.
5. Do not invent lines, SKUs or prices that are not in the document.

File: %s

Document:
%s`, fileName, content)

	schemaJSON, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: e.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "purchase_document_extraction",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Line items and totals extracted from a purchase document"),
				},
			},
		},
	}

	resp, err := e.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	output := resp.OutputText()
	if output == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var ex extraction
	if err := json.Unmarshal([]byte(output), &ex); err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}

	return ex.toRawAnalysis(), nil
}

// toRawAnalysis lifts the typed extraction into the loose payload the
// validation layer expects. Empty item groups stay non-nil arrays so the
// structural checks can tell "no items" from "missing field".
func (ex *extraction) toRawAnalysis() *core.RawAnalysis {
	groups := &core.RawItemGroups{
		ExistingProducts: make([]core.RawLineItem, 0, len(ex.Items.ExistingProducts)),
		NewProducts:      make([]core.RawLineItem, 0, len(ex.Items.NewProducts)),
	}
	for _, l := range ex.Items.ExistingProducts {
		groups.ExistingProducts = append(groups.ExistingProducts, core.RawLineItem(l))
	}
	for _, l := range ex.Items.NewProducts {
		groups.NewProducts = append(groups.NewProducts, core.RawLineItem(l))
	}

	return &core.RawAnalysis{
		Metadata: map[string]any{
			"documentTotal": ex.Metadata.DocumentTotal,
			"currency":      ex.Metadata.Currency,
		},
		Items: groups,
		Financials: map[string]any{
			"subtotal": ex.Financials.Subtotal,
		},
		Status: map[string]any{
			"completed": ex.Status.Completed,
			"hasErrors": ex.Status.HasErrors,
		},
	}
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v extraction
	return reflector.Reflect(v)
}
