package ai

import (
	"testing"

	"procurement-agent/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionToRawAnalysis(t *testing.T) {
	var ex extraction
	ex.Metadata.DocumentTotal = "177.50"
	ex.Metadata.Currency = "USD"
	ex.Items.ExistingProducts = []extractedLine{
		{ProductName: "Widget Y", SKU: "W-002", Quantity: 5, Price: "25.50"},
	}
	ex.Items.NewProducts = []extractedLine{
		{ProductName: "Widget X", Quantity: 5, Price: "10.00"},
	}
	ex.Status.Completed = true

	raw := ex.toRawAnalysis()
	require.NoError(t, core.ValidateAnalysisResult(raw))

	items, err := raw.LineItems()
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Widget Y", items[0].ProductName)
	require.NotNil(t, items[0].SKU)
	assert.Equal(t, "W-002", *items[0].SKU)
	assert.Equal(t, "25.5", items[0].Price.String())

	assert.Equal(t, "Widget X", items[1].ProductName)
	assert.Nil(t, items[1].SKU)
}

func TestExtractionToRawAnalysis_EmptyGroupsStayArrays(t *testing.T) {
	var ex extraction
	raw := ex.toRawAnalysis()

	// Structural validation must be able to tell "no items" from "missing
	// field".
	require.NoError(t, core.ValidateAnalysisResult(raw))
	assert.NotNil(t, raw.Items.ExistingProducts)
	assert.NotNil(t, raw.Items.NewProducts)
}

func TestGenerateSchema(t *testing.T) {
	assert.NotNil(t, generateSchema())
}
