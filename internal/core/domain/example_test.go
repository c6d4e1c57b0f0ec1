package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type qaInput struct {
	Question string `json:"question"`
}

func TestExample_String(t *testing.T) {
	example := Example[string, string]{ID: "ex-1", Input: "What is 1+1?", ExpectedOutput: "2"}

	assert.Equal(t, "Example ID = ex-1\nInput = What is 1+1?\nExpected output = \"2\"\n", example.String())
}

func TestExample_EncodeDecodeStructuredInput(t *testing.T) {
	example := Example[qaInput, []string]{
		ID:             "ex-1",
		Input:          qaInput{Question: "colours?"},
		ExpectedOutput: []string{"red", "green"},
	}

	stored, err := example.Encode()
	require.NoError(t, err)
	assert.Equal(t, "ex-1", stored.ID)
	assert.JSONEq(t, `{"question":"colours?"}`, string(stored.Input))
	assert.JSONEq(t, `["red","green"]`, string(stored.ExpectedOutput))

	decoded, err := DecodeExample[qaInput, []string](stored)
	require.NoError(t, err)
	assert.Equal(t, example, decoded)
}

func TestDecodeExample_TypeMismatch(t *testing.T) {
	stored := StoredExample{ID: "ex-1", Input: []byte(`"text"`), ExpectedOutput: []byte(`1`)}

	_, err := DecodeExample[qaInput, string](stored)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ex-1")
}

func TestDataset_String(t *testing.T) {
	dataset := Dataset{ID: "ds-1", Name: "questions"}

	assert.Equal(t, "Dataset ID = ds-1\nName = questions\n", dataset.String())
}
