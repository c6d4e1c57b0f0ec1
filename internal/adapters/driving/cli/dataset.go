package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage evaluation datasets",
	Long:  `Import, list, view, or delete evaluation datasets.`,
}

var datasetImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a dataset from a YAML or JSON file",
	Long: `Import a dataset from a YAML (.yaml, .yml) or JSON file of the form:

  name: keywords
  examples:
    - id: computers
      input: {chunk: "I really like my computer", language: en}
      expected_output: [computer]

Examples without an id get a random one. The name defaults to the file name.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetImport,
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets",
	RunE:  runDatasetList,
}

var datasetShowCmd = &cobra.Command{
	Use:   "show [dataset-id]",
	Short: "Show a dataset and its examples",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetShow,
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete [dataset-id]",
	Short: "Delete a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetDelete,
}

var (
	datasetName string
	datasetJSON bool
)

func init() {
	datasetImportCmd.Flags().StringVarP(&datasetName, "name", "n", "", "dataset name (overrides the file)")
	datasetListCmd.Flags().BoolVar(&datasetJSON, "json", false, "output as JSON")
	datasetShowCmd.Flags().BoolVar(&datasetJSON, "json", false, "output as JSON")

	datasetCmd.AddCommand(datasetImportCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetShowCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)
	rootCmd.AddCommand(datasetCmd)
}

// datasetFile is the on-disk format of an imported dataset.
type datasetFile struct {
	Name     string        `json:"name" yaml:"name"`
	Examples []exampleFile `json:"examples" yaml:"examples"`
}

type exampleFile struct {
	ID             string `json:"id" yaml:"id"`
	Input          any    `json:"input" yaml:"input"`
	ExpectedOutput any    `json:"expected_output" yaml:"expected_output"`
}

// parseDatasetFile decodes a dataset file. YAML values are re-encoded as JSON.
func parseDatasetFile(path string, data []byte) (datasetFile, error) {
	var file datasetFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return file, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return file, fmt.Errorf("parse JSON: %w", err)
		}
	}
	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return file, nil
}

func (f datasetFile) storedExamples() ([]domain.StoredExample, error) {
	examples := make([]domain.StoredExample, len(f.Examples))
	for i, example := range f.Examples {
		input, err := json.Marshal(example.Input)
		if err != nil {
			return nil, fmt.Errorf("example %d: encode input: %w", i+1, err)
		}
		expected, err := json.Marshal(example.ExpectedOutput)
		if err != nil {
			return nil, fmt.Errorf("example %d: encode expected output: %w", i+1, err)
		}
		examples[i] = domain.StoredExample{ID: example.ID, Input: input, ExpectedOutput: expected}
	}
	return examples, nil
}

func runDatasetImport(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	file, err := parseDatasetFile(args[0], data)
	if err != nil {
		return err
	}
	if datasetName != "" {
		file.Name = datasetName
	}
	examples, err := file.storedExamples()
	if err != nil {
		return err
	}

	dataset, err := datasetService.Create(cmd.Context(), file.Name, examples)
	if err != nil {
		return fmt.Errorf("failed to import dataset: %w", err)
	}

	cmd.Printf("Imported %d examples into dataset %s\n", len(examples), dataset.Name)
	cmd.Printf("Dataset ID: %s\n", dataset.ID)
	return nil
}

func runDatasetList(cmd *cobra.Command, _ []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	datasets, err := datasetService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if datasetJSON {
		return printJSON(cmd, datasets)
	}
	if len(datasets) == 0 {
		cmd.Println("No datasets. Import one with 'ilayer dataset import'.")
		return nil
	}
	for _, dataset := range datasets {
		cmd.Printf("  %s  %s\n", dataset.ID, dataset.Name)
	}
	return nil
}

func runDatasetShow(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	dataset, err := datasetService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get dataset: %w", err)
	}
	examples, err := datasetService.Examples(cmd.Context(), dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to get examples: %w", err)
	}

	if datasetJSON {
		return printJSON(cmd, map[string]any{"dataset": dataset, "examples": examples})
	}
	cmd.Println(datasetTree(*dataset, examples).String())
	return nil
}

func runDatasetDelete(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	if err := datasetService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	cmd.Printf("Deleted dataset %s\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
