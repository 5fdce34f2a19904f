package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/parvec/pkg/model"
	"github.com/liliang-cn/parvec/pkg/parvec"
	"github.com/liliang-cn/parvec/pkg/store"
)

var (
	modelPath string
	dbPath    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "parvec",
	Short: "Paragraph-vector semantic search over a document corpus",
	Long:  `Train paragraph-vector models, export document vectors to SQLite, and run semantic top-k queries.`,
}

var trainCmd = &cobra.Command{
	Use:   "train <corpus.jsonl>",
	Short: "Train a model from a JSONL corpus",
	Long: `Train reads one JSON document per line ({"source_id", "title", "text"}),
trains a paragraph-vector model, and writes the model file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, vopts, err := loadTrainConfig(configPath)
		if err != nil {
			return err
		}

		docs, err := readCorpus(args[0])
		if err != nil {
			return err
		}

		logger := model.NewStdLogger(verbose)
		m, err := parvec.Train(context.Background(), docs, cfg, vopts, model.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		if err := m.SaveFile(modelPath); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}

		fmt.Printf("Model trained on %d documents (%d-word vocabulary) and saved to %s\n",
			m.DocCount(), m.VocabSize(), modelPath)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trained document vectors into the vector database",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := model.LoadFile(modelPath)
		if err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := parvec.Export(context.Background(), m, st); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d document vectors to %s\n", m.DocCount(), dbPath)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a semantic search query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topK, _ := cmd.Flags().GetInt("top-k")
		outputJSON, _ := cmd.Flags().GetBool("json")

		var threshold *float64
		if cmd.Flags().Changed("threshold") {
			v, _ := cmd.Flags().GetFloat64("threshold")
			threshold = &v
		}

		m, err := model.LoadFile(modelPath)
		if err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := parvec.NewEngine(m, st, parvec.WithLogger(model.NewStdLogger(verbose)))
		if err != nil {
			return err
		}

		hits, err := eng.Query(context.Background(), args[0], topK, threshold)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if outputJSON {
			data, err := json.MarshalIndent(hits, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(hits) == 0 {
			fmt.Println("No results")
			return nil
		}
		for i, hit := range hits {
			fmt.Printf("%2d. %-40s %s  score=%.4f\n", i+1, hit.Title, hit.SourceID, hit.Score)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		count, err := st.Count(context.Background())
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}

		fmt.Printf("Database: %s\nVectors:  %d\n", dbPath, count)
		return nil
	},
}

// readCorpus loads one JSON document per line from path.
func readCorpus(path string) ([]parvec.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	var docs []parvec.RawDocument
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var entry struct {
			SourceID string `json:"source_id"`
			Title    string `json:"title"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal(text, &entry); err != nil {
			return nil, fmt.Errorf("invalid corpus entry at line %d: %w", line, err)
		}
		docs = append(docs, parvec.RawDocument{
			SourceID: entry.SourceID,
			Title:    entry.Title,
			Text:     entry.Text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	return docs, nil
}

// openStore opens and initializes the vector database.
func openStore() (*store.Store, error) {
	st, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := st.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "parvec.model", "Model file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "vectors.db", "Vector database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	trainCmd.Flags().String("config", "", "Training configuration file (yaml)")

	queryCmd.Flags().Int("top-k", 10, "Maximum number of results (0 for all)")
	queryCmd.Flags().Float64("threshold", 0, "Minimum similarity score in [-1, 1]")
	queryCmd.Flags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(trainCmd, exportCmd, queryCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
