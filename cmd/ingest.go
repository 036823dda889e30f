package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finsight-group/finrag-cli/internal/document"
	"github.com/finsight-group/finrag-cli/internal/embedding"
	"github.com/finsight-group/finrag-cli/internal/extract"
	"github.com/finsight-group/finrag-cli/internal/index"
	"github.com/finsight-group/finrag-cli/internal/model"
	"github.com/finsight-group/finrag-cli/internal/ocr"
	"github.com/finsight-group/finrag-cli/internal/store"
	"github.com/finsight-group/finrag-cli/pkg/anthropic"
)

var (
	ingestManifest     string
	ingestForceReindex bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download reports, build the index and extract entities",
	Long:  "Runs the full ingestion pipeline: downloads the manifest's PDFs, extracts the kept pages, builds or loads the semantic index, extracts structured entities and rebuilds the entity store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		manifestPath := ingestManifest
		if manifestPath == "" {
			manifestPath = cfg.Documents.ManifestPath
		}

		manifest, err := document.LoadManifest(manifestPath)
		if err != nil {
			return err
		}

		preparer := document.NewPreparer(
			document.NewHTTPFetcher(cfg.Documents.UserAgent),
			ocr.NewExtractor(cfg.OCR),
			cfg.Documents.DownloadDir,
		)
		pages, metas, err := preparer.Prepare(ctx, manifest)
		if err != nil {
			return err
		}
		zap.L().Info("documents prepared",
			zap.Int("documents", len(metas)),
			zap.Int("pages", len(pages)),
		)

		embedder := embedding.NewOpenAIClient(cfg.Embedding)
		ix, err := index.BuildOrLoad(ctx, cfg.Index.Path, pages, embedder, ingestForceReindex)
		if err != nil {
			return err
		}

		llm := anthropic.NewClient(cfg.Anthropic.Key)
		extractor := extract.New(llm, cfg.Anthropic, cfg.Agent.ExtractTopK)
		records, err := extractor.ExtractAll(ctx, ix, metas, model.AllEntityTypes())
		if err != nil {
			return err
		}

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Replace(ctx, records); err != nil {
			return err
		}

		f, err := os.Create(cfg.Store.CSVPath)
		if err != nil {
			return eris.Wrap(err, "ingest: create csv export")
		}
		defer f.Close()
		if err := st.ExportCSV(ctx, f); err != nil {
			return err
		}

		zap.L().Info("ingestion complete",
			zap.Int("records", len(records)),
			zap.String("csv", cfg.Store.CSVPath),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "manifest path (default from config)")
	ingestCmd.Flags().BoolVar(&ingestForceReindex, "force-reindex", false, "rebuild the index even if an artifact exists")
	rootCmd.AddCommand(ingestCmd)
}
