package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"bgs-preprocess/internal/config"
	"bgs-preprocess/internal/contextutil"
	"bgs-preprocess/internal/extract"
	"bgs-preprocess/internal/indexer"
	"bgs-preprocess/internal/storage"
	"bgs-preprocess/internal/textindex"
	"bgs-preprocess/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Logs go to stderr; stdout carries only the summary line
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := contextutil.WithLogger(context.Background(), logger)

	extractor, err := extract.New(cfg.SourcePath, cfg.PDFExtractor)
	if err != nil {
		log.Fatalf("Failed to select extractor: %v", err)
	}

	chunker, err := indexer.NewWindowChunker(cfg.ChunkSize, cfg.Overlap)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}

	var pipelineOpts []indexer.Option

	if cfg.DBPath != "" {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		slog.Info("Database initialized", "path", cfg.DBPath)

		pipelineOpts = append(pipelineOpts, indexer.WithChunkStore(storage.NewChunkRepo(db), storage.NewTermRepo(db)))
	}

	if cfg.QdrantURL != "" {
		vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = vectorStore.Close()
		}()
		slog.Info("Qdrant export enabled", "url", cfg.QdrantURL, "collection", cfg.QdrantCollection)

		pipelineOpts = append(pipelineOpts, indexer.WithVectorStore(vectorStore, cfg.QdrantCollection))
	}

	if cfg.BleveIndexPath != "" {
		slog.Info("Text index enabled", "path", cfg.BleveIndexPath)
		pipelineOpts = append(pipelineOpts, indexer.WithTextIndex(textindex.NewBleveIndexer(cfg.BleveIndexPath)))
	}

	pipeline := indexer.NewPipeline(
		cfg.SourcePath,
		extractor,
		chunker,
		indexer.Outputs{
			ChunksPath: cfg.ChunksPath(),
			IndexPath:  cfg.IndexPath(),
		},
		pipelineOpts...,
	)

	result, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("Preprocessing failed: %v", err)
	}

	fmt.Printf("wrote %d chunks\n", len(result.Chunks))
}
