package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"onboarding-copilot/internal/ai"
	"onboarding-copilot/internal/config"
	"onboarding-copilot/internal/corpus"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/models"
	"onboarding-copilot/services"
)

// The ingest command loads policy documents into the chunk store.
// Documents live under the policies directory in one subdirectory per
// department, e.g. policies/HR/leave-policy.md. Supported formats are
// markdown, plain text and PDF.
func main() {
	drop := flag.Bool("drop", false, "drop existing chunks before ingesting")
	dir := flag.String("dir", "", "policies directory (overrides POLICIES_DIR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)

	policiesDir := cfg.PoliciesDir
	if *dir != "" {
		policiesDir = *dir
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	geminiClient, err := ai.NewClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	store := corpus.NewStore(mongoClient.Database(cfg.DBName), cfg.VectorDimensions)
	ctx := context.Background()

	if *drop {
		if err := store.Drop(ctx); err != nil {
			logger.Error("Failed to drop chunks", "error", err)
			os.Exit(1)
		}
		logger.Info("Dropped existing chunks")
	}

	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	var all []models.DocumentChunk

	err = filepath.WalkDir(policiesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		department, ok := departmentFor(policiesDir, path)
		if !ok {
			logger.Warn("Skipping file outside a department directory", "path", path)
			return nil
		}

		text, err := readDocument(path)
		if err != nil {
			logger.Warn("Skipping unreadable document", "path", path, "error", err)
			return nil
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}

		chunks := chunker.Chunk(text, filepath.Base(path), department)
		logger.Info("Chunked document", "path", path, "department", department, "chunks", len(chunks))
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		logger.Error("Failed to walk policies directory", "dir", policiesDir, "error", err)
		os.Exit(1)
	}
	if len(all) == 0 {
		logger.Error("No chunks produced", "dir", policiesDir)
		os.Exit(1)
	}

	for i := range all {
		vec, err := geminiClient.Embed(ctx, all[i].Text)
		if err != nil {
			logger.Error("Failed to embed chunk", "chunk_id", all[i].ChunkID, "error", err)
			os.Exit(1)
		}
		all[i].Embedding = vec
	}

	if err := store.InsertChunks(ctx, all); err != nil {
		logger.Error("Failed to insert chunks", "error", err)
		os.Exit(1)
	}
	logger.Info("Ingestion complete", "summary", services.ChunkStats(all))
}

// departmentFor maps the first path element under the policies
// directory onto a canonical department name.
func departmentFor(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "", false
	}
	for _, dept := range models.Departments {
		if strings.EqualFold(dept, parts[0]) {
			return dept, true
		}
	}
	return "", false
}

func readDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".pdf":
		return readPDF(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}
