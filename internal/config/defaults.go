package config

import "github.com/hyperjump/cyborgbench/internal/evaluator"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.Burst == 0 {
		cfg.Server.Burst = int(cfg.Server.RateLimit) + 1
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/db/records.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/indices/bleve"
	}
	if cfg.Storage.ChromaPath == "" {
		cfg.Storage.ChromaPath = "./data/indices/chroma.db"
	}
	if cfg.Storage.FAISSIndexPath == "" {
		cfg.Storage.FAISSIndexPath = "./data/indices/faiss.idx"
	}
	if cfg.Storage.CyborgIndexPath == "" {
		cfg.Storage.CyborgIndexPath = "./data/indices/cyborg.idx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Vector.TopK == 0 {
		cfg.Vector.TopK = 3
	}
	if len(cfg.Vector.Backends) == 0 {
		cfg.Vector.Backends = []string{string(evaluator.BackendFaiss), string(evaluator.BackendChroma)}
	}
	cfg.Evaluator = cfg.Evaluator.WithDefaults()
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".csv", ".txt", ".md", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	if cfg.Ingest.Generate == 0 {
		cfg.Ingest.Generate = 10000
	}
	if cfg.Ingest.FraudRate == 0 {
		cfg.Ingest.FraudRate = 0.1
	}
	if cfg.Bench.Samples == 0 {
		cfg.Bench.Samples = 1000
	}
	if cfg.Bench.ReportPath == "" {
		cfg.Bench.ReportPath = "./benchmark_report.md"
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = "http://localhost:5000"
	}
	if cfg.Client.TimeoutSeconds == 0 {
		cfg.Client.TimeoutSeconds = 30
	}
}
