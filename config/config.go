// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	StoreBadger   = "badger"
	StoreQdrant   = "qdrant"
	StorePGVector = "pgvector"

	envPrefix      = "RAGCHAT"
	configFileName = "ragchat"
)

// Config is the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	AI          AIConfig          `mapstructure:"ai"`
	Storage     StorageConfig     `mapstructure:"storage"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Ingestion   IngestionConfig   `mapstructure:"ingestion"`
	Chat        ChatConfig        `mapstructure:"chat"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AIConfig selects the model provider. EmbeddingHost and ChatHost
// fall back to Host when empty.
type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	Host           string        `mapstructure:"host"`
	EmbeddingHost  string        `mapstructure:"embedding_host"`
	ChatHost       string        `mapstructure:"chat_host"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	ChatModel      string        `mapstructure:"chat_model"`
	Temperature    float64       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// StorageConfig locates the Badger database holding sessions, messages
// and document hashes.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// VectorStoreConfig selects where chunk embeddings live.
type VectorStoreConfig struct {
	Type      string         `mapstructure:"type"`
	Dimension int            `mapstructure:"dimension"`
	Qdrant    QdrantConfig   `mapstructure:"qdrant"`
	PGVector  PGVectorConfig `mapstructure:"pgvector"`
}

type QdrantConfig struct {
	Address    string `mapstructure:"address"`
	Collection string `mapstructure:"collection"`
}

type PGVectorConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// IngestionConfig configures document discovery and chunk writing.
type IngestionConfig struct {
	Markdown    string           `mapstructure:"markdown"`
	PDF         string           `mapstructure:"pdf"`
	UploadDir   string           `mapstructure:"upload_dir"`
	ChunkSize   int              `mapstructure:"chunk_size"`
	BatchSize   int              `mapstructure:"batch_size"`
	MaxAttempts int              `mapstructure:"max_attempts"`
	RetryDelay  time.Duration    `mapstructure:"retry_delay"`
	Normalizer  NormalizerConfig `mapstructure:"normalizer"`
}

type NormalizerConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	StripTags          bool `mapstructure:"strip_tags"`
	CollapseWhitespace bool `mapstructure:"collapse_whitespace"`
	CollapseNewlines   bool `mapstructure:"collapse_newlines"`
	StripCodeBlocks    bool `mapstructure:"strip_code_blocks"`
	StripSpecialChars  bool `mapstructure:"strip_special_chars"`
}

// ChatConfig tunes retrieval and conversation memory.
type ChatConfig struct {
	MemoryWindow int     `mapstructure:"memory_window"`
	TopK         int     `mapstructure:"top_k"`
	MinScore     float32 `mapstructure:"min_score"`
	SessionLocks bool    `mapstructure:"session_locks"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.host", "http://localhost:11434")
	v.SetDefault("ai.embedding_host", "")
	v.SetDefault("ai.chat_host", "")
	v.SetDefault("ai.embedding_model", "embeddinggemma")
	v.SetDefault("ai.chat_model", "qwen2.5:3b")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("storage.path", "data/ragchat")

	v.SetDefault("vector_store.type", StoreBadger)
	v.SetDefault("vector_store.dimension", 768)
	v.SetDefault("vector_store.qdrant.address", "localhost:6334")
	v.SetDefault("vector_store.qdrant.collection", "ragchat_chunks")
	v.SetDefault("vector_store.pgvector.dsn", "")
	v.SetDefault("vector_store.pgvector.table", "ragchat_chunks")

	v.SetDefault("ingestion.markdown", "docs/*.md")
	v.SetDefault("ingestion.pdf", "docs/*.pdf")
	v.SetDefault("ingestion.upload_dir", "docs")
	v.SetDefault("ingestion.chunk_size", 500)
	v.SetDefault("ingestion.batch_size", 32)
	v.SetDefault("ingestion.max_attempts", 3)
	v.SetDefault("ingestion.retry_delay", 500*time.Millisecond)
	v.SetDefault("ingestion.normalizer.enabled", true)
	v.SetDefault("ingestion.normalizer.strip_tags", true)
	v.SetDefault("ingestion.normalizer.collapse_whitespace", false)
	v.SetDefault("ingestion.normalizer.collapse_newlines", false)
	v.SetDefault("ingestion.normalizer.strip_code_blocks", false)
	v.SetDefault("ingestion.normalizer.strip_special_chars", false)

	v.SetDefault("chat.memory_window", 20)
	v.SetDefault("chat.top_k", 3)
	v.SetDefault("chat.min_score", 0.20)
	v.SetDefault("chat.session_locks", true)
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first. When path is empty, ragchat.yaml is
// looked up in the working directory and ./config, and a missing file
// leaves the defaults in place. RAGCHAT_-prefixed variables override both,
// e.g. RAGCHAT_AI_CHAT_MODEL.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the rest of the application cannot default.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.AI.Provider)
	}

	switch c.VectorStore.Type {
	case StoreBadger:
	case StoreQdrant, StorePGVector:
		if c.VectorStore.Dimension <= 0 {
			return ErrInvalidDimension
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVectorStore, c.VectorStore.Type)
	}

	if c.VectorStore.Type == StorePGVector && c.VectorStore.PGVector.DSN == "" {
		return errors.New("config: vector_store.pgvector.dsn is required")
	}
	return c.ModelConfig().Validate()
}

// ModelConfig converts the ai section into a provider configuration.
func (c *Config) ModelConfig() *ai.Config {
	embeddingHost := c.AI.EmbeddingHost
	if embeddingHost == "" {
		embeddingHost = c.AI.Host
	}
	chatHost := c.AI.ChatHost
	if chatHost == "" {
		chatHost = c.AI.Host
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithChatHost(chatHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithChatModel(c.AI.ChatModel),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithTimeout(c.AI.Timeout),
	)
}

// NormalizerConfig converts the normalizer section.
func (c *Config) NormalizerConfig() ingestion.NormalizerConfig {
	n := c.Ingestion.Normalizer
	return ingestion.NormalizerConfig{
		Enabled:            n.Enabled,
		StripTags:          n.StripTags,
		CollapseWhitespace: n.CollapseWhitespace,
		CollapseNewlines:   n.CollapseNewlines,
		StripCodeBlocks:    n.StripCodeBlocks,
		StripSpecialChars:  n.StripSpecialChars,
	}
}
