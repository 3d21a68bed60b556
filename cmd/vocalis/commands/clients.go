package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/vocalis-ai/vocalis/cmd/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/pkg/chat"
	"github.com/vocalis-ai/vocalis/pkg/storage"
	"github.com/vocalis-ai/vocalis/pkg/studio"
)

// GeminiService is the gemini.yaml service configuration.
type GeminiService struct {
	APIKey       string `yaml:"api_key"`
	ChatModel    string `yaml:"chat_model,omitempty"`
	LiveModel    string `yaml:"live_model,omitempty"`
	ImageModel   string `yaml:"image_model,omitempty"`
	VideoModel   string `yaml:"video_model,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

// OpenAIService is the openai.yaml service configuration. BaseURL supports
// OpenAI-compatible endpoints.
type OpenAIService struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Model        string `yaml:"model,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

// StorageService is the storage.yaml service configuration for the media
// gallery. With no storage.yaml the gallery lives on local disk under the
// config directory.
type StorageService struct {
	// Backend is "local" (default) or "s3".
	Backend string `yaml:"backend,omitempty"`

	// Dir is the local media directory (local backend).
	Dir string `yaml:"dir,omitempty"`

	// IndexDir is the gallery index directory. Defaults next to Dir.
	IndexDir string `yaml:"index_dir,omitempty"`

	// S3 backend settings.
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// resolveContextDir maps a --context flag value (possibly empty) to the
// context directory.
func resolveContextDir(name string) (string, error) {
	cfg, err := GetConfig()
	if err != nil {
		return "", err
	}
	return cfg.ResolveContext(name)
}

// loadGemini loads gemini.yaml from the named (or current) context.
func loadGemini(contextName string) (*GeminiService, error) {
	dir, err := resolveContextDir(contextName)
	if err != nil {
		return nil, err
	}
	svc, err := config.LoadService[GeminiService](dir, "gemini")
	if err != nil {
		return nil, err
	}
	if svc.APIKey == "" {
		return nil, fmt.Errorf("gemini config has no api_key; set it with 'vocalis config set <context> gemini api_key <key>'")
	}
	return svc, nil
}

// newGenaiClient builds a genai client from gemini.yaml.
func newGenaiClient(ctx context.Context, svc *GeminiService) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: svc.APIKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return client, nil
}

// newChatBackend builds the chat backend selected by name: "gemini"
// (default) or "openai". Flag values override the service config.
func newChatBackend(ctx context.Context, contextName, backendName, model, systemPrompt string) (chat.Backend, error) {
	switch backendName {
	case "", "gemini":
		svc, err := loadGemini(contextName)
		if err != nil {
			return nil, err
		}
		client, err := newGenaiClient(ctx, svc)
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = svc.ChatModel
		}
		if systemPrompt == "" {
			systemPrompt = svc.SystemPrompt
		}
		return &chat.Gemini{Client: client, Model: model, SystemPrompt: systemPrompt}, nil

	case "openai":
		dir, err := resolveContextDir(contextName)
		if err != nil {
			return nil, err
		}
		svc, err := config.LoadService[OpenAIService](dir, "openai")
		if err != nil {
			return nil, err
		}
		if svc.APIKey == "" {
			return nil, fmt.Errorf("openai config has no api_key")
		}
		opts := []option.RequestOption{option.WithAPIKey(svc.APIKey)}
		if svc.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(svc.BaseURL))
		}
		client := openai.NewClient(opts...)
		if model == "" {
			model = svc.Model
		}
		if systemPrompt == "" {
			systemPrompt = svc.SystemPrompt
		}
		return &chat.OpenAI{Client: &client, Model: model, SystemPrompt: systemPrompt}, nil

	default:
		return nil, fmt.Errorf("unknown chat backend %q (want gemini or openai)", backendName)
	}
}

// newStudioClient builds a studio client from gemini.yaml.
func newStudioClient(ctx context.Context, contextName string) (*studio.Client, *GeminiService, error) {
	svc, err := loadGemini(contextName)
	if err != nil {
		return nil, nil, err
	}
	client, err := newGenaiClient(ctx, svc)
	if err != nil {
		return nil, nil, err
	}
	sc := studio.NewClient(client)
	sc.ImageModel = svc.ImageModel
	sc.VideoModel = svc.VideoModel
	return sc, svc, nil
}

// openGallery opens the media gallery configured by storage.yaml, falling
// back to local disk under the config directory.
func openGallery(ctx context.Context, contextName string) (*studio.Gallery, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}

	svc := &StorageService{}
	if path := filepath.Join(dir, "storage.yaml"); fileExists(path) {
		svc, err = config.LoadService[StorageService](dir, "storage")
		if err != nil {
			return nil, err
		}
	}

	indexDir := svc.IndexDir
	if indexDir == "" {
		indexDir = filepath.Join(cfg.Dir, "gallery", "index")
	}

	var blobs storage.BlobStore
	switch svc.Backend {
	case "", "local":
		mediaDir := svc.Dir
		if mediaDir == "" {
			mediaDir = filepath.Join(cfg.Dir, "gallery", "media")
		}
		blobs, err = storage.NewLocal(mediaDir)
		if err != nil {
			return nil, fmt.Errorf("open media directory: %w", err)
		}

	case "s3":
		if svc.Bucket == "" {
			return nil, fmt.Errorf("storage backend s3 requires a bucket")
		}
		blobs = storage.NewS3(newS3Client(svc), svc.Bucket, svc.Prefix)

	default:
		return nil, fmt.Errorf("unknown storage backend %q (want local or s3)", svc.Backend)
	}

	return studio.OpenGallery(studio.GalleryOptions{Dir: indexDir, Blobs: blobs})
}

// newS3Client builds an S3 client from static storage.yaml settings. The
// endpoint override covers S3-compatible stores (MinIO, R2).
func newS3Client(svc *StorageService) *s3.Client {
	opts := s3.Options{Region: svc.Region}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if svc.Endpoint != "" {
		opts.BaseEndpoint = aws.String(svc.Endpoint)
		opts.UsePathStyle = true
	}
	if svc.AccessKey != "" {
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     svc.AccessKey,
				SecretAccessKey: svc.SecretKey,
			}, nil
		})
	}
	return s3.New(opts)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
