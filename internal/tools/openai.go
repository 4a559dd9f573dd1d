package tools

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/pkoukk/tiktoken-go"

	"toolgate/internal/domain"
)

// embeddingTokenLimit is the input ceiling for the embedding models; longer
// inputs are truncated on token boundaries before the request goes out.
const embeddingTokenLimit = 8191

// OpenAIService holds the OpenAI client used for embeddings and the
// reasoning model behind ask_openai_reasoning.
type OpenAIService struct {
	client         *openai.Client
	embeddingModel string
	reasoningModel string
}

func NewOpenAIService(apiKey string, cfg domain.OpenAIConfig) *OpenAIService {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIService{
		client:         &client,
		embeddingModel: cfg.EmbeddingModel,
		reasoningModel: cfg.ReasoningModel,
	}
}

// Embed returns the embedding vector for text, truncating oversized input
// on token boundaries. An empty model falls back to the configured default.
func (s *OpenAIService) Embed(ctx context.Context, text, model string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	if model == "" {
		model = s.embeddingModel
	}
	truncated, err := truncateTokens(text, embeddingTokenLimit)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(truncated)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no data")
	}
	return resp.Data[0].Embedding, nil
}

// Reason sends a prompt to the reasoning model and returns its answer.
func (s *OpenAIService) Reason(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("cannot reason over an empty prompt")
	}
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.reasoningModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("reasoning request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("reasoning response carried no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncateTokens clips text to at most limit tokens of the cl100k_base
// encoding, returning it unchanged when already within bounds.
func truncateTokens(text string, limit int) (string, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return "", fmt.Errorf("load tokenizer: %w", err)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text, nil
	}
	return enc.Decode(tokens[:limit]), nil
}
