package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Translator renders text in another language.
type Translator interface {
	Translate(ctx context.Context, text string, lang Language) (string, error)
}

// Synthesizer renders text as mp3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang Language) ([]byte, error)
}

// Config configures the OpenAI-compatible backend.
type Config struct {
	APIKey           string
	BaseURL          string
	TranslationModel string
	SpeechModel      string
	Voice            string
	Timeout          time.Duration
}

// Client implements Translator and Synthesizer over the OpenAI API.
type Client struct {
	api    *openai.Client
	config Config
	logger logging.Logger
}

var (
	_ Translator  = (*Client)(nil)
	_ Synthesizer = (*Client)(nil)
)

func NewClient(cfg Config, log logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "speech api key is required")
	}
	if cfg.TranslationModel == "" {
		cfg.TranslationModel = openai.GPT4oMini
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{api: openai.NewClientWithConfig(oc), config: cfg, logger: log}, nil
}

// Translate returns text unchanged for English.
func (c *Client) Translate(ctx context.Context, text string, lang Language) (string, error) {
	if lang.IsEnglish() || strings.TrimSpace(text) == "" {
		return text, nil
	}
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.TranslationModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's text into %s. Reply with the translation only.", lang.Name),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Warn("translation request failed", logging.String("language", lang.Code), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeTranslationFailed, "translation request failed")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New(errors.ErrCodeTranslationFailed, "translation returned no content")
	}
	c.logger.Debug("translated",
		logging.String("language", lang.Code),
		logging.Int("chars", len(text)),
		logging.Duration("took", time.Since(start)))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Synthesize(ctx context.Context, text string, lang Language) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeSpeechFailed, "nothing to speak")
	}
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.config.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		c.logger.Warn("speech request failed", logging.String("language", lang.Code), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeSpeechFailed, "speech request failed")
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSpeechFailed, "failed to read audio")
	}
	if len(audio) == 0 {
		return nil, errors.New(errors.ErrCodeSpeechFailed, "empty audio response")
	}
	return audio, nil
}
