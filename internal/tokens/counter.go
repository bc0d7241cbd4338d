// Package tokens estimates the token cost of a message sequence before
// it is sent to a backend. The accounting mirrors the OpenAI cookbook:
// https://github.com/openai/openai-cookbook/blob/main/examples/How_to_count_tokens_with_tiktoken.ipynb
// The estimate is advisory: it does not have to match the backend's own
// accounting, but it is deterministic and monotonic in content length,
// which keeps compaction decisions reproducible.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"chatrelay/internal/chat"
)

// fallbackEncoding is used when the model has no registered tokenizer.
const fallbackEncoding = "cl100k_base"

// replyPrimingTokens is added once per request: every reply is primed
// with <|start|>assistant<|message|>.
const replyPrimingTokens = 3

// Encoder turns text into token ids. Production code uses tiktoken;
// tests substitute a deterministic fake.
type Encoder interface {
	Encode(text string) []int
}

// Config configures a Counter for one model.
type Config struct {
	Model string
	// TokensPerMessage is the fixed per-message overhead; zero selects
	// the newer-family default of 3 with a +1 name adjustment.
	TokensPerMessage int
	TokensPerName    int
	// Encoder overrides tokenizer selection by model.
	Encoder Encoder
}

// Counter estimates request size for one model.
type Counter struct {
	perMessage int
	perName    int
	encoder    Encoder
}

// NewCounter selects a tokenizer for the model, falling back to the
// general-purpose encoding when the model is unrecognized.
func NewCounter(cfg Config) (*Counter, error) {
	perMessage, perName := cfg.TokensPerMessage, cfg.TokensPerName
	if perMessage == 0 {
		perMessage, perName = 3, 1
	}

	encoder := cfg.Encoder
	if encoder == nil {
		enc, err := tiktoken.EncodingForModel(cfg.Model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				return nil, fmt.Errorf("load fallback encoding: %w", err)
			}
		}
		encoder = tiktokenEncoder{enc: enc}
	}

	return &Counter{
		perMessage: perMessage,
		perName:    perName,
		encoder:    encoder,
	}, nil
}

// Count returns the estimated token cost of sending the messages.
// Non-text parts of structured content are skipped.
func (c *Counter) Count(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		total += c.perMessage
		total += len(c.encoder.Encode(msg.Role))

		if len(msg.Parts) > 0 {
			for _, part := range msg.Parts {
				if part.Type == chat.PartImage {
					continue
				}
				total += len(c.encoder.Encode(part.Data))
			}
		} else {
			total += len(c.encoder.Encode(msg.Content))
		}

		if msg.Name != "" {
			total += len(c.encoder.Encode(msg.Name))
			total += c.perName
		}
	}
	return total + replyPrimingTokens
}

type tiktokenEncoder struct {
	enc *tiktoken.Tiktoken
}

func (e tiktokenEncoder) Encode(text string) []int {
	return e.enc.Encode(text, nil, nil)
}
