package ai

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const fallbackEncoding = "cl100k_base"

type Tokenizer interface {
	CountTokens(text string) int
}

// ApproxTokenizer estimates one token per four characters.
type ApproxTokenizer struct{}

func (ApproxTokenizer) CountTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

var loaderOnce sync.Once

// NewTokenizer returns the model's own encoding for OpenAI and cl100k_base as an
// approximation for every other provider. If no encoding can be loaded the
// character-count approximation is used.
func NewTokenizer(provider, model string) Tokenizer {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	var (
		enc *tiktoken.Tiktoken
		err error
	)
	if provider == ProviderOpenAI && model != "" {
		enc, err = tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
	} else {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil || enc == nil {
		return ApproxTokenizer{}
	}
	return &tiktokenTokenizer{enc: enc}
}
