// Package tokenizer estimates the token footprint of a conversation using
// the classic 100k-BPE vocabulary (cl100k_base), falling back to a fixed
// character ratio when the encoder is unavailable. Estimation never
// errors: a failure to tokenize is absorbed into the fallback path, exactly
// as the ContextManager's token-gating logic requires.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// FallbackCharsPerToken is the load-bearing ratio applied whenever the BPE
// encoder can't be used. It must be applied consistently everywhere
// tokenization can fail, per the estimator's contract.
const FallbackCharsPerToken = 2.5

// MessageOverheadTokens approximates the metadata cost (role, framing) a
// provider adds per message beyond its raw content.
const MessageOverheadTokens = 4

// encodingName is the classic 100k-BPE vocabulary used by GPT-3.5/4 and
// treated here as the reference vocabulary for estimation purposes.
const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		if e, err := tiktoken.GetEncoding(encodingName); err == nil {
			enc = e
		}
	})
	return enc
}

// Estimator estimates token counts for messages and raw text. It holds no
// mutable state of its own beyond the process-wide lazily initialized
// encoder, so EstimateText and EstimateMessages are deterministic for a
// fixed input.
type Estimator struct {
	// OnFallback, if set, is invoked whenever estimation falls back to the
	// character heuristic because the BPE encoder produced an error or was
	// never available. Callers use this to surface tokenEstimationFallbacked.
	OnFallback func(err error)
}

// New creates an Estimator.
func New() *Estimator {
	return &Estimator{}
}

// EstimateText returns the token count for a single string, using the BPE
// encoder when available and the character fallback otherwise.
func (e *Estimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}
	if enc := encoder(); enc != nil {
		tokens, ok := safeEncode(enc, text)
		if ok {
			return len(tokens)
		}
	}
	e.fallback(errEncoderUnavailable)
	return fallbackCount(text)
}

// EstimateMessages returns the total estimated tokens across an ordered
// list of messages: text content, stringified tool-call lists, and
// stringified tool results, each message contributing a fixed per-message
// overhead to approximate framing cost.
func (e *Estimator) EstimateMessages(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += e.EstimateMessage(m)
	}
	return total
}

// EstimateMessage returns the estimated tokens for a single message.
func (e *Estimator) EstimateMessage(m models.Message) int {
	var text string
	switch v := m.(type) {
	case models.UserMessage:
		text = models.JoinedText(v.Contents)
	case models.ModelMessage:
		text = models.JoinedText(v.Contents) + models.MarshalToolCallsForEstimation(v.ToolCalls)
	case models.ToolMessage:
		text = models.MarshalToolResultForEstimation(v.Result)
	}
	return e.EstimateText(text) + MessageOverheadTokens
}

func (e *Estimator) fallback(err error) {
	if e.OnFallback != nil {
		e.OnFallback(err)
	}
}

func fallbackCount(text string) int {
	chars := utf8.RuneCountInString(text)
	return int(float64(chars) / FallbackCharsPerToken)
}

// safeEncode guards against a panic inside the third-party encoder (seen in
// the wild with malformed multi-byte sequences) so a single bad message
// can't crash token estimation.
func safeEncode(enc *tiktoken.Tiktoken, text string) (tokens []int, ok bool) {
	defer func() {
		if recover() != nil {
			tokens, ok = nil, false
		}
	}()
	return enc.Encode(text, nil, nil), true
}

type tokenizerError string

func (e tokenizerError) Error() string { return string(e) }

const errEncoderUnavailable = tokenizerError("bpe encoder unavailable, using character fallback")
