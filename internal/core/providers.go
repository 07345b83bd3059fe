package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, history []Message) (Message, error)
}

// Encoder turns text into fixed-size vectors. Queries and passages may be
// encoded differently by asymmetric models. Implementations bound their
// own calls; callers only pass cancellation.
type Encoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
	EncodePassage(ctx context.Context, text string) ([]float32, error)
	Dims() int
	Mode() string
}
