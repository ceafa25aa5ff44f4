package orchestrator

import "github.com/iamabhishek-n/vectra-go/pkg/generate"

// Callbacks are optional, fire-and-forget observers of a query's progress
// through the state machine (§4.9, §7): a panicking handler must not
// affect the pipeline, so every call site is wrapped in safeCallback.
type Callbacks struct {
	OnRetrievalStart func(question string)
	OnRetrievalEnd   func(candidateCount int)
	OnRerankingStart func(candidateCount int)
	OnRerankingEnd   func(candidateCount int)
	OnGenerationStart func(question string)
	OnGenerationEnd   func(result generate.Result)
	OnError           func(err error)
}

func (cb *Callbacks) onRetrievalStart(question string) {
	if cb.OnRetrievalStart != nil {
		cb.OnRetrievalStart(question)
	}
}

func (cb *Callbacks) onRetrievalEnd(n int) {
	if cb.OnRetrievalEnd != nil {
		cb.OnRetrievalEnd(n)
	}
}

func (cb *Callbacks) onRerankingStart(n int) {
	if cb.OnRerankingStart != nil {
		cb.OnRerankingStart(n)
	}
}

func (cb *Callbacks) onRerankingEnd(n int) {
	if cb.OnRerankingEnd != nil {
		cb.OnRerankingEnd(n)
	}
}

func (cb *Callbacks) onGenerationStart(question string) {
	if cb.OnGenerationStart != nil {
		cb.OnGenerationStart(question)
	}
}

func (cb *Callbacks) onGenerationEnd(result generate.Result) {
	if cb.OnGenerationEnd != nil {
		cb.OnGenerationEnd(result)
	}
}

func (cb *Callbacks) onError(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
