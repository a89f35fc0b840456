// Package api is the model gateway: it streams a chat reply from the
// configured provider and folds the fragments into one string.
//
// # Layout
//
//   - transport.go: Transport and FragmentStream, NewTransport factory
//   - gateway.go: Gateway, the single entry point used by the dispatcher
//   - openai.go: OpenAI-compatible endpoints (CBORG, OpenAI) via openai-go
//   - anthropic.go: Anthropic Messages API via anthropic-sdk-go
//   - gemini.go: Google Gemini via genai
//   - azure.go, stream.go: Azure OpenAI over raw HTTP and its SSE reader
//
// # Failure model
//
// The gateway never retries. An empty model name fails with a configuration
// error before any transport is touched; any transport failure is reported
// once and turned into ErrNoResponse so callers leave their history alone.
//
//	gw := api.NewGateway(transport, models, api.WithProgress(p))
//	reply, err := gw.Respond(ctx, conv.With(userMsg), config.TargetDefault)
//	if err != nil {
//	    return err // nothing appended
//	}
package api
