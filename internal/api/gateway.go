package api

import (
	"context"
	"errors"
	"strings"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// ErrNoResponse means the model produced no usable reply. The cause has
// already been reported through the gateway's error reporter.
var ErrNoResponse = errors.New("no response from model")

// Progress receives streaming events for user feedback. It never sees the
// folded reply.
type Progress interface {
	Waiting()
	Fragment(text string)
	Done()
}

type nopProgress struct{}

func (nopProgress) Waiting()        {}
func (nopProgress) Fragment(string) {}
func (nopProgress) Done()           {}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithProgress sets the progress sink.
func WithProgress(p Progress) GatewayOption {
	return func(g *Gateway) { g.progress = p }
}

// WithErrorReporter sets the function told about transport failures.
func WithErrorReporter(report func(error)) GatewayOption {
	return func(g *Gateway) { g.report = report }
}

// Gateway sends a conversation to a model and returns the full reply.
type Gateway struct {
	transport Transport
	models    *config.ModelSelection
	progress  Progress
	report    func(error)
}

// NewGateway creates a gateway over transport. models supplies the model
// names used by Respond.
func NewGateway(transport Transport, models *config.ModelSelection, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		transport: transport,
		models:    models,
		progress:  nopProgress{},
		report:    func(error) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Models returns the model selection the gateway reads on every call.
func (g *Gateway) Models() *config.ModelSelection { return g.models }

// Respond streams a reply from the model currently selected for target.
func (g *Gateway) Respond(ctx context.Context, messages []history.Message, target config.ModelTarget) (string, error) {
	return g.GetStreamingResponse(ctx, messages, g.models.Get(target))
}

// GetStreamingResponse streams a reply from model and folds the fragments.
//
// An empty model is a configuration error returned before the transport is
// called. Any transport or stream failure is reported and ErrNoResponse is
// returned instead; there is no retry. messages is never modified.
func (g *Gateway) GetStreamingResponse(ctx context.Context, messages []history.Message, model string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", apperr.Wrap(apperr.KindConfiguration, "model gateway", config.ErrEmptyModel)
	}

	log := logging.With("provider", g.transport.Name(), "model", model)
	log.Debug("streaming request", "messages", len(messages))

	g.progress.Waiting()
	defer g.progress.Done()

	stream, err := g.transport.Stream(ctx, model, messages)
	if err != nil {
		return "", g.fail(log, err)
	}
	defer func() { _ = stream.Close() }()

	var reply strings.Builder
	fragments := 0
	for stream.Next() {
		text := stream.Current()
		reply.WriteString(text)
		fragments++
		g.progress.Fragment(text)
	}
	if err := stream.Err(); err != nil {
		return "", g.fail(log, err)
	}

	log.Debug("stream complete", "fragments", fragments, "chars", reply.Len())
	if reply.Len() == 0 {
		g.report(apperr.Transport("model gateway", errors.New("model returned an empty reply")))
		return "", ErrNoResponse
	}
	return reply.String(), nil
}

func (g *Gateway) fail(log *logging.Logger, err error) error {
	err = apperr.Transport("model gateway", err)
	log.Error("stream failed", err)
	g.report(err)
	return ErrNoResponse
}
