package clipboard

import (
	"context"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

// TypeName identifies conversations in the clipboard registry.
const TypeName = "com.woltlab.wcf.conversation.conversation"

// Provider answers clipboard action requests for one actor during one
// request. The validated selection is computed on first use and reused by
// every later call, so all actions see the same baseline. A Provider must not
// outlive its request or be shared between actors.
type Provider struct {
	validator  *Validator
	builder    *Builder
	actorID    int64
	candidates []conversation.Conversation

	selection *Selection
}

// NewProvider binds the marked conversations of actorID to a new Provider.
func NewProvider(validator *Validator, builder *Builder, actorID int64, candidates []conversation.Conversation) *Provider {
	return &Provider{
		validator:  validator,
		builder:    builder,
		actorID:    actorID,
		candidates: candidates,
	}
}

// TypeName returns the clipboard object type handled by the provider.
func (p *Provider) TypeName() string {
	return TypeName
}

// MarkedCount returns how many marked conversations the provider was given,
// before ownership and participation filtering.
func (p *Provider) MarkedCount() int {
	return len(p.candidates)
}

// Selection returns the validated selection, loading it on first use.
func (p *Provider) Selection(ctx context.Context) (Selection, error) {
	if p.selection != nil {
		return *p.selection, nil
	}
	sel, err := p.validator.Filter(ctx, p.candidates, p.actorID)
	if err != nil {
		return Selection{}, err
	}
	p.selection = &sel
	return sel, nil
}

// Execute parses token and builds its descriptor. Unknown tokens fail with
// ErrUnsupportedAction; a nil descriptor means the action is not applicable.
func (p *Provider) Execute(ctx context.Context, token string) (*Descriptor, error) {
	action, err := ParseAction(token)
	if err != nil {
		return nil, err
	}
	return p.Build(ctx, action)
}

// Build returns the descriptor for action against the validated selection.
func (p *Provider) Build(ctx context.Context, action Action) (*Descriptor, error) {
	sel, err := p.Selection(ctx)
	if err != nil {
		return nil, err
	}
	return p.builder.Build(ctx, sel, action, p.actorID)
}

// Actions returns the applicable descriptors for every advertised action, in menu order.
func (p *Provider) Actions(ctx context.Context) ([]Descriptor, error) {
	var out []Descriptor
	for _, action := range Actions() {
		d, err := p.Build(ctx, action)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}
