package bot

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/nlu"
	"finanzas/internal/services"
)

const commandPrefix = "!"

// Ledger is the subset of services.LedgerService the router drives.
type Ledger interface {
	Record(ctx context.Context, kind core.Kind, amount decimal.Decimal, description string) (services.Recorded, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	History(ctx context.Context, n int) ([]core.Transaction, error)
}

type RouterConfig struct {
	ChannelID string
	// Classifier is nil when free-text handling is disabled.
	Classifier nlu.Classifier
	Threshold  float64
}

// Router maps one inbound message to one reply. It holds no per-message
// state.
type Router struct {
	ledger     Ledger
	channelID  string
	classifier nlu.Classifier
	threshold  float64
	logger     *log.Logger
}

func NewRouter(ledger Ledger, cfg RouterConfig, logger *log.Logger) *Router {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = nlu.DefaultThreshold
	}
	return &Router{
		ledger:     ledger,
		channelID:  cfg.ChannelID,
		classifier: cfg.Classifier,
		threshold:  threshold,
		logger:     logger.WithComponent(log.ComponentRouter),
	}
}

// Handle decides what, if anything, to answer to msg.
func (r *Router) Handle(ctx context.Context, msg Message) Reply {
	if msg.FromSelf || msg.ChannelID != r.channelID {
		return Reply{}
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return Reply{}
	}

	logger := r.logger.With(log.NewFields().
		WithMessage(msg.ChannelID, msg.AuthorID, msg.ID).
		ToSlice()...)
	ctx = log.NewContext(ctx, logger)

	if strings.HasPrefix(content, commandPrefix) {
		return r.handleCommand(ctx, content)
	}
	if r.classifier == nil {
		return Reply{}
	}
	return r.handleFreeText(ctx, content)
}

func (r *Router) handleCommand(ctx context.Context, content string) Reply {
	name, args := splitCommand(content)
	logger := log.FromContext(ctx)

	switch name {
	case "ayuda":
		logger.DebugContext(ctx, "Command received", log.FieldCommand, name)
		return helpReply()
	case "gasto", "ingreso":
		kind := core.Kind(name)
		amountStr, desc := splitCommand(args)
		amount, err := core.ParseAmount(amountStr)
		if err != nil || strings.TrimSpace(desc) == "" {
			logger.InfoContext(ctx, "Malformed record command", log.FieldCommand, name)
			return formatErrorReply(kind)
		}
		return r.record(ctx, kind, amount, desc)
	case "saldo":
		return r.balance(ctx)
	case "historial":
		return r.history(ctx)
	default:
		return Reply{}
	}
}

func (r *Router) handleFreeText(ctx context.Context, content string) Reply {
	res := nlu.Interpret(ctx, r.classifier, content, r.threshold)

	log.FromContext(ctx).InfoContext(ctx, "Free text classified", log.NewFields().
		WithOperation(log.OpClassify).
		WithIntent(res.Intent, res.Confidence).
		WithError(res.Err).
		ToSlice()...)

	return r.replyForResult(ctx, res)
}

// replyForResult is the only place free-text outcomes turn into replies.
func (r *Router) replyForResult(ctx context.Context, res nlu.Result) Reply {
	switch res.Outcome {
	case nlu.ServiceError:
		return apologyReply()
	case nlu.NoIntent, nlu.LowConfidence:
		return Reply{}
	case nlu.MissingEntities:
		kind, _ := nlu.KindFor(res.Intent)
		return clarifyReply(kind, res.Missing)
	case nlu.Accepted:
	default:
		return Reply{}
	}

	switch res.Intent {
	case nlu.IntentBalance:
		return r.balance(ctx)
	case nlu.IntentHistory:
		return r.history(ctx)
	}
	if kind, ok := nlu.KindFor(res.Intent); ok {
		return r.record(ctx, kind, res.Amount, res.Description)
	}
	return Reply{}
}

func (r *Router) record(ctx context.Context, kind core.Kind, amount decimal.Decimal, desc string) Reply {
	recorded, err := r.ledger.Record(ctx, kind, amount, desc)
	switch {
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrEmptyDescription):
		return formatErrorReply(kind)
	case err != nil:
		log.FromContext(ctx).ErrorContext(ctx, "Failed to record transaction",
			log.FieldOperation, log.OpRecord,
			log.FieldKind, kind.String(),
			log.FieldError, err)
		return apologyReply()
	}
	return recordedReply(recorded)
}

func (r *Router) balance(ctx context.Context) Reply {
	bal, err := r.ledger.Balance(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load balance",
			log.FieldOperation, log.OpBalance,
			log.FieldError, err)
		return apologyReply()
	}
	return balanceReply(bal)
}

func (r *Router) history(ctx context.Context) Reply {
	txs, err := r.ledger.History(ctx, services.HistoryLimit)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to load history",
			log.FieldOperation, log.OpHistory,
			log.FieldError, err)
		return apologyReply()
	}
	return historyReply(txs)
}

// Summary builds the scheduled summary post.
func (r *Router) Summary(ctx context.Context) (Reply, error) {
	bal, err := r.ledger.Balance(ctx)
	if err != nil {
		return Reply{}, err
	}
	recent, err := r.ledger.History(ctx, 1)
	if err != nil {
		return Reply{}, err
	}
	return summaryReply(bal, recent), nil
}

// splitCommand cuts s at its first run of whitespace. For commands the
// head is lowercased and stripped of the prefix.
func splitCommand(s string) (head, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		head = s
	} else {
		head, rest = s[:i], strings.TrimSpace(s[i:])
	}
	if strings.HasPrefix(head, commandPrefix) {
		head = strings.ToLower(strings.TrimPrefix(head, commandPrefix))
	}
	return head, rest
}
