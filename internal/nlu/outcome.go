package nlu

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Intent names configured in the Wit.ai app.
const (
	IntentExpense = "registrar_gasto"
	IntentIncome  = "registrar_ingreso"
	IntentBalance = "consultar_saldo"
	IntentHistory = "consultar_historial"
)

// DefaultThreshold is the minimum confidence for an intent to be acted on.
const DefaultThreshold = 0.8

type Outcome int

const (
	ServiceError Outcome = iota
	NoIntent
	LowConfidence
	MissingEntities
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case ServiceError:
		return "service_error"
	case NoIntent:
		return "no_intent"
	case LowConfidence:
		return "low_confidence"
	case MissingEntities:
		return "missing_entities"
	case Accepted:
		return "accepted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the interpretation of one free-text message. Only the fields
// relevant to Outcome are set.
type Result struct {
	Outcome     Outcome
	Intent      string
	Confidence  float64
	Amount      decimal.Decimal
	Description string
	Missing     []string
	Err         error
}

var (
	amountRoles      = []string{"amount_of_money", "number", "monto"}
	descriptionRoles = []string{"descripcion", "description"}
)

// Interpret classifies text and evaluates the answer.
func Interpret(ctx context.Context, c Classifier, text string, threshold float64) Result {
	resp, err := c.Classify(ctx, text)
	if err != nil {
		return Result{Outcome: ServiceError, Err: err}
	}
	return Evaluate(resp, threshold)
}

// Evaluate picks the most confident intent and, for recording intents,
// extracts the amount and description entities.
func Evaluate(resp *Response, threshold float64) Result {
	if resp == nil || len(resp.Intents) == 0 {
		return Result{Outcome: NoIntent}
	}

	top := resp.Intents[0]
	for _, in := range resp.Intents[1:] {
		if in.Confidence > top.Confidence {
			top = in
		}
	}

	r := Result{Intent: top.Name, Confidence: top.Confidence}
	if top.Confidence < threshold {
		r.Outcome = LowConfidence
		return r
	}

	switch top.Name {
	case IntentBalance, IntentHistory:
		r.Outcome = Accepted
		return r
	case IntentExpense, IntentIncome:
	default:
		r.Outcome = NoIntent
		return r
	}

	amount, ok := extractAmount(resp.Entities)
	if ok {
		r.Amount = amount
	} else {
		r.Missing = append(r.Missing, "monto")
	}

	if desc, ok := extractDescription(resp.Entities); ok {
		r.Description = desc
	} else {
		r.Missing = append(r.Missing, "descripcion")
	}

	if len(r.Missing) > 0 {
		r.Outcome = MissingEntities
		return r
	}
	r.Outcome = Accepted
	return r
}

// KindFor maps a recording intent to its transaction kind.
func KindFor(intent string) (core.Kind, bool) {
	switch intent {
	case IntentExpense:
		return core.Expense, true
	case IntentIncome:
		return core.Income, true
	default:
		return "", false
	}
}

func findEntity(entities map[string][]Entity, roles []string) (Entity, bool) {
	for _, role := range roles {
		for key, list := range entities {
			if len(list) == 0 {
				continue
			}
			name, entRole, _ := strings.Cut(key, ":")
			if entRole == role || name == role {
				return list[0], true
			}
		}
	}
	return Entity{}, false
}

func extractAmount(entities map[string][]Entity) (decimal.Decimal, bool) {
	e, ok := findEntity(entities, amountRoles)
	if !ok {
		return decimal.Zero, false
	}

	switch v := e.Value.(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		if d.IsPositive() {
			return d, true
		}
		return decimal.Zero, false
	case string:
		if d, err := core.ParseAmount(v); err == nil {
			return d, true
		}
	}

	d, err := core.ParseAmount(strings.TrimLeft(strings.TrimSpace(e.Body), "$"))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func extractDescription(entities map[string][]Entity) (string, bool) {
	e, ok := findEntity(entities, descriptionRoles)
	if !ok {
		return "", false
	}
	if s, ok := e.Value.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s), true
	}
	body := strings.TrimSpace(e.Body)
	return body, body != ""
}
