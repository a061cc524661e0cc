package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

const (
	noTransactionsText = "No hay transacciones registradas todavía."
	apologyText        = "⚠️ Lo siento, ocurrió un error al procesar tu mensaje. Inténtalo de nuevo más tarde."
)

func helpReply() Reply {
	return Reply{Embed: &Embed{
		Title:       "Centro de Ayuda Financiera",
		Description: "Aquí están todos los comandos que puedes usar:",
		Color:       ColorBlue,
		Fields: []Field{
			{Name: "!gasto <monto> <descripción>", Value: "Registra un nuevo gasto. Ejemplo: `!gasto 500 Despensa`"},
			{Name: "!ingreso <monto> <descripción>", Value: "Registra un nuevo ingreso. Ejemplo: `!ingreso 15000 Salario`"},
			{Name: "!saldo", Value: "Muestra tu saldo actual."},
			{Name: "!historial", Value: "Muestra las últimas 10 transacciones."},
		},
	}}
}

func formatErrorReply(kind core.Kind) Reply {
	example := "`!gasto 50 café`"
	if kind == core.Income {
		example = "`!ingreso 1000 regalo`"
	}
	return Reply{Content: fmt.Sprintf(
		"❌ **Error de formato.** Usa: `!%s <monto> <descripción>`\nEjemplo: %s", kind, example)}
}

func recordedReply(r services.Recorded) Reply {
	tx := r.Transaction
	e := &Embed{
		Title:       "✅ Gasto Registrado",
		Description: fmt.Sprintf("Se registró un gasto de **%s**.", core.FormatMoney(tx.Amount)),
		Color:       ColorRed,
	}
	if tx.Kind == core.Income {
		e.Title = "💰 Ingreso Registrado"
		e.Description = fmt.Sprintf("Se registró un ingreso de **%s**.", core.FormatMoney(tx.Amount))
		e.Color = ColorGreen
	}
	e.Fields = []Field{
		{Name: "Concepto", Value: tx.Description},
		{Name: "Nuevo Saldo", Value: core.FormatMoney(r.Balance)},
	}
	return Reply{Embed: e}
}

func balanceReply(balance decimal.Decimal) Reply {
	return Reply{Embed: &Embed{
		Title:       "Balance General",
		Description: "Tu saldo actual es de:",
		Color:       ColorGold,
		Fields:      []Field{{Name: "Saldo", Value: "**" + core.FormatMoney(balance) + "**", Inline: true}},
	}}
}

// summaryReply is the scheduled end-of-day post.
func summaryReply(balance decimal.Decimal, recent []core.Transaction) Reply {
	r := balanceReply(balance)
	r.Embed.Title = "Resumen Diario"
	r.Embed.Description = "Así cierra el día:"
	if len(recent) > 0 {
		last := recent[0]
		r.Embed.Fields = append(r.Embed.Fields, Field{
			Name:  "Último movimiento",
			Value: fmt.Sprintf("%s %s (%s)", last.Kind.Title(), core.FormatMoney(last.Amount), last.Description),
		})
	}
	return r
}

func historyReply(txs []core.Transaction) Reply {
	if len(txs) == 0 {
		return Reply{Content: noTransactionsText}
	}
	e := &Embed{
		Title:       "Últimas 10 Transacciones",
		Description: "Aquí está tu historial más reciente:",
		Color:       ColorPurple,
	}
	for _, tx := range txs {
		emoji := "🔴"
		if tx.Kind == core.Income {
			emoji = "🟢"
		}
		e.Fields = append(e.Fields, Field{
			Name:  fmt.Sprintf("%s %s: %s", emoji, tx.Kind.Title(), core.FormatMoney(tx.Amount)),
			Value: "_" + tx.Description + "_",
		})
	}
	return Reply{Embed: e}
}

func apologyReply() Reply {
	return Reply{Content: apologyText}
}

// clarifyReply asks for the entities the classifier could not find.
func clarifyReply(kind core.Kind, missing []string) Reply {
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		switch m {
		case "monto":
			names = append(names, "el monto")
		case "descripcion":
			names = append(names, "la descripción")
		default:
			names = append(names, m)
		}
	}
	return Reply{Content: fmt.Sprintf(
		"🤔 Entendí que quieres registrar un %s, pero me falta %s. Prueba con `!%s <monto> <descripción>`.",
		kind, strings.Join(names, " y "), kind)}
}
