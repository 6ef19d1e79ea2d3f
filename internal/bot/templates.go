package bot

import (
	"fmt"
	"html"
	"strings"
	"text/tabwriter"
	"time"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/db"
)

func countersText(r *db.Reading) string {
	if r == nil {
		return "Показаний пока нет. Нажми «" + menuNewReadings + "»."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>На %s:</b>\n", r.UpdatedAt.Format("02.01.2006"))
	fmt.Fprintf(&sb, "<b>Электричество:</b> %d\n", r.Electricity)
	fmt.Fprintf(&sb, "<b>Газ:</b> %d\n", r.Gas)
	fmt.Fprintf(&sb, "<b>Вода:</b> %d", r.Water)
	return sb.String()
}

func ratesText(rates db.RateTable, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Электричество до %d кВт:</b> %s грн.\n", billing.ElectricityThreshold, rates.ElectricityBelow100.String())
	fmt.Fprintf(&sb, "<b>Электричество после %d кВт:</b> %s грн.\n", billing.ElectricityThreshold, rates.ElectricityAbove100.String())
	fmt.Fprintf(&sb, "<b>Газ:</b> %s грн.\n", rates.Gas.String())
	fmt.Fprintf(&sb, "<b>Вода:</b> %s грн.\n", rates.Water.String())
	fmt.Fprintf(&sb, "<b>Вывоз мусора:</b> %s грн.\n", rates.GarbageRemoval.String())
	fmt.Fprintf(&sb, "<b>СДПТ:</b> %s грн.\n", rates.SDPT.String())
	fmt.Fprintf(&sb, "<b>Квартира:</b> %s$", billing.SeasonalFlatPrice(rates, now).String())
	return sb.String()
}

// paidMonthsText — таблица оплат за год; месяцы без записи считаются неоплаченными
func paidMonthsText(records []db.PaymentRecord, year int) string {
	paid := make(map[int]bool, len(records))
	for _, r := range records {
		paid[r.Month] = r.IsPaid
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Paid\tMonth\tYear")
	for m := time.January; m <= time.December; m++ {
		mark := "×"
		if paid[int(m)] {
			mark = "✓"
		}
		fmt.Fprintf(w, " %s\t%s\t%d\n", mark, billing.MonthName(m), year)
	}
	w.Flush()
	return "<pre>" + html.EscapeString(buf.String()) + "</pre>"
}
