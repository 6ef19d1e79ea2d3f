package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"utility-telegram-bot/internal/db"
)

// Bill — детализированный счёт. Суммы хранятся без округления;
// округление только при выводе.
type Bill struct {
	UserID int64
	Rates  db.RateTable

	FlatPrice          decimal.Decimal // USD за месяц, с учётом сезона
	ExchangeRate       decimal.Decimal
	MonthsSincePayment int
	MonthsSinceReading int

	Consumption   db.Delta
	LastReadingAt *time.Time

	Flat             decimal.Decimal
	Electricity      decimal.Decimal
	Gas              decimal.Decimal
	Water            decimal.Decimal
	SDPT             decimal.Decimal
	Garbage          decimal.Decimal
	Heating          decimal.Decimal
	HeatingAvailable bool
	Total            decimal.Decimal
}

const unavailable = "n/a"

// Whole округляет сумму до целых единиц валюты
func Whole(d decimal.Decimal) string {
	return d.Round(0).StringFixed(0)
}

// OneDecimal округляет сумму до десятых
func OneDecimal(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1)
}

// Services — СДПТ и вывоз мусора одной строкой
func (b *Bill) Services() decimal.Decimal {
	return b.SDPT.Add(b.Garbage)
}

// LastReadingDate — дата последних показаний для вывода
func (b *Bill) LastReadingDate() string {
	if b.LastReadingAt == nil {
		return "--.--.----"
	}
	return b.LastReadingAt.Format("02.01.2006")
}

func (b *Bill) heatingText() string {
	if !b.HeatingAvailable {
		return unavailable
	}
	return Whole(b.Heating)
}

// Text — HTML-шаблон счёта для Telegram
func (b *Bill) Text() string {
	var sb strings.Builder
	sb.WriteString("<i>Счёт на основе последних и предпоследних показаний счётчиков.</i>\n")
	sb.WriteString(fmt.Sprintf("<i>Дата последних показаний %s</i>\n\n", b.LastReadingDate()))
	sb.WriteString(fmt.Sprintf("<b>Квартира:</b> %s$ × %s × %d мес. = %s\n",
		b.FlatPrice.String(), b.ExchangeRate.StringFixed(2), b.MonthsSincePayment, Whole(b.Flat)))
	sb.WriteString(fmt.Sprintf("<b>Коммунальные:</b> %s\n", Whole(b.Services())))
	sb.WriteString(fmt.Sprintf("<b>Электричество:</b> %s (%d кВт)\n", Whole(b.Electricity), b.Consumption.Electricity))
	sb.WriteString(fmt.Sprintf("<b>Газ:</b> %s (%d м³)\n", Whole(b.Gas), b.Consumption.Gas))
	sb.WriteString(fmt.Sprintf("<b>Вода:</b> %s (%d м³)\n", OneDecimal(b.Water), b.Consumption.Water))
	sb.WriteString(fmt.Sprintf("<b>Отопление:</b> %s\n", b.heatingText()))
	sb.WriteString("---------------------------\n")
	sb.WriteString(fmt.Sprintf(" %s грн", Whole(b.Total)))
	return sb.String()
}

// EmailData — данные для динамического шаблона письма с показаниями
func (b *Bill) EmailData(latest *db.Reading) map[string]string {
	data := map[string]string{
		"flat_price":    b.FlatPrice.String(),
		"exchange_rate": b.ExchangeRate.StringFixed(2),
		"flat":          Whole(b.Flat),
		"sdpt_garbage":  Whole(b.Services()),
		"electricity":   Whole(b.Electricity),
		"gas":           Whole(b.Gas),
		"water":         OneDecimal(b.Water),
		"heating":       b.heatingText(),
		"total":         Whole(b.Total),
		"last_reading":  b.LastReadingDate(),
	}
	if latest != nil {
		data["electricity_counter"] = strconv.FormatInt(latest.Electricity, 10)
		data["gas_counter"] = strconv.FormatInt(latest.Gas, 10)
		data["water_counter"] = strconv.FormatInt(latest.Water, 10)
		data["gas_counter_photo"] = latest.GasPhotoFileID
	}
	return data
}

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// MonthName — название месяца по-русски
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}
