package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"utility-telegram-bot/internal/billing"
)

const (
	menuCounters    = "Счетчики"
	menuNewReadings = "Новые показания"
	menuBill        = "Счет"
	menuRates       = "Тарифы"
	menuPaid        = "Оплачено"
	menuBye         = "Пока"

	payTogglePrefix = "pay_toggle_"
)

// MainMenu — основная клавиатура; владельцу добавляется строка админ-команд
func MainMenu(isOwner bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuCounters),
			tgbotapi.NewKeyboardButton(menuBill),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuNewReadings),
			tgbotapi.NewKeyboardButton(menuRates),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuPaid),
			tgbotapi.NewKeyboardButton(menuBye),
		),
	}
	if isOwner {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/admin_rates"),
			tgbotapi.NewKeyboardButton("/admin_backup"),
		))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func countersMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuNewReadings),
			tgbotapi.NewKeyboardButton(cancelPhrase),
		),
	)
}

// entryMenu показывается во время ввода показаний
func entryMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(cancelPhrase)),
	)
}

// paidMonthsKeyboard — 12 месяцев по три в ряд, нажатие переключает оплату
func paidMonthsKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for m := time.January; m <= time.December; m += 3 {
		var row []tgbotapi.InlineKeyboardButton
		for i := time.Month(0); i < 3; i++ {
			month := m + i
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				billing.MonthName(month), fmt.Sprintf("%s%d", payTogglePrefix, int(month))))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
