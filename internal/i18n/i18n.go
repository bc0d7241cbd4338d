// Package i18n содержит локализованные строки ответов бота.
package i18n

// translations словарь строк по коду языка. Ключи, отсутствующие
// в выбранном языке, берутся из английского словаря.
var translations = map[string]map[string]string{
	"en": {
		"error":           "An unexpected error occurred",
		"invalid_request": "The request was rejected by the model",
		"reset_done":      "Done! The conversation has been reset",
		"start":           "Hi! Send me a message and I will reply. Commands: /reset",
		"empty_message":   "The message is empty",
	},
	"ru": {
		"error":           "Произошла непредвиденная ошибка",
		"invalid_request": "Модель отклонила запрос",
		"reset_done":      "Готово! Диалог сброшен",
		"start":           "Привет! Напишите сообщение, и я отвечу. Команды: /reset",
		"empty_message":   "Пустое сообщение",
	},
}

// Text возвращает строку по ключу для указанного языка.
// Нет перевода — берётся английский; нет и его — возвращается сам ключ.
func Text(key, lang string) string {
	if texts, ok := translations[lang]; ok {
		if text, ok := texts[key]; ok {
			return text
		}
	}
	if text, ok := translations["en"][key]; ok {
		return text
	}
	return key
}
