package application

import "fmt"

// User-facing texts. The bot serves Russian-speaking applicants, so status
// messages are in Russian; the model itself answers in the language of the
// query (see systemPrompt).
const (
	msgGreeting = "Здравствуйте! Отправьте мне аудио интервью"

	msgHelp = "Отправьте аудиозапись интервью, и я отвечу на ваши вопросы о ней.\n\n" +
		"/start — приветствие\n" +
		"/new — начать новое интервью\n" +
		"/help — эта справка"

	msgNewConversation = "Начнём заново. Отправьте мне аудио интервью."

	msgAudioReceived  = "Аудио получено. Обрабатываю..."
	msgAudioReady     = "Аудио обработано. Можете задавать вопросы."
	msgQueryReceived  = "Аудио обработано. Обрабатываю ваш запрос..."
	msgQueryInFlight  = "Обрабатываю ваш запрос..."
	msgUnsupported    = "Неподдерживаемый формат аудио."
	msgUnsupportedMed = "Я понимаю только аудио, голосовые и текстовые сообщения."
	msgAudioError     = "Произошла ошибка при обработке аудио."
	msgQueryError     = "Произошла ошибка при обработке вашего запроса."

	msgUnknownCommand     = "Неизвестная команда. Отправьте /help для списка команд."
	msgDidYouMeanPrefix   = "Неизвестная команда. Возможно, вы имели в виду: "
	msgAwaitingAudioFirst = "Сначала отправьте аудио. Вопросов в очереди: %d. Они будут обработаны после загрузки аудио."
)

func waitingNotice(queued int) string {
	return fmt.Sprintf(msgAwaitingAudioFirst, queued)
}
