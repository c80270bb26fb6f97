package posts

import (
	"errors"

	"github.com/suckyear/suckyear/pkg/api"
)

// LoadErrorPrefix precedes every list loading error shown to the user.
const LoadErrorPrefix = "Ошибка при загрузке каталога: "

// User-facing texts for the normalized failure messages.
const (
	TextNetwork  = "Интернет пропал, проверь подключение"
	TextTimeout  = "Сервер тормозит, попробуй позже"
	TextNotFound = "Данные куда-то делись, уже ищем"
	TextServer   = "Сервер прилёг отдохнуть, скоро встанет"
	TextUnknown  = "Неизвестная ошибка"
	TextNoServer = "Нет связи с сервером"
)

// Localize maps a fetch failure to the text shown in place of the list.
func Localize(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return TextNoServer
	}
	switch apiErr.Message {
	case api.MsgNetwork:
		return TextNetwork
	case api.MsgTimeout:
		return TextTimeout
	case api.MsgNotFound:
		return TextNotFound
	case api.MsgServer:
		return TextServer
	case "":
		return TextUnknown
	default:
		return apiErr.Message
	}
}
