package web

import "github.com/suckyear/suckyear/pkg/api"

// User-facing texts of the auth and profile pages.
const (
	MsgUserNotFound     = "Пользователь не найден"
	MsgAuthFailed       = "Ошибка авторизации"
	MsgProfileLoad      = "Ошибка при загрузке профиля"
	MsgProfileUpdate    = "Ошибка при обновлении профиля"
	MsgProfileUpdated   = "Профиль обновлен успешно!"
	MsgSessionExpired   = "Сессия истекла, войдите снова"
	MsgRegisterFailed   = "Ошибка при регистрации"
	MsgPostNotFound     = "Пост не найден"
	MsgPageNotFound     = "Страница не найдена"
	MsgInvalidRequest   = "Некорректный запрос"
	MsgFieldsRequired   = "Заполните все поля"
	MsgPostTitleTooLong = "Название поста слишком длинное"
	MsgPostTextTooLong  = "Текст поста слишком длинный"
)

// loginMessage maps a failed login to the text shown on the form.
func loginMessage(err error) string {
	if api.IsUserNotFound(err) {
		return MsgUserNotFound
	}
	return MsgAuthFailed
}
