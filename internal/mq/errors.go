package mq

import "errors"

var (
	// ErrNoChannel: соединение ещё не открыло канал (или переподключается).
	ErrNoChannel = errors.New("no channel available")

	// ErrPermanent: ошибка обработки, которую бессмысленно повторять.
	// Сообщение уходит в DLQ без requeue.
	ErrPermanent = errors.New("permanent handler error")
)
