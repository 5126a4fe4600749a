package apperr

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для слоя представления
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindUpstream
	KindNetwork
	KindProtocol
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error типизированная ошибка ядра
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument ошибка входных данных вызывающей стороны (400)
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// NotFound апстрим подтвердил, что пользователь не существует (404)
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Upstream сервис вернул конверт со status=error
func Upstream(msg string) error {
	return &Error{Kind: KindUpstream, Message: msg}
}

// Network сбой транспорта или не-JSON ответ с кодом не 2xx
func Network(msg string, err error) error {
	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

// Protocol ответ не прошёл структурную проверку
func Protocol(msg string, err error) error {
	return &Error{Kind: KindProtocol, Message: msg, Err: err}
}

// Timeout истёк общий дедлайн запроса
func Timeout(msg string, err error) error {
	return &Error{Kind: KindTimeout, Message: msg, Err: err}
}

// KindOf возвращает вид ошибки из цепочки err
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is проверяет, относится ли err к виду kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage возвращает текст, который можно показать пользователю
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindInvalidArgument || e.Kind == KindNotFound) {
		return e.Message
	}
	return "Unexpected error"
}
