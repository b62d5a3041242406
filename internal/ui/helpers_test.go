package ui

import (
	"chatterm/internal/app/events"
	"chatterm/internal/pkg/errs"
)

const disconnected = events.Disconnected

func eventsAlert(title, text string) events.Alert {
	return events.Alert{Title: title, Text: text}
}

func unauthorizedErr() error { return errs.NewError(errs.ErrUnauthorized) }

func dialErr() error { return errs.NewError(errs.ErrDialFailed) }

func expiredErr() error { return errs.NewError(errs.ErrSessionExpired) }
