// Package notify はユーザー向けのエラー通知（トースト）を配る。
package notify

import "github.com/sirupsen/logrus"

// Notifier は usecase.Notifier と同じ形
type Notifier interface {
	NotifyError(message string)
}

// LogNotifier は通知をログに残すだけ
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyError(message string) {
	n.log.WithField("notification", message).Warn("user notified")
}

type multi []Notifier

// Multi は全Notifierに同じ通知を送る
func Multi(ns ...Notifier) Notifier {
	return multi(ns)
}

func (m multi) NotifyError(message string) {
	for _, n := range m {
		n.NotifyError(message)
	}
}
