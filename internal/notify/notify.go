// Package notify defines the fire-and-forget notification sink consumed
// by the reminder sweeper. Real SMS/email/push delivery is out of scope;
// the log sink records what would have been sent.
package notify

import "github.com/sirupsen/logrus"

// Notifier accepts (channel, recipient, subject, message). Implementations
// must not block the caller on delivery.
type Notifier interface {
	Send(channel, recipient, subject, message string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Send(channel, recipient, subject, message string) {
	n.Log.WithFields(logrus.Fields{
		"channel":   channel,
		"recipient": recipient,
		"subject":   subject,
	}).Info(message)
}
