package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// logrusLogger é a implementação concreta da interface Logger sobre o logrus,
// com saída JSON estruturada.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogger cria e retorna uma nova instância do Logger.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	switch level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	return &logrusLogger{l: l}
}

func (g *logrusLogger) Debug(msg string, fields map[string]interface{}) {
	g.l.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (g *logrusLogger) Info(msg string, fields map[string]interface{}) {
	g.l.WithFields(logrus.Fields(fields)).Info(msg)
}

func (g *logrusLogger) Warn(msg string, fields map[string]interface{}) {
	g.l.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (g *logrusLogger) Error(msg string, err error) {
	entry := g.l.WithFields(logrus.Fields{})
	if err != nil {
		entry = g.l.WithError(err)
	}
	entry.Error(msg)
}

func (g *logrusLogger) Fatal(msg string, err error) {
	entry := g.l.WithFields(logrus.Fields{})
	if err != nil {
		entry = g.l.WithError(err)
	}
	entry.Fatal(msg)
}
