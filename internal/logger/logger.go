package logger

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const entryKey ctxKey = "logger"

// Nuevo crea el logger del proceso. format: "json" (default) o "text".
func Nuevo(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}
	return l
}

// ConContexto guarda el entry en el contexto del request.
func ConContexto(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// DesdeContexto recupera el entry del request o cae al logger estándar.
func DesdeContexto(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		switch v := ctx.Value(entryKey).(type) {
		case *logrus.Entry:
			return v
		case *logrus.Logger:
			return logrus.NewEntry(v)
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
