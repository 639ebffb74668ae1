package logger

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Log - uygulama genelinde kullanılan logger
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init - seviye bilinmiyorsa info'da kalır
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Geçersiz LOG_LEVEL %q, info kullanılıyor", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// Middleware - her isteğin method, path, status ve süresini loglar
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		entry := Log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.OriginalURL(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Error("istek başarısız")
		} else {
			entry.Info("istek")
		}
		return err
	}
}
