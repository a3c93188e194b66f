package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/hr-promotion-core/internal/platform/config"
)

// New は設定に従って logrus.Logger を生成します。
// 不正なレベルは info に落とし、format が json の場合のみ JSON 出力に切り替えます。
func New(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
