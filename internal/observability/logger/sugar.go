package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger del singleton, para logs printf-style en cmd/.
//
//	logger.S().Infof("listening on %s", addr)
func S() *zap.SugaredLogger {
	return L().Sugar()
}
