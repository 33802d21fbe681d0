// Package logger expone un *zap.Logger singleton para todo el proceso.
//
// Uso:
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//	log := logger.Named("rotator")
//
// En "dev" loguea a consola con colores; en "prod" JSON con stacktraces
// a partir de error.
package logger
