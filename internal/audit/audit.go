// Package audit registra eventos de seguridad (rotaciones, registros,
// logins rechazados) en un stream propio, separado del log de requests.
package audit

import (
	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/observability/logger"
)

// Log escribe un evento de auditoría. Hoy va al logger estructurado; un
// sink externo puede colgarse acá sin tocar a los callers.
func Log(event string, fields ...zap.Field) {
	logger.Named("audit").Info(event, fields...)
}
