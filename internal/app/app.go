package app

import (
	"github.com/dropDatabas3/keysmith/internal/config"
	"github.com/dropDatabas3/keysmith/internal/jwt"
	"github.com/dropDatabas3/keysmith/internal/rate"
	"github.com/dropDatabas3/keysmith/internal/store/core"
)

// Container agrupa las dependencias compartidas por los handlers.
type Container struct {
	Cfg     *config.Config
	Store   core.Store
	Keys    *jwt.Keystore
	Issuer  *jwt.Issuer
	Limiter rate.Limiter // nil si rate.enabled = false
}
