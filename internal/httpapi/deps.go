package httpapi

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"recruit-intake/internal/config"
	"recruit-intake/internal/events"
	"recruit-intake/internal/metrics"
	"recruit-intake/internal/session"
	"recruit-intake/internal/store"
)

type Deps struct {
	DB       *store.DB
	Hub      *events.Hub
	Sessions *session.Store
	Metrics  *metrics.Metrics
	Log      zerolog.Logger

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

func (d Deps) config() config.Config {
	return d.CfgVal.Load().(config.Config)
}
