// Package advert implements the server presence beacon: a periodic
// broadcast of the server name on the shared advert subject so clients
// can discover running servers, and a stop broadcast on shutdown.
package advert

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/protocol"
)

// DefaultInterval is how often the server announces itself
const DefaultInterval = 5 * time.Second

// Advertiser periodically publishes the server name on the advert
// subject and announces shutdown on the stop subject
type Advertiser struct {
	serverName string
	bus        messaging.Bus
	logger     *slog.Logger
	interval   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// New creates an advertiser. A non-positive interval falls back to
// DefaultInterval.
func New(serverName string, bus messaging.Bus, interval time.Duration, logger *slog.Logger) *Advertiser {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Advertiser{
		serverName: serverName,
		bus:        bus,
		logger:     logger.With(slog.String("component", "advert")),
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start announces the server immediately and then on every tick
func (a *Advertiser) Start() {
	a.announce()
	go a.run()
}

// Stop ends the beacon and publishes the stop announcement
func (a *Advertiser) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		if err := a.bus.Publish(protocol.SubjectStop, []byte(a.serverName)); err != nil {
			a.logger.Error("failed to publish stop announcement",
				slog.String("error", err.Error()),
			)
		}
		a.logger.Info("stop announced")
	})
}

func (a *Advertiser) run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.announce()
		case <-a.done:
			return
		}
	}
}

func (a *Advertiser) announce() {
	if err := a.bus.Publish(protocol.SubjectAdvert, []byte(a.serverName)); err != nil {
		a.logger.Error("failed to publish advert",
			slog.String("error", err.Error()),
		)
	}
}
