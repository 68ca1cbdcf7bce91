package app

import (
	"github.com/siproka/siproka-backend/internal/clients/gcs"
	"github.com/siproka/siproka-backend/internal/clients/redis"
	"github.com/siproka/siproka-backend/internal/platform/envutil"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type Clients struct {
	Blobs  gcs.BlobStore
	Events redis.EventBus
}

// wireClients connects the optional external dependencies. Blob storage is
// required, the event bus degrades to nil when Redis is not configured so
// local setups run without it.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	blobs, err := gcs.NewBlobStore(log)
	if err != nil {
		return Clients{}, err
	}

	var events redis.EventBus
	if envutil.String("REDIS_ADDR", "") != "" {
		events, err = redis.NewEventBus(log)
		if err != nil {
			return Clients{}, err
		}
	} else {
		log.Warn("REDIS_ADDR not set, workflow events disabled")
	}

	return Clients{Blobs: blobs, Events: events}, nil
}
