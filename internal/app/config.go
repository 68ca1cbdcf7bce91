package app

import (
	"fmt"

	"github.com/siproka/siproka-backend/internal/config"
	"github.com/siproka/siproka-backend/internal/platform/envutil"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

type Config struct {
	Topology    config.Snapshot
	ServiceName string
	Environment string
	Version     string
	HTTPAddr    string
}

// LoadConfig reads the workflow topology file plus the handful of process
// level knobs. WORKFLOW_TOPOLOGY_FILE is optional; the compiled-in defaults
// describe the standard review committee.
func LoadConfig(log *logger.Logger) (Config, error) {
	topologyPath := envutil.String("WORKFLOW_TOPOLOGY_FILE", "")
	topology, err := config.Load(topologyPath)
	if err != nil {
		return Config{}, fmt.Errorf("load workflow topology: %w", err)
	}
	if topologyPath != "" {
		log.Info("loaded workflow topology", "path", topologyPath)
	}

	return Config{
		Topology:    topology,
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "siproka-backend"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
	}, nil
}
