package network

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tube3d/engine/internal/network"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
