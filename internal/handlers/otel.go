package handlers

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/sigtak/bridge/internal/handlers"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
