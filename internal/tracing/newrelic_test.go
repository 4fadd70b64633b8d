package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/maison/services/payroll/config"
)

func TestNewTracerDisabledWithoutLicenseKey(t *testing.T) {
	tracer, err := NewTracer(config.TracingConfig{})

	require.NoError(t, err)
	require.NotNil(t, tracer)
	require.Nil(t, tracer.StartTransaction("noop"))
}

func TestNewTracerAgentFailureDegradesToNoop(t *testing.T) {
	// License keys must be 40 characters; a short one makes the agent
	// constructor fail.
	tracer, err := NewTracer(config.TracingConfig{LicenseKey: "short", AppName: "payroll"})

	require.Error(t, err)
	require.NotNil(t, tracer)
	require.NotPanics(t, func() {
		txn := tracer.StartTransaction("noop")
		tracer.RecordError(txn, err)
		tracer.EndTransaction(txn)
		tracer.Close()
	})
}
