package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/soulteary/metrics-kit"
)

var (
	// Registry is the Prometheus registry for libreauth metrics
	Registry *metrics.Registry

	// CodesTotal counts generated codes by account type and outcome
	CodesTotal *prometheus.CounterVec

	// CodeFallbackTotal counts codes that degraded to the fallback sentinel
	CodeFallbackTotal prometheus.Counter

	// ScanTotal counts otpauth URI parses by result
	ScanTotal *prometheus.CounterVec

	// VaultOpsTotal counts vault operations by operation and result
	VaultOpsTotal *prometheus.CounterVec
)

func init() {
	Init()
}

// Init initializes libreauth metrics
func Init() {
	Registry = metrics.NewRegistry("libreauth")
	CodesTotal = Registry.Counter("codes_total").
		Help("Total OTP codes served").
		Labels("type", "result").
		BuildVec()
	CodeFallbackTotal = Registry.Counter("code_fallback_total").
		Help("Total codes that fell back to 000000").
		Build()
	ScanTotal = Registry.Counter("scan_total").
		Help("Total otpauth URI parses by result").
		Labels("result").
		BuildVec()
	VaultOpsTotal = Registry.Counter("vault_ops_total").
		Help("Total vault operations by operation and result").
		Labels("op", "result").
		BuildVec()
}

// RecordCode records a served code (type: "totp"/"hotp", result: "ok", "fallback" or "unsupported")
func RecordCode(typ, result string) {
	if CodesTotal != nil {
		CodesTotal.WithLabelValues(typ, result).Inc()
	}
	if result == "fallback" && CodeFallbackTotal != nil {
		CodeFallbackTotal.Inc()
	}
}

// RecordScan records a URI parse (result: "success" or "failure")
func RecordScan(result string) {
	if ScanTotal != nil {
		ScanTotal.WithLabelValues(result).Inc()
	}
}

// RecordVaultOp records a vault operation (op: e.g. "add_account", "import"; result: "success" or "failure")
func RecordVaultOp(op, result string) {
	if VaultOpsTotal != nil {
		VaultOpsTotal.WithLabelValues(op, result).Inc()
	}
}
