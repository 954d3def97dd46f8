package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/codstats/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	uptraceLogInstrumentation = "codstats/internal/platform/logging"
	attributePrefix           = "codstats."
	maxMirroredValueLength    = 1024
)

// Entries listed here are never mirrored. "match info" carries the full
// upstream payload and already lands in the match log file.
var skippedMirrorMessages = map[string]struct{}{
	"match info":               {},
	"requesting match history": {},
	"player not found, cached": {},
	"player matches saved":     {},
}

// Domain keys get a namespace so they do not collide with semconv attributes.
var domainAttributeKeys = map[string]struct{}{
	"cycle_id":       {},
	"game":           {},
	"player_id":      {},
	"match_id":       {},
	"num_of_matches": {},
	"matches":        {},
	"saved_players":  {},
	"fetched":        {},
	"skipped":        {},
}

func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	otelLogger := otelglobal.Logger(
		uptraceLogInstrumentation,
		otellog.WithInstrumentationVersion(serviceVersion),
	)

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if shouldSkipUptraceLog(msg) {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}

		severity := toOTelSeverity(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		now := time.Now().UTC()
		var record otellog.Record
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(strings.ToUpper(level.String()))
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		if attrs := buildOTelLogAttributes(args); len(attrs) > 0 {
			record.AddAttributes(attrs...)
		}

		otelLogger.Emit(ctx, record)
	}
}

func shouldSkipUptraceLog(msg string) bool {
	_, skip := skippedMirrorMessages[msg]
	return skip
}

func buildOTelLogAttributes(args []any) []otellog.KeyValue {
	if len(args) == 0 {
		return nil
	}

	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		if _, domain := domainAttributeKeys[key]; domain {
			key = attributePrefix + key
		}

		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: toOTelLogValue(args[i+1])})
	}
	return attrs
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level <= zapcore.DebugLevel:
		return otellog.SeverityDebug
	case level == zapcore.InfoLevel:
		return otellog.SeverityInfo
	case level == zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityError
	}
}

// toOTelLogValue covers the value kinds the poller logs. Anything else is
// rendered with fmt and truncated.
func toOTelLogValue(value any) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(truncateMirrored(v))
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(truncateMirrored(v.Error()))
	case fmt.Stringer:
		return otellog.StringValue(truncateMirrored(v.String()))
	case []string:
		items := make([]otellog.Value, 0, len(v))
		for _, item := range v {
			items = append(items, otellog.StringValue(item))
		}
		return otellog.SliceValue(items...)
	default:
		return otellog.StringValue(truncateMirrored(fmt.Sprint(v)))
	}
}

func truncateMirrored(s string) string {
	if len(s) <= maxMirroredValueLength {
		return s
	}
	return s[:maxMirroredValueLength] + "..."
}
