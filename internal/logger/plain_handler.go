package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// plainTextHandler writes lines like:
//
//	level=INFO scraping patroni url=http://db1:8008/patroni
//
// The message is emitted as raw text without a msg= wrapper, which reads
// better on a journald console than the stock TextHandler output.
type plainTextHandler struct {
	outputWriter io.Writer
	leveler      slog.Leveler

	// attrs captured by With; groups are flattened into dotted key prefixes.
	prefixAttrs []slog.Attr
	groupPrefix string

	// single-writer lock to avoid interleaving; pointer so copies share it
	mutex *sync.Mutex
}

func newPlainTextHandler(output io.Writer, level slog.Leveler) *plainTextHandler {
	if output == nil {
		output = os.Stdout
	}

	if level == nil {
		level = slog.LevelInfo
	}

	return &plainTextHandler{
		outputWriter: output,
		leveler:      level,
		mutex:        &sync.Mutex{},
	}
}

func (handler *plainTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.leveler.Level()
}

// Handle writes a single log record in the "plain" format.
//
//nolint:gocritic // slog.Handler requires slog.Record by value.
func (handler *plainTextHandler) Handle(_ context.Context, record slog.Record) error {
	var buffer bytes.Buffer

	buffer.WriteString("level=")
	buffer.WriteString(levelToUpper(record.Level))

	if record.Message != "" {
		buffer.WriteByte(' ')
		buffer.WriteString(record.Message)
	}

	for index := range handler.prefixAttrs {
		handler.writeAttr(&buffer, handler.prefixAttrs[index])
	}

	record.Attrs(func(attribute slog.Attr) bool {
		handler.writeAttr(&buffer, attribute)

		return true
	})

	buffer.WriteByte('\n')

	handler.mutex.Lock()
	_, writeErr := handler.outputWriter.Write(buffer.Bytes())
	handler.mutex.Unlock()

	if writeErr != nil {
		return fmt.Errorf("plain handler write: %w", writeErr)
	}

	return nil
}

func (handler *plainTextHandler) WithAttrs(attributes []slog.Attr) slog.Handler {
	if len(attributes) == 0 {
		return handler
	}

	copyHandler := *handler // safe: mutex is a pointer so the lock isn't copied
	copyHandler.prefixAttrs = append(
		append([]slog.Attr(nil), handler.prefixAttrs...),
		attributes...)

	return &copyHandler
}

func (handler *plainTextHandler) WithGroup(name string) slog.Handler {
	name = strings.TrimSpace(name)
	if name == "" {
		return handler
	}

	copyHandler := *handler
	if copyHandler.groupPrefix != "" {
		copyHandler.groupPrefix += "." + name
	} else {
		copyHandler.groupPrefix = name
	}

	return &copyHandler
}

// --- helpers ---

func levelToUpper(levelValue slog.Level) string {
	switch {
	case levelValue <= slog.LevelDebug:
		return "DEBUG"
	case levelValue == slog.LevelInfo:
		return "INFO"
	case levelValue == slog.LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// writeAttr writes " key=value", flattening groups into dotted keys.
func (handler *plainTextHandler) writeAttr(buffer *bytes.Buffer, attribute slog.Attr) {
	attribute.Value = attribute.Value.Resolve()
	if attribute.Equal(slog.Attr{}) || attribute.Key == "" {
		return
	}

	key := attribute.Key
	if handler.groupPrefix != "" {
		key = handler.groupPrefix + "." + key
	}

	if attribute.Value.Kind() == slog.KindGroup {
		for _, child := range attribute.Value.Group() {
			child.Value = child.Value.Resolve()
			if child.Key == "" {
				continue
			}

			writeKV(buffer, key+"."+child.Key, child.Value)
		}

		return
	}

	writeKV(buffer, key, attribute.Value)
}

func writeKV(buffer *bytes.Buffer, key string, value slog.Value) {
	buffer.WriteByte(' ')
	buffer.WriteString(key)
	buffer.WriteByte('=')
	writeScalarValue(buffer, value)
}

func writeScalarValue(buffer *bytes.Buffer, value slog.Value) {
	switch value.Kind() {
	case slog.KindString:
		text := value.String()
		if strings.ContainsAny(text, " \t") {
			buffer.WriteString(strconv.Quote(text))
		} else {
			buffer.WriteString(text)
		}
	case slog.KindInt64:
		buffer.WriteString(strconv.FormatInt(value.Int64(), 10))
	case slog.KindUint64:
		buffer.WriteString(strconv.FormatUint(value.Uint64(), 10))
	case slog.KindFloat64:
		buffer.WriteString(strconv.FormatFloat(value.Float64(), 'g', -1, 64))
	case slog.KindBool:
		buffer.WriteString(strconv.FormatBool(value.Bool()))
	case slog.KindTime:
		buffer.WriteString(value.Time().Format(time.RFC3339Nano))
	case slog.KindDuration:
		buffer.WriteString(value.Duration().String())
	default:
		fmt.Fprint(buffer, value.Any())
	}
}
