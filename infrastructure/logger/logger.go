package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Logger writes tagged entries of a single subsystem to a Backend.
type Logger struct {
	level uint32
	tag   string
	b     *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend the logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

func (l *Logger) write(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(l.tag)
	b.WriteString(": ")
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	l.b.send(logEntry{level: level, log: []byte(b.String())})
}

// Tracef formats message according to format specifier and writes to
// log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, format, args...)
}

// Debugf formats message according to format specifier and writes to
// log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, format, args...)
}

// Infof formats message according to format specifier and writes to
// log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, format, args...)
}

// Warnf formats message according to format specifier and writes to
// log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, format, args...)
}

// Errorf formats message according to format specifier and writes to
// log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, format, args...)
}

// Criticalf formats message according to format specifier and writes to
// log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, format, args...)
}

// Timed returns a function logging, at level, how long it has been since
// Timed was called.
//
// Usage: defer log.Timed(logger.LevelDebug, "GrindTransaction")()
func (l *Logger) Timed(level Level, name string) (onEnd func()) {
	start := time.Now()
	return func() {
		l.write(level, "%s took %s", name, time.Since(start))
	}
}

var (
	backendLog = NewBackend()

	subsystemLoggersMutex sync.Mutex
	subsystemLoggers      = map[string]*Logger{}
)

// BackendLog returns the backend shared by every registered subsystem.
func BackendLog() *Backend {
	return backendLog
}

// RegisterSubSystem returns the logger of subsystem, creating it on first use.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()
	logger, exists := subsystemLoggers[subsystem]
	if !exists {
		logger = backendLog.Logger(subsystem)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// SupportedSubsystems returns a sorted slice of the registered subsystems.
func SupportedSubsystems() []string {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsystem := range subsystemLoggers {
		subsystems = append(subsystems, subsystem)
	}
	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevels sets the level of every registered subsystem.
func SetLogLevels(level Level) {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// ParseAndSetLogLevels parses a level, either global ("debug") or per
// subsystem ("GRND=debug,PWLK=trace"), and applies it.
func ParseAndSetLogLevels(levelSpec string) error {
	if !strings.Contains(levelSpec, "=") {
		level, ok := LevelFromString(levelSpec)
		if !ok {
			return errors.Errorf("the specified log level [%s] is invalid", levelSpec)
		}
		SetLogLevels(level)
		return nil
	}

	for _, pair := range strings.Split(levelSpec, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified subsystem log level [%s] is invalid", pair)
		}
		subsystem, levelString := fields[0], fields[1]
		subsystemLoggersMutex.Lock()
		logger, exists := subsystemLoggers[subsystem]
		subsystemLoggersMutex.Unlock()
		if !exists {
			return errors.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %v",
				subsystem, SupportedSubsystems())
		}
		level, ok := LevelFromString(levelString)
		if !ok {
			return errors.Errorf("the specified log level [%s] is invalid", levelString)
		}
		logger.SetLevel(level)
	}
	return nil
}

// InitLog writes every entry to stdout and, when logFile is not empty, to a
// rotated log file, then starts the backend. Warnings and errors also go to
// errLogFile when it is not empty.
func InitLog(logFile, errLogFile string) error {
	err := backendLog.AddLogWriter(os.Stdout, LevelTrace)
	if err != nil {
		return err
	}
	if logFile != "" {
		err = backendLog.AddLogFile(logFile, LevelTrace)
		if err != nil {
			return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", logFile, LevelTrace)
		}
	}
	if errLogFile != "" {
		err = backendLog.AddLogFile(errLogFile, LevelWarn)
		if err != nil {
			return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", errLogFile, LevelWarn)
		}
	}
	return backendLog.Run()
}
