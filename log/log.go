// Leveled log wrapper over the standard library logger.
//
// There are four levels: ERROR, WARN, INFO, DEBUG. The default output level
// is INFO; change it with log.SetLevel() or the `LOG_LEVEL` environment
// variable.

package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var std = New(os.Stderr, "")

func SetLevel(level Level) {
	std.SetLevel(level)
}

func SetLevelByString(level string) {
	std.SetLevelByString(level)
}

func SetOutput(w io.Writer) {
	std.out.SetOutput(w)
}

func Debug(v ...interface{}) {
	std.Debug(v...)
}

func Debugf(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Info(v ...interface{}) {
	std.Info(v...)
}

func Infof(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Warn(v ...interface{}) {
	std.Warn(v...)
}

func Warnf(format string, v ...interface{}) {
	std.Warnf(format, v...)
}

func Error(v ...interface{}) {
	std.Error(v...)
}

func Errorf(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

func Fatal(v ...interface{}) {
	std.Error(v...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	std.Errorf(format, v...)
	os.Exit(1)
}

// Logger filters messages below its level before handing them to a standard
// library logger.
type Logger struct {
	out   *log.Logger
	level Level
}

func New(w io.Writer, prefix string) *Logger {
	level := LevelInfo
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		level = StringToLevel(l)
	}
	return &Logger{
		out:   log.New(w, prefix, log.Ldate|log.Ltime|log.Lshortfile),
		level: level,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) SetLevelByString(level string) {
	l.level = StringToLevel(level)
}

func (l *Logger) Debug(v ...interface{}) {
	l.print(LevelDebug, v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.printf(LevelDebug, format, v...)
}

func (l *Logger) Info(v ...interface{}) {
	l.print(LevelInfo, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.printf(LevelInfo, format, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.print(LevelWarn, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.printf(LevelWarn, format, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.print(LevelError, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.printf(LevelError, format, v...)
}

func (l *Logger) print(level Level, v ...interface{}) {
	if level > l.level {
		return
	}
	l.out.Output(4, "["+levelName(level)+"] "+fmt.Sprintln(v...))
}

func (l *Logger) printf(level Level, format string, v ...interface{}) {
	if level > l.level {
		return
	}
	l.out.Output(4, "["+levelName(level)+"] "+fmt.Sprintf(format, v...))
}

func StringToLevel(level string) Level {
	switch level {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	}
	return LevelDebug
}

func levelName(level Level) string {
	switch level {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	}
	return "unknown"
}
