package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	OFF
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case OFF:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня без учёта регистра
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "OFF", "NONE":
		return OFF, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования: %q", s)
	}
}

// LogDir - каталог для файлов логов
var LogDir = "logs"

// Logger представляет логгер компонента с выводом в консоль и файл
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// Глобальный экземпляр логгера по умолчанию (только консоль)
var defaultLogger = &Logger{
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    OFF,
}

// NewLogger создаёт логгер компонента с файлом в LogDir
func NewLogger(component string) (*Logger, error) {
	// Создаем директорию для логов
	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", LogDir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(LogDir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// NewWriterLogger создаёт логгер без файла, пишущий в w (удобно для тестов)
func NewWriterLogger(component string, w io.Writer, level LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", 0),
		minConsoleLevel: level,
		minFileLevel:    OFF,
	}
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *Logger {
	return NewWriterLogger("", io.Discard, OFF)
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Enabled сообщает, будет ли записано сообщение уровня level
func (l *Logger) Enabled(level LogLevel) bool {
	if l == nil {
		return false
	}
	return level >= l.minConsoleLevel || (l.fileLogger != nil && level >= l.minFileLevel)
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.logMessage(ERROR, format, args...) }

// logMessage внутренняя функция для логирования
func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	message := fmt.Sprintf(format, args...)
	if l.component != "" {
		message = fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, message)
	} else {
		message = fmt.Sprintf("[%s] %s", level.String(), message)
	}

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// InitDefaultLogger инициализирует логгер по умолчанию с файлом
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// CloseDefaultLogger закрывает логгер по умолчанию
func CloseDefaultLogger() {
	if err := defaultLogger.Close(); err != nil {
		log.Printf("ошибка закрытия логгера: %v", err)
	}
}

// SetDefaultLevel меняет уровень консольного вывода логгера по умолчанию
func SetDefaultLevel(level LogLevel) {
	defaultLogger.minConsoleLevel = level
}

// Trace логирует сообщение уровня TRACE в логгер по умолчанию
func Trace(format string, args ...interface{}) { defaultLogger.Trace(format, args...) }

// Debug логирует сообщение уровня DEBUG в логгер по умолчанию
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }

// Info логирует сообщение уровня INFO в логгер по умолчанию
func Info(format string, args ...interface{}) { defaultLogger.Info(format, args...) }

// Warn логирует сообщение уровня WARN в логгер по умолчанию
func Warn(format string, args ...interface{}) { defaultLogger.Warn(format, args...) }

// Error логирует сообщение уровня ERROR в логгер по умолчанию
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
