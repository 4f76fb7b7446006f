package log

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/astaxie/beego/logs"
)

const (
	defaultLogLevel   = logs.LevelDebug
	errModuleNotFound = "specified module not found"
)

var levelMap = map[string]int{
	"emergency":     logs.LevelEmergency,
	"alert":         logs.LevelAlert,
	"critical":      logs.LevelCritical,
	"error":         logs.LevelError,
	"warn":          logs.LevelWarning,
	"warning":       logs.LevelWarning,
	"notice":        logs.LevelNotice,
	"info":          logs.LevelInformational,
	"informational": logs.LevelInformational,
	"debug":         logs.LevelDebug,
}

// mapModule holds the modules whose Print output is enabled.
var mapModule = make(map[string]struct{})

type logConfig struct {
	Filename string `json:"filename"`
	Level    int    `json:"level"`
	Daily    bool   `json:"daily"`
	Rotate   bool   `json:"rotate,omitempty"`
	MaxDays  int64  `json:"maxdays,omitempty"`
}

// GetLevel maps a level name to its beego value. Unknown names map to debug.
func GetLevel(level string) int {
	ele, ok := levelMap[strings.ToLower(level)]
	if !ok {
		return defaultLogLevel
	}
	return ele
}

// Init installs a file logger from a beego JSON configuration, replacing
// the one installed by an earlier call.
func Init(configuration string) error {
	logs.EnableFuncCallDepth(true)
	logs.SetLogFuncCallDepth(4)
	// fails only when no file logger is installed yet
	_ = logs.GetBeeLogger().DelLogger(logs.AdapterFile)
	return logs.SetLogger(logs.AdapterFile, configuration)
}

// InitLogger writes debug.log under dir at the given level, and enables Print
// for the listed modules.
func InitLogger(dir, level string, modules []string) error {
	if _, ok := levelMap[strings.ToLower(level)]; !ok {
		return fmt.Errorf("mismatch the log level %s", level)
	}
	config, err := json.Marshal(logConfig{
		Filename: filepath.Join(dir, "debug.log"),
		Level:    GetLevel(level),
		Daily:    true,
		Rotate:   true,
		MaxDays:  7,
	})
	if err != nil {
		return err
	}
	SetModules(modules)
	return Init(string(config))
}

func SetModules(modules []string) {
	mapModule = make(map[string]struct{}, len(modules))
	for _, m := range modules {
		mapModule[m] = struct{}{}
	}
}

func IsIncludeModule(module string) bool {
	_, ok := mapModule[module]
	return ok
}

// Print logs at the given level only when module is enabled.
func Print(module string, level string, format string, reason ...interface{}) {
	if !IsIncludeModule(module) {
		logs.Debug("%s: %s", errModuleNotFound, module)
		return
	}
	format = module + ": " + format
	switch strings.ToLower(level) {
	case "emergency":
		logs.Emergency(format, reason...)
	case "alert":
		logs.Alert(format, reason...)
	case "critical":
		logs.Critical(format, reason...)
	case "error":
		logs.Error(format, reason...)
	case "warn", "warning":
		logs.Warn(format, reason...)
	case "info", "informational":
		logs.Info(format, reason...)
	case "notice":
		logs.Notice(format, reason...)
	default:
		logs.Debug(format, reason...)
	}
}

func Emergency(f interface{}, v ...interface{}) { logs.Emergency(f, v...) }
func Alert(f interface{}, v ...interface{})     { logs.Alert(f, v...) }
func Critical(f interface{}, v ...interface{})  { logs.Critical(f, v...) }
func Error(f interface{}, v ...interface{})     { logs.Error(f, v...) }
func Warn(f interface{}, v ...interface{})      { logs.Warn(f, v...) }
func Notice(f interface{}, v ...interface{})    { logs.Notice(f, v...) }
func Info(f interface{}, v ...interface{})      { logs.Info(f, v...) }
func Debug(f interface{}, v ...interface{})     { logs.Debug(f, v...) }

// Closure defers formatting of expensive debug output.
type Closure func() string

func (c Closure) String() string {
	return c()
}

func InitLogClosure(c func() string) Closure {
	return Closure(c)
}
