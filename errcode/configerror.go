package errcode

import "fmt"

type ConfigErr int

const (
	ErrorBadDataDir ConfigErr = ConfigErrorBase + iota
	ErrorBadCacheSize
	ErrorBadNetwork
)

var ConfigErrString = map[ConfigErr]string{
	ErrorBadDataDir:   "ErrorBadDataDir",
	ErrorBadCacheSize: "ErrorBadCacheSize",
	ErrorBadNetwork:   "ErrorBadNetwork",
}

func (ce ConfigErr) String() string {
	if s, ok := ConfigErrString[ce]; ok {
		return s
	}
	return fmt.Sprintf("Unknown code (%d)", ce)
}
