package config

import "os"

func IsDebug() bool {
	return os.Getenv("TELEAI_DEBUG") == "1"
}
