package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "LFLOW_DATABASE_TYPE"
const DATABASE_URL = "LFLOW_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "LFLOW_DATABASE_SQLLITE_FILE_NAME"
const SERVER_WEB_PORT = "LFLOW_SERVER_WEB_PORT"
const WATCH_POLL_INTERVAL = "LFLOW_WATCH_POLL_INTERVAL"   //how often the watcher polls for rows changed by other processes
const WATCH_CHANNEL_BUFFER = "LFLOW_WATCH_CHANNEL_BUFFER" //buffer size of each subscriber channel
const WEB_SESSION_EXPIRY_HOURS = "LFLOW_WEB_SESSION_EXPIRY_HOURS"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == WATCH_POLL_INTERVAL {
		return "3s"
	}
	if settingKey == WATCH_CHANNEL_BUFFER {
		return "16"
	}
	if settingKey == SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == WEB_SESSION_EXPIRY_HOURS {
		return "8"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./leaveflow.db"
	}
	return ""
}
