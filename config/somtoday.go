package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetSomtodayAPIBase() string {
	v := os.Getenv("SOMTODAY_API_BASE")
	if v == "" {
		return "https://api.somtoday.nl/rest/v1"
	}
	return v
}

func GetSomtodayTokenURL() string {
	v := os.Getenv("SOMTODAY_TOKEN_URL")
	if v == "" {
		return "https://somtoday.nl/oauth2/token"
	}
	return v
}

func GetSomtodayClientID() (*string, error) {
	v := os.Getenv("SOMTODAY_CLIENT_ID")
	if v == "" {
		return nil, fmt.Errorf("somtoday client id is missing, value: %s", v)
	}
	return &v, nil
}

func GetSomtodayPageSize() int {
	v := os.Getenv("SOMTODAY_PAGE_SIZE")
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func GetSomtodayTimeout() time.Duration {
	v := os.Getenv("SOMTODAY_TIMEOUT_SECONDS")
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 30 * time.Second
}
