package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// ProxyURL is the content proxy gateway every outbound request is
	// relayed through; empty means direct requests.
	ProxyURL string
	// UserID keys the personal library. There is no real authentication;
	// this is a local stand-in.
	UserID string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("proxy.url", "")
	viper.SetDefault("offline.dbfile", "./offline.db")
	viper.SetDefault("library.dbfile", "./library.db")
	viper.SetDefault("library.user", "local")
	viper.SetDefault("covers.dir", "./covers/")
	viper.SetDefault("page_size", 20)
	viper.SetDefault("http.timeout", "15s")
	viper.SetDefault("http.retries", 3)

	// Get values from viper
	ProxyURL = viper.GetString("proxy.url")
	UserID = viper.GetString("library.user")
}

// SetProxyURL sets the content proxy gateway URL
func SetProxyURL(url string) {
	ProxyURL = url
}
