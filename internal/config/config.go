package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("scene.originLat", 51.5074)
	viper.SetDefault("scene.originLon", -0.1278)
	viper.SetDefault("scene.horizontalScale", 1.0)
	viper.SetDefault("scene.verticalScale", 1.0)
	viper.SetDefault("scene.tunnelSpacing", 6.0)

	viper.SetDefault("sim.timeScale", 20.0)
	viper.SetDefault("sim.cruiseSpeed", 15.0)
	viper.SetDefault("sim.dwellSeconds", 25.0)
	viper.SetDefault("sim.trainsPerBore", 2)
	viper.SetDefault("sim.frameMillis", 50)

	viper.SetDefault("api.baseUrl", "https://api.tfl.gov.uk")
	viper.SetDefault("api.appKey", "")
	viper.SetDefault("api.timeoutSeconds", 30)
	viper.SetDefault("api.cacheMaxAgeHours", 168)

	viper.SetDefault("data.anchorsFile", "./data/station_depths.csv")
	viper.SetDefault("data.staticDir", "./data/routes")
	viper.SetDefault("data.exportDir", "./export")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "tube3d")
	viper.SetDefault("db.sqlitePath", "./tube3d.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "tube3d-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("terrain.enabled", false)
	viper.SetDefault("terrain.heightmap", "./data/heightmap.png")
	viper.SetDefault("terrain.metadata", "./data/heightmap.json")

	viper.SetConfigName("tube3d.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float64 config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}
