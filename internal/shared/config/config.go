package config

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"geointel/internal/shared/types"
)

// LoadIni loads the behaviour configuration file into cfg. A missing file is
// not an error: defaults are applied and the tool stays runnable.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyDefaults()
			return nil
		}
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	overrideFromEnvStr(&cfg.GeoConf.OpenCageKey, "OPENCAGE_API_KEY")
	overrideFromEnvInt(&cfg.WebConf.Port, "GEOINTEL_WEB_PORT")
	cfg.ApplyDefaults()
	return nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvStr(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
