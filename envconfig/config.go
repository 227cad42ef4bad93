package envconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// Set via FLOWGEN_DEBUG in the environment
	Debug bool
	// Set via FLOWGEN_HOST in the environment
	Host string
	// Set via FLOWGEN_DATA in the environment
	DataDir string
	// Set via FLOWGEN_OUT in the environment
	OutDir string
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"FLOWGEN_DEBUG": {"FLOWGEN_DEBUG", Debug, "Show additional debug information (e.g. FLOWGEN_DEBUG=1)"},
		"FLOWGEN_HOST":  {"FLOWGEN_HOST", Host, "IP address and port for the flowgen server (default 127.0.0.1:7878)"},
		"FLOWGEN_DATA":  {"FLOWGEN_DATA", DataDir, "Location of the MNIST data files"},
		"FLOWGEN_OUT":   {"FLOWGEN_OUT", OutDir, "Directory for generated sample grids and bpd plots"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	if debug := clean("FLOWGEN_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	Host = clean("FLOWGEN_HOST")
	if Host == "" {
		Host = "127.0.0.1:7878"
	}

	DataDir = clean("FLOWGEN_DATA")
	if DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			DataDir = filepath.Join(home, ".flowgen", "mnist")
		} else {
			DataDir = "mnist"
		}
	}

	OutDir = clean("FLOWGEN_OUT")
	if OutDir == "" {
		OutDir = filepath.Join("images", "nf")
	}
}
