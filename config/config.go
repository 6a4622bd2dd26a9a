// Package config loads nobus.ini and reads or writes parameter files.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/Lafeng/nobus/exception"
	"github.com/Lafeng/nobus/exploit"
	"github.com/Lafeng/nobus/paramgen"
	"github.com/go-ini/ini"
	"github.com/kardianos/osext"
)

const (
	CF_NOBUS    = "nobus"
	CONFIG_NAME = "nobus.ini"
	NULL        = ""
)

var (
	ErrConfig     = exception.New(60, "Error field in config:")
	ErrParamsFile = exception.New(61, "Invalid parameter file:")
)

// Config is the [nobus] section. Command line options override it.
type Config struct {
	Bits           int    `importable:"2048"`
	Smoothness     int    `importable:"32"`
	Verbose        int    `importable:"0"`
	Retries        int    `importable:"3"`
	ClosingBudget  int    `importable:"1000000"`
	RegenBudget    int    `importable:"100000"`
	Workers        int    `importable:"1"`
	Rescale        string `importable:"order"`
	TableCacheSize int    `importable:"64"`
	TableLimit     int64  `importable:"4194304"`

	file string `ini:"-"`
}

func Defaults() *Config {
	c := new(Config)
	setFieldsDefaultValue(c)
	return c
}

// File is the path the config was read from, empty for built-in defaults.
func (c *Config) File() string {
	return c.file
}

// SearchPaths lists the candidate locations in lookup order.
func SearchPaths() []string {
	paths := []string{CONFIG_NAME} // cwd
	// same path with exe
	if ef, err := osext.ExecutableFolder(); err == nil {
		paths = append(paths, filepath.Join(ef, CONFIG_NAME))
	}
	// home
	var home string
	if u, err := user.Current(); err == nil {
		home = u.HomeDir
	} else {
		home = os.Getenv("HOME")
	}
	if home != NULL {
		paths = append(paths, filepath.Join(home, CONFIG_NAME))
	}
	// etc
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/nobus/"+CONFIG_NAME)
	}
	return paths
}

// Load reads the specified file, or the first one found in SearchPaths.
// Finding nothing during discovery is not an error.
func Load(specifiedFile string) (*Config, error) {
	var file string
	if specifiedFile != NULL {
		if IsNotExist(specifiedFile) {
			return nil, ErrConfig.Apply("not found " + specifiedFile)
		}
		file = specifiedFile
	} else {
		for _, f := range SearchPaths() {
			if !IsNotExist(f) {
				file = f
				break
			}
		}
	}

	c := Defaults()
	if file == NULL {
		return c, nil
	}
	iniInstance, err := ini.Load(file)
	if err != nil {
		return nil, ErrConfig.Apply(err)
	}
	// a file without [nobus] leaves the defaults
	if sec, err := iniInstance.GetSection(CF_NOBUS); err == nil {
		if err = sec.MapTo(c); err != nil {
			return nil, ErrConfig.Apply(err)
		}
	}
	c.file = file
	return c, c.validate()
}

func (c *Config) validate() error {
	if c.Bits < paramgen.MinModulusBits {
		return ErrConfig.Apply("Bits")
	}
	if c.Smoothness < paramgen.MinSmoothness {
		return ErrConfig.Apply("Smoothness")
	}
	if c.Retries < 1 {
		return ErrConfig.Apply("Retries")
	}
	if c.ClosingBudget < 0 {
		return ErrConfig.Apply("ClosingBudget")
	}
	if c.RegenBudget < 0 {
		return ErrConfig.Apply("RegenBudget")
	}
	if c.Workers < 1 {
		return ErrConfig.Apply("Workers")
	}
	if _, err := exploit.ParseRescale(c.Rescale); err != nil {
		return ErrConfig.Apply("Rescale")
	}
	if c.TableCacheSize < 1 {
		return ErrConfig.Apply("TableCacheSize")
	}
	if c.TableLimit < 1 {
		return ErrConfig.Apply("TableLimit")
	}
	return nil
}

// CreateConfigTemplate writes the defaults to file, or stdout when file
// is empty.
func CreateConfigTemplate(file string) (err error) {
	var f *os.File
	if file == NULL {
		f = os.Stdout
	} else {
		f, err = os.OpenFile(file, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
		if err != nil {
			return
		}
		defer f.Close()
	}
	defer f.Sync()

	iniInst := ini.Empty()
	sec, _ := iniInst.NewSection(CF_NOBUS)
	sec.Comment = strings.TrimSpace(_CONF_HEADER)
	if err = sec.ReflectFrom(Defaults()); err != nil {
		return
	}
	sec.Key("Rescale").Comment = "order | gcd"
	sec.Key("ClosingBudget").Comment = "0 means unbounded"
	_, err = iniInst.WriteTo(f)
	return
}

func IsNotExist(file string) bool {
	_, err := os.Stat(file)
	return err != nil && os.IsNotExist(err)
}

// set default values by field tag
func setFieldsDefaultValue(str interface{}) {
	typ := reflect.TypeOf(str)
	val := reflect.ValueOf(str)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		val = val.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		ft := typ.Field(i)
		fv := val.Field(i)
		imp := ft.Tag.Get("importable")
		if !ft.Anonymous && imp != NULL {
			k := fv.Kind()
			switch k {
			case reflect.String:
				fv.SetString(imp)
			case reflect.Int, reflect.Int64:
				intVal, err := strconv.ParseInt(imp, 10, 64)
				if err == nil {
					fv.SetInt(intVal)
				}
			default:
				panic(fmt.Errorf("unsupported %v", k))
			}
		}
	}
}

const _CONF_HEADER = `
# -------------------------------------------------
#   nobus configuration
#   command line options take precedence
# -------------------------------------------------
`
