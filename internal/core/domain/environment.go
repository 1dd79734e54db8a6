package domain

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carlmjohnson/versioninfo"
)

const (
	ENVIRONMENT_PRODUCTION  = "prod"
	ENVIRONMENT_DEVELOPMENT = "dev"
)

// Environment describes the running build. It is fixed at startup.
type Environment struct {
	Name       string
	Version    string
	Revision   string
	BuildTime  time.Time
	DirtyBuild bool
}

var (
	environmentOnce sync.Once
	environment     atomic.Pointer[Environment]
)

// InitEnvironment sets the process environment. Only the first call has effect.
func InitEnvironment(name string) Environment {
	environmentOnce.Do(func() {
		if name == "" {
			name = ENVIRONMENT_DEVELOPMENT
		}
		environment.Store(&Environment{
			Name:       name,
			Version:    versioninfo.Short(),
			Revision:   versioninfo.Revision,
			BuildTime:  versioninfo.LastCommit,
			DirtyBuild: versioninfo.DirtyBuild,
		})
	})
	return CurrentEnvironment()
}

// CurrentEnvironment is safe to call from any goroutine. Before InitEnvironment
// it reports development.
func CurrentEnvironment() Environment {
	if env := environment.Load(); env != nil {
		return *env
	}
	return Environment{Name: ENVIRONMENT_DEVELOPMENT}
}

func IsProduction() bool {
	return CurrentEnvironment().IsProduction()
}

func (e Environment) IsProduction() bool {
	return e.Name == ENVIRONMENT_PRODUCTION
}

// Strings renders every field as "key = value", sorted by key.
func (e Environment) Strings() []string {
	fields := map[string]string{
		"name":        e.Name,
		"version":     e.Version,
		"revision":    e.Revision,
		"dirty_build": strconv.FormatBool(e.DirtyBuild),
	}
	if !e.BuildTime.IsZero() {
		fields["build_time"] = e.BuildTime.UTC().Format(time.RFC3339)
	}
	lines := make([]string, 0, len(fields))
	for k, v := range fields {
		lines = append(lines, fmt.Sprintf("%s = %s", k, v))
	}
	slices.Sort(lines)
	return lines
}

func EnvironmentStrings() []string {
	return CurrentEnvironment().Strings()
}
