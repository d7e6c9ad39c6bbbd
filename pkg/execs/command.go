package execs

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// Command is a configurable command definition: an executable, its arguments,
// and the environment the spawned process should see.
type Command struct {
	baseEnv map[string]string

	// Command is the executable to run.
	Command string `json:"command" jsonschema:"title=Command,pattern=^\\S+$"`
	// Args contains the command line arguments.
	Args []string `json:"args,omitempty" jsonschema:"title=Arguments" yaml:"args,flow,omitempty"`
	// Env contains static environment variable definitions.
	Env []EnvVar `json:"env,omitempty" jsonschema:"title=Environment Variables"`
	// Inherit contains regex patterns matching caller environment variable
	// names to pass through, e.g. "^KUBECONFIG$" or "^AWS_.+".
	Inherit []string `json:"inherit,omitempty" jsonschema:"title=Inherited Variables" yaml:"inherit,flow,omitempty"`

	inheritPatterns []*LazyRegexp
}

// EnvVar is a static environment variable definition.
type EnvVar struct {
	// Name is the environment variable name.
	Name string `json:"name" jsonschema:"title=Name"`
	// Value is the environment variable value.
	Value string `json:"value,omitempty" jsonschema:"title=Value"`
}

// NewCommand creates a new [Command] with the caller's environment as base.
func NewCommand(command string, args ...string) Command {
	c := Command{
		Command: command,
		Args:    args,
	}
	c.SetBaseEnv(os.Environ())

	return c
}

// SetBaseEnv replaces the base environment used for inheritance. It accepts
// KEY=VALUE pairs, usually from [os.Environ].
func (c *Command) SetBaseEnv(baseEnv []string) {
	c.baseEnv = make(map[string]string, len(baseEnv))
	for _, kv := range baseEnv {
		if eqIdx := strings.Index(kv, "="); eqIdx != -1 {
			c.baseEnv[kv[:eqIdx]] = kv[eqIdx+1:]
		}
	}
}

// Environment constructs the environment for command execution: essential
// caller variables, plus matches of the Inherit patterns, plus static Env
// definitions, in increasing precedence.
func (c *Command) Environment() []string {
	if c.baseEnv == nil {
		c.SetBaseEnv(os.Environ())
	}

	envMap := make(map[string]string)

	// Essential variables are always passed through.
	for _, key := range []string{"PATH", "HOME", "USER", "KUBECONFIG"} {
		if value, ok := c.baseEnv[key]; ok {
			envMap[key] = value
		}
	}

	for _, lr := range c.compiledInherit() {
		pattern, err := lr.Get()
		if err != nil {
			continue
		}

		for key, value := range c.baseEnv {
			if pattern.MatchString(key) {
				envMap[key] = value
			}
		}
	}

	for _, envVar := range c.Env {
		if envVar.Name != "" {
			envMap[envVar.Name] = envVar.Value
		}
	}

	env := make([]string, 0, len(envMap))
	for key, value := range envMap {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}

// Validate eagerly compiles all Inherit patterns.
func (c *Command) Validate() error {
	for i, lr := range c.compiledInherit() {
		_, err := lr.Get()
		if err != nil {
			return fmt.Errorf("inherit[%d]: %w", i, err)
		}
	}

	return nil
}

func (c *Command) compiledInherit() []*LazyRegexp {
	if len(c.inheritPatterns) != len(c.Inherit) {
		c.inheritPatterns = make([]*LazyRegexp, 0, len(c.Inherit))
		for _, pattern := range c.Inherit {
			c.inheritPatterns = append(c.inheritPatterns, NewLazyRegexp(pattern))
		}
	}

	return c.inheritPatterns
}

func (c *Command) String() string {
	return commandString(c.Command, c.Args)
}

// LazyRegexp provides thread-safe lazy compilation of a regular expression.
// The pattern is compiled at most once, even when accessed concurrently.
type LazyRegexp struct {
	err     error
	regex   *regexp.Regexp
	pattern string
	once    sync.Once
}

// NewLazyRegexp creates a new LazyRegexp that will compile the given pattern
// when Get() is first called.
func NewLazyRegexp(pattern string) *LazyRegexp {
	return &LazyRegexp{
		pattern: pattern,
	}
}

// Get returns the compiled regular expression, compiling it on the first call.
// Subsequent calls return the cached result.
func (lr *LazyRegexp) Get() (*regexp.Regexp, error) {
	lr.once.Do(func() {
		lr.regex, lr.err = regexp.Compile(lr.pattern)
		if lr.err != nil {
			lr.err = fmt.Errorf("compile pattern %q: %w", lr.pattern, lr.err)
		}
	})

	return lr.regex, lr.err
}
