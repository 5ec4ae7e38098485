package provider

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Settings select and configure a provider.
type Settings struct {
	// Name is one of Names().
	Name string

	APIKey     string
	BaseURL    string
	ScriptPath string
	MockDelay  time.Duration

	// HTTPClient is used by HTTP based providers when set.
	HTTPClient *http.Client
}

var builders = map[string]func(Settings) Provider{
	"mock": func(s Settings) Provider { return NewMock(s.MockDelay) },
	"openai": func(s Settings) Provider {
		return NewOpenAI(s.APIKey, s.BaseURL, s.HTTPClient)
	},
	"anthropic": func(s Settings) Provider {
		return NewAnthropic(s.APIKey, s.BaseURL, s.HTTPClient)
	},
	"gemini": func(s Settings) Provider { return NewGemini(s.APIKey, s.BaseURL) },
	"compat": func(s Settings) Provider {
		return NewCompat(s.APIKey, s.BaseURL, s.HTTPClient)
	},
	"script": func(s Settings) Provider { return NewScript(s.ScriptPath) },
}

// Names lists the registered provider names.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider named in s.
func New(s Settings) (Provider, error) {
	build, ok := builders[strings.ToLower(strings.TrimSpace(s.Name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownProvider, s.Name, strings.Join(Names(), ", "))
	}
	return build(s), nil
}
