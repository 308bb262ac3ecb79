package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/httprepro/packages/http"
)

// Variant is a named combination of target strategy, batch mode and option
// forwarding.
type Variant struct {
	Name           string
	Description    string
	Strategy       http.Strategy
	Mode           Mode
	ForwardOptions bool
}

var variants = []Variant{
	{
		Name:           "repro",
		Description:    "URL string handed to the transport, one request at a time",
		Strategy:       http.DirectURL,
		Mode:           Sequential,
		ForwardOptions: true,
	},
	{
		Name:           "norepro",
		Description:    "URL pre-parsed into protocol/host/path, one request at a time",
		Strategy:       http.ParsedOptions,
		Mode:           Sequential,
		ForwardOptions: true,
	},
	{
		Name:           "repro-concurrent",
		Description:    "URL string handed to the transport, all requests at once",
		Strategy:       http.DirectURL,
		Mode:           Concurrent,
		ForwardOptions: true,
	},
	{
		Name:           "norepro-concurrent",
		Description:    "URL pre-parsed into protocol/host/path, all requests at once",
		Strategy:       http.ParsedOptions,
		Mode:           Concurrent,
		ForwardOptions: true,
	},
	{
		Name:           "url-only",
		Description:    "only the URL reaches each capture; method, headers and body are dropped",
		Strategy:       http.DirectURL,
		Mode:           Concurrent,
		ForwardOptions: false,
	},
}

// Variants returns all known variants
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// LookupVariant finds a variant by name
func LookupVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}

	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	sort.Strings(names)
	return Variant{}, fmt.Errorf("unknown variant %q (available: %s)", name, strings.Join(names, ", "))
}

// Config returns a batch config for count captures in this variant
func (v Variant) Config(count int) *Config {
	return &Config{
		Count:          count,
		Mode:           v.Mode,
		ForwardOptions: v.ForwardOptions,
	}
}

// Client builds a transport client using this variant's strategy
func (v Variant) Client(opts ...http.ClientOption) *http.Client {
	all := make([]http.ClientOption, 0, len(opts)+1)
	all = append(all, opts...)
	return http.NewClient(append(all, http.WithStrategy(v.Strategy))...)
}
