// In file: internal/tools/ip_tool.go
package tools

import (
	"context"
	"encoding/json"

	"github.com/aquataze/tool-gateway/internal/geoip"
)

// IPResolver resolves an IP address to a geolocation record.
type IPResolver interface {
	Resolve(ctx context.Context, ip string) (*geoip.GeoRecord, error)
}

// IPLookupTool serves geolocation records through the lookup cache.
type IPLookupTool struct {
	resolver IPResolver
}

var _ ToolExecutor = (*IPLookupTool)(nil)

func NewIPLookupTool(resolver IPResolver) *IPLookupTool {
	return &IPLookupTool{resolver: resolver}
}

func (t *IPLookupTool) Definition() Tool {
	return NewFunctionTool(
		"IPAddressLookUp",
		"Look up the network, location, currency and ISP of an IPv4 or IPv6 address",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"ip": {
					Type:        "string",
					Description: "The IP address to look up, e.g. 4.2.2.1",
				},
			},
			Required: []string{"ip"},
		},
	)
}

func (t *IPLookupTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		IP string `json:"ip"`
	}
	if err := decodeArgs(args, &in, "IPAddressLookUp"); err != nil {
		return nil, err
	}
	return t.resolver.Resolve(ctx, in.IP)
}
