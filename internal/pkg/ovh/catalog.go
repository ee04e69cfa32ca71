package ovh

import (
	"context"
	"net/url"
)

// Availabilities lists the datacenter availability items for planCode.
// An empty planCode lists every product.
func (c *Client) Availabilities(ctx context.Context, planCode string, addonFamilies ...string) ([]Availability, error) {
	query := url.Values{}
	if planCode != "" {
		query.Set("planCode", planCode)
	}
	for _, f := range addonFamilies {
		if f != "" {
			query.Add("addonFamily", f)
		}
	}

	var items []Availability
	if err := c.Get(ctx, "availability.list", "/dedicated/server/datacenter/availabilities", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DatacenterAvailability 汇总为 datacenter -> 状态；空值与 unknown 统一为 unknown
func (c *Client) DatacenterAvailability(ctx context.Context, planCode string, addonFamilies ...string) (map[string]string, error) {
	items, err := c.Availabilities(ctx, planCode, addonFamilies...)
	if err != nil {
		return nil, err
	}
	return FlattenAvailability(items), nil
}

func FlattenAvailability(items []Availability) map[string]string {
	result := make(map[string]string)
	for _, item := range items {
		for _, dc := range item.Datacenters {
			if dc.Datacenter == "" {
				continue
			}
			result[dc.Datacenter] = NormalizeStatus(dc.Availability)
		}
	}
	return result
}

func NormalizeStatus(s string) string {
	if s == "" || s == StatusUnknown {
		return StatusUnknown
	}
	return s
}

// IsAvailable 除 unavailable 与 unknown 外均视为有货（1H-low、72H 等）
func IsAvailable(status string) bool {
	return status != "" && status != StatusUnavailable && status != StatusUnknown
}

func (c *Client) EcoCatalog(ctx context.Context, subsidiary string) (*Catalog, error) {
	var catalog Catalog
	query := url.Values{"ovhSubsidiary": {subsidiary}}
	if err := c.Get(ctx, "catalog.eco", "/order/catalog/public/eco", query, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.Get(ctx, "me", "/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
