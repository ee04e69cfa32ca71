package ovh

import (
	"context"
	"net/url"
)

// VPS 下单规则中的缺货状态；其余状态（available 等）视为有货
const (
	VPSOutOfStock         = "out-of-stock"
	VPSOutOfStockPreorder = "out-of-stock-preorder-allowed"
	DefaultVPSSubsidiary  = "IE"
	vpsDatacenterRulePath = "/vps/order/rule/datacenter"
)

type VPSDatacenter struct {
	Datacenter         string `json:"datacenter"`
	Code               string `json:"code"`
	Status             string `json:"status"`
	LinuxStatus        string `json:"linuxStatus,omitempty"`
	WindowsStatus      string `json:"windowsStatus,omitempty"`
	DaysBeforeDelivery int    `json:"daysBeforeDelivery"`
}

type VPSDatacenterRule struct {
	Datacenters []VPSDatacenter `json:"datacenters"`
}

func VPSInStock(status string) bool {
	return status != VPSOutOfStock && status != VPSOutOfStockPreorder
}

// VPSDatacenters 查询公开的 VPS 机房规则，不需要凭据
func (c *Client) VPSDatacenters(ctx context.Context, planCode, subsidiary string) (*VPSDatacenterRule, error) {
	if subsidiary == "" {
		subsidiary = DefaultVPSSubsidiary
	}
	query := url.Values{"ovhSubsidiary": {subsidiary}, "planCode": {planCode}}
	var rule VPSDatacenterRule
	if err := c.PublicGet(ctx, "vps.datacenters", vpsDatacenterRulePath, query, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}
