package ovh

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) CreateCart(ctx context.Context, subsidiary string) (*Cart, error) {
	var cart Cart
	err := c.Post(ctx, "cart.create", "/order/cart", map[string]any{"ovhSubsidiary": subsidiary}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddEcoItem 以月付默认定价添加一台服务器
func (c *Client) AddEcoItem(ctx context.Context, cartID, planCode string) (*CartItem, error) {
	var item CartItem
	body := map[string]any{
		"planCode":    planCode,
		"pricingMode": "default",
		"duration":    "P1M",
		"quantity":    1,
	}
	if err := c.Post(ctx, "cart.eco", fmt.Sprintf("/order/cart/%s/eco", cartID), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) RequiredConfiguration(ctx context.Context, cartID string, itemID int64) ([]RequiredConfiguration, error) {
	var confs []RequiredConfiguration
	path := fmt.Sprintf("/order/cart/%s/item/%d/requiredConfiguration", cartID, itemID)
	if err := c.Get(ctx, "cart.requiredConfiguration", path, nil, &confs); err != nil {
		return nil, err
	}
	return confs, nil
}

func (c *Client) ConfigureItem(ctx context.Context, cartID string, itemID int64, label, value string) error {
	path := fmt.Sprintf("/order/cart/%s/item/%d/configuration", cartID, itemID)
	return c.Post(ctx, "cart.configure", path, map[string]any{"label": label, "value": value}, nil)
}

func (c *Client) EcoOptions(ctx context.Context, cartID, planCode string) ([]EcoOption, error) {
	var opts []EcoOption
	path := fmt.Sprintf("/order/cart/%s/eco/options", cartID)
	if err := c.Get(ctx, "cart.ecoOptions", path, url.Values{"planCode": {planCode}}, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// AddEcoOption duration 与 pricingMode 取自报价，缺省为 P1M/default
func (c *Client) AddEcoOption(ctx context.Context, cartID string, itemID int64, opt EcoOption) error {
	duration := opt.Duration
	if duration == "" {
		duration = "P1M"
	}
	pricingMode := opt.PricingMode
	if pricingMode == "" {
		pricingMode = "default"
	}
	body := map[string]any{
		"itemId":      itemID,
		"planCode":    opt.PlanCode,
		"duration":    duration,
		"pricingMode": pricingMode,
		"quantity":    1,
	}
	return c.Post(ctx, "cart.addOption", fmt.Sprintf("/order/cart/%s/eco/options", cartID), body, nil)
}

func (c *Client) AssignCart(ctx context.Context, cartID string) error {
	return c.Post(ctx, "cart.assign", fmt.Sprintf("/order/cart/%s/assign", cartID), nil, nil)
}

func (c *Client) Checkout(ctx context.Context, cartID string) (*Order, error) {
	var order Order
	body := map[string]any{
		"autoPayWithPreferredPaymentMethod": false,
		"waiveRetractationPeriod":           true,
	}
	if err := c.Post(ctx, "cart.checkout", fmt.Sprintf("/order/cart/%s/checkout", cartID), body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
